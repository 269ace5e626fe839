package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wiretrace/trice/internal/wire"
)

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 129, 16384, 1<<32 - 1, 1 << 40, 1<<64 - 1}
	for _, v := range cases {
		b := wire.AppendVarint(nil, v)
		got, n, err := wire.ReadVarint(b)
		assert.Nil(t, err)
		assert.Equal(t, len(b), n)
		assert.Equal(t, v, got)
	}
}

func TestVarintShortBuffer(t *testing.T) {
	b := wire.AppendVarint(nil, 1<<20)
	_, _, err := wire.ReadVarint(b[:1])
	assert.ErrorIs(t, err, wire.ErrShortBuffer)
}

func TestVarintOverflow(t *testing.T) {
	b := make([]byte, 11)
	for i := range b {
		b[i] = 0x80
	}
	_, _, err := wire.ReadVarint(b)
	assert.ErrorIs(t, err, wire.ErrVarintOverflow)
}

func TestBoolPoolPacksLSBFirstAcrossBytes(t *testing.T) {
	var p wire.BoolPool
	bits := []bool{true, false, true, true, false, false, false, false, true}
	var out []byte
	for _, b := range bits {
		if flushed, ok := p.Push(b); ok {
			out = append(out, flushed)
		}
	}
	if b, ok := p.Flush(); ok {
		out = append(out, b)
	}
	assert.Equal(t, []byte{0b00001101, 0b00000001}, out)
}

func TestBoolBitReaderMatchesPool(t *testing.T) {
	var p wire.BoolPool
	bits := []bool{true, true, false, true, false, true, false, true, false}
	var packed []byte
	for _, b := range bits {
		if flushed, ok := p.Push(b); ok {
			packed = append(packed, flushed)
		}
	}
	if b, ok := p.Flush(); ok {
		packed = append(packed, b)
	}

	var r wire.BoolBitReader
	off := 0
	for i, want := range bits {
		bit, consumed, err := r.Next(packed[off:])
		assert.Nil(t, err, "bit %d", i)
		off += consumed
		assert.Equal(t, want, bit, "bit %d", i)
	}
}
