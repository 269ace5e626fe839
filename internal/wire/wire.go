// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

// Package wire holds the low-level byte encodings shared by the device-side
// encoder and the host-side decoder: compressed (varint) integers, the
// trailing bool-bit pool, and endian-aware fixed-width readers/writers.
package wire

import (
	"encoding/binary"
	"errors"
)

// ErrVarintOverflow is returned when a varint runs past MaxVarintBytes bytes
// without a terminating byte.
var ErrVarintOverflow = errors.New("wire: varint overflows 64 bits")

// ErrShortBuffer is returned by decode helpers when fewer bytes are available
// than the value being read requires.
var ErrShortBuffer = errors.New("wire: short buffer")

// MaxVarintBytes is the largest number of bytes a 64-bit varint can occupy.
const MaxVarintBytes = 10

// AppendVarint appends v to dst as a little-endian base-128 varint: 7 payload
// bits per byte, MSB set on every byte but the last.
func AppendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// ReadVarint reads a varint from the front of b, returning the value and the
// number of bytes consumed. It reports ErrShortBuffer if b is truncated
// mid-varint and ErrVarintOverflow if more than MaxVarintBytes are seen.
func ReadVarint(b []byte) (v uint64, n int, err error) {
	var shift uint
	for n = 0; ; n++ {
		if n >= MaxVarintBytes {
			return 0, 0, ErrVarintOverflow
		}
		if n >= len(b) {
			return 0, 0, ErrShortBuffer
		}
		c := b[n]
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, n + 1, nil
		}
		shift += 7
	}
}

// BoolPool accumulates booleans LSB-first into bytes as they are emitted by
// the encoder, in frame order of appearance, per spec section 4.C step 6.
type BoolPool struct {
	cur  byte
	nbit uint
}

// Push adds one boolean to the pool, returning a flushed byte and true once
// eight bits have accumulated.
func (p *BoolPool) Push(v bool) (flushed byte, ok bool) {
	if v {
		p.cur |= 1 << p.nbit
	}
	p.nbit++
	if p.nbit == 8 {
		flushed, ok = p.cur, true
		p.cur, p.nbit = 0, 0
	}
	return
}

// Flush returns the partially filled trailing byte, if any bits were pushed
// since the last flush.
func (p *BoolPool) Flush() (b byte, ok bool) {
	if p.nbit == 0 {
		return 0, false
	}
	b, ok = p.cur, true
	p.cur, p.nbit = 0, 0
	return
}

// BoolBitReader consumes bits from a stream of packed bool bytes, pulling a
// fresh byte from next whenever the current one is exhausted.
type BoolBitReader struct {
	cur      byte
	nbit     uint
	consumed int
}

// Next reads one bit from src starting at offset, pulling a new byte from
// src when the current one's 8 bits are exhausted. It returns the bit, the
// number of new bytes consumed from src by this call, and an error if src is
// exhausted before a bit could be produced.
func (r *BoolBitReader) Next(src []byte) (bit bool, consumed int, err error) {
	if r.nbit == 0 {
		if len(src) < 1 {
			return false, 0, ErrShortBuffer
		}
		r.cur = src[0]
		r.nbit = 8
		consumed = 1
	}
	bit = r.cur&1 != 0
	r.cur >>= 1
	r.nbit--
	return bit, consumed, nil
}

// LittleEndian re-exports binary.LittleEndian for callers that only need
// fixed-width little-endian access without importing encoding/binary
// directly, matching the teacher's ReadU16/ReadU32/ReadU64 helper cluster.
var LittleEndian = binary.LittleEndian
