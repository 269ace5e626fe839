package encoder_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wiretrace/trice/internal/decoder"
	"github.com/wiretrace/trice/internal/encoder"
	"github.com/wiretrace/trice/internal/id"
)

func mustTable(t *testing.T, js string) *id.Table {
	t.Helper()
	tbl, err := id.LoadTable(strings.NewReader(js))
	assert.Nil(t, err)
	return tbl
}

func acquire(t *testing.T) *encoder.Session {
	t.Helper()
	s, ok := encoder.NewLogger().Acquire()
	assert.True(t, ok)
	return s
}

func TestEncodeTwoU8ArgsRoundTrips(t *testing.T) {
	tbl := mustTable(t, `{"0": {"type": "log", "level": "INFO", "fmt": "a={=u8} b={=u8}"}}`)
	var buf bytes.Buffer
	s := acquire(t)
	err := s.Encode(&buf, encoder.FramingRaw, 0, encoder.U8(1), encoder.U8(2))
	assert.Nil(t, err)
	assert.Equal(t, []byte{0, 1, 2}, buf.Bytes())

	f, n, err := decoder.Decode(tbl, buf.Bytes())
	assert.Nil(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.Equal(t, "INFO a=1 b=2", f.Display(false))
}

func TestEncodeBoolPackingMatchesTrailingPoolLayout(t *testing.T) {
	tbl := mustTable(t, `{"0": {"type": "log", "level": "INFO", "fmt": "{=bool} {=bool} {=u8}"}}`)
	var buf bytes.Buffer
	s := acquire(t)
	err := s.Encode(&buf, encoder.FramingRaw, 0, encoder.Bool(true), encoder.Bool(false), encoder.U8(7))
	assert.Nil(t, err)
	// index 0, then the u8 field byte, then one trailing byte with bit0=1
	// (true) and bit1=0 (false), per spec section 8's concrete scenario.
	assert.Equal(t, []byte{0, 7, 0x01}, buf.Bytes())

	f, n, err := decoder.Decode(tbl, buf.Bytes())
	assert.Nil(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.Equal(t, "INFO true false 7", f.Display(false))
}

// TestEncodeBoolGroupFollowedByFieldRoundTrips covers eight or more bools
// (a full packed byte) followed by a non-bool field: the full byte must
// still land after the trailing field, not inline where the eighth bool
// completed the pool.
func TestEncodeBoolGroupFollowedByFieldRoundTrips(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "log", "level": "INFO", "fmt": "{=bool} {=bool} {=bool} {=bool} {=bool} {=bool} {=bool} {=bool} {=u8}"}
	}`)
	var buf bytes.Buffer
	s := acquire(t)
	bits := []bool{true, false, true, false, true, false, true, false}
	args := make([]encoder.Arg, 0, len(bits)+1)
	for _, b := range bits {
		args = append(args, encoder.Bool(b))
	}
	args = append(args, encoder.U8(7))
	err := s.Encode(&buf, encoder.FramingRaw, 0, args...)
	assert.Nil(t, err)
	// index, then the u8 field byte, then one trailing packed bool byte.
	assert.Equal(t, []byte{0, 7, 0x55}, buf.Bytes())

	f, n, err := decoder.Decode(tbl, buf.Bytes())
	assert.Nil(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.Equal(t, "INFO true false true false true false true false 7", f.Display(false))
}

func TestEncodePolymorphicOrderingRoundTrips(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "write", "fmt": "A{=u8}"},
		"1": {"type": "write", "fmt": "B{=u8}"},
		"2": {"type": "log", "level": "INFO", "fmt": "{} {}"}
	}`)
	var buf bytes.Buffer
	s := acquire(t)
	err := s.Encode(&buf, encoder.FramingRaw, 2,
		encoder.Poly(0, encoder.U8(10)),
		encoder.Poly(1, encoder.U8(20)),
	)
	assert.Nil(t, err)

	f, n, err := decoder.Decode(tbl, buf.Bytes())
	assert.Nil(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.Equal(t, "INFO A10 B20", f.Display(false))
}

func TestEncodeWithTimestampRoundTrips(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "timestamp", "fmt": "{=u64}"},
		"1": {"type": "log", "level": "INFO", "fmt": "hello"}
	}`)
	l := encoder.NewLogger()
	l.SetTimestamp(func() uint64 { return 9 })
	s, ok := l.Acquire()
	assert.True(t, ok)

	var buf bytes.Buffer
	assert.Nil(t, s.Encode(&buf, encoder.FramingRaw, 1))

	f, n, err := decoder.Decode(tbl, buf.Bytes())
	assert.Nil(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.Equal(t, "INFO hello", f.Display(false))
	ts, ok := f.TimestampValue()
	assert.True(t, ok)
	assert.Equal(t, uint64(9), ts)
}

func TestEncodeRzcobsFramingDecodesViaStreamDecoder(t *testing.T) {
	tbl := mustTable(t, `{
		"0": {"type": "log", "level": "INFO", "fmt": "first"},
		"1": {"type": "log", "level": "WARN", "fmt": "second"}
	}`)
	lut := id.NewLookupTable(tbl)
	var buf bytes.Buffer
	s := acquire(t)
	assert.Nil(t, s.Encode(&buf, encoder.FramingRzcobs, 0))
	assert.Nil(t, s.Encode(&buf, encoder.FramingRzcobs, 1))

	r := decoder.NewRzcobs(lut)
	r.Received(buf.Bytes())

	f1, err := r.Decode()
	assert.Nil(t, err)
	assert.Equal(t, "INFO first", f1.Display(false))

	f2, err := r.Decode()
	assert.Nil(t, err)
	assert.Equal(t, "WARN second", f2.Display(false))
}

func TestLoggerAcquireIsSingleOwner(t *testing.T) {
	l := encoder.NewLogger()
	s1, ok := l.Acquire()
	assert.True(t, ok)
	_, ok = l.Acquire()
	assert.False(t, ok)
	s1.Release()
	_, ok = l.Acquire()
	assert.True(t, ok)
}
