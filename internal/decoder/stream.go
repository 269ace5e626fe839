// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package decoder

import (
	"errors"
	"fmt"

	"github.com/wiretrace/trice/internal/id"
	"github.com/wiretrace/trice/internal/wire"
)

// ErrNeedMore is the transient decode error: the buffer held so far is a
// valid prefix of a frame but does not yet contain the whole thing. The
// caller should retry Decode after feeding more bytes via Received.
var ErrNeedMore = errors.New("decoder: need more data")

// ErrMalformed is the permanent decode error: the bytes considered for this
// frame cannot be parsed against the symbol table. Under Raw framing there
// is no recoverable boundary to skip to; under Rzcobs framing the consumed
// bytes (through the delimiter) have already been dropped from the buffer
// when this is returned.
var ErrMalformed = errors.New("decoder: malformed frame")

// StreamDecoder buffers incoming bytes and extracts frames one at a time,
// per spec section 4.E.
type StreamDecoder interface {
	// Received appends newly arrived bytes to the internal buffer.
	Received(b []byte)
	// Decode attempts to extract exactly one frame from the buffer. It
	// returns ErrNeedMore if the buffer is a valid but incomplete prefix,
	// or ErrMalformed if the frame (or framing) could not be parsed.
	Decode() (Frame, error)
}

// isShortBuffer reports whether err indicates "not enough bytes yet" as
// opposed to a structural decoding failure.
func isShortBuffer(err error) bool {
	return errors.Is(err, wire.ErrShortBuffer)
}

// Raw implements length-implicit framing: a frame is exactly as many bytes
// as the format schema demands, with no delimiter. See spec section 4.D.
type Raw struct {
	table *id.LookupTable
	buf   []byte
}

// NewRaw constructs a Raw stream decoder against the given (possibly
// hot-reloadable) symbol table.
func NewRaw(table *id.LookupTable) *Raw {
	return &Raw{table: table}
}

// Received appends b to the retained buffer; spec section "ADD — SUPPLEMENTED
// FEATURES" requires every unconsumed byte to survive across calls.
func (r *Raw) Received(b []byte) {
	r.buf = append(r.buf, b...)
}

// Decode implements StreamDecoder for Raw framing.
func (r *Raw) Decode() (Frame, error) {
	frame, n, err := Decode(r.table.Current(), r.buf)
	if err != nil {
		if isShortBuffer(err) {
			return Frame{}, ErrNeedMore
		}
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	r.buf = r.buf[n:]
	return frame, nil
}

// Rzcobs implements 0x00-delimited reverse-COBS framing. See spec section
// 4.D/4.E.
type Rzcobs struct {
	table *id.LookupTable
	buf   []byte
}

// NewRzcobs constructs an Rzcobs stream decoder against the given
// (possibly hot-reloadable) symbol table.
func NewRzcobs(table *id.LookupTable) *Rzcobs {
	return &Rzcobs{table: table}
}

// Received appends b to the retained buffer.
func (r *Rzcobs) Received(b []byte) {
	r.buf = append(r.buf, b...)
}

// Decode implements StreamDecoder for Rzcobs framing: it scans for the next
// 0x00 delimiter, un-stuffs the segment before it, and parses that against
// the table. A malformed chunk discards bytes up to and including the
// delimiter, per spec section 4.D.
func (r *Rzcobs) Decode() (Frame, error) {
	idx := indexZero(r.buf)
	if idx < 0 {
		return Frame{}, ErrNeedMore
	}
	segment := r.buf[:idx]
	advance := idx + 1 // through the delimiter

	payload, err := wire.RzcobsUnstuff(segment)
	if err != nil {
		r.buf = r.buf[advance:]
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	frame, n, err := Decode(r.table.Current(), payload)
	if err != nil {
		r.buf = r.buf[advance:]
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if n != len(payload) {
		r.buf = r.buf[advance:]
		return Frame{}, fmt.Errorf("%w: %d trailing bytes after frame", ErrMalformed, len(payload)-n)
	}

	r.buf = r.buf[advance:]
	return frame, nil
}

func indexZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
