// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

// Package decoder turns a byte stream emitted by the wire encoder back into
// typed, renderable Frames: it buffers incoming bytes, extracts one frame
// at a time under either the Raw or Reverse-COBS framing, and walks a
// format string against the frame payload to decode and render arguments.
package decoder

import (
	"github.com/wiretrace/trice/internal/format"
	"github.com/wiretrace/trice/internal/id"
)

// Arg is one decoded, typed argument value. Type selects which field is
// meaningful; CTNone means Nested holds a recursively decoded polymorphic
// sub-frame instead of a scalar value.
type Arg struct {
	Type format.CaptureType

	Bool    bool
	IntLo   uint64 // low 64 bits for every integer type; the only 64 bits used below u128/i128
	IntHi   uint64 // high 64 bits, meaningful only for u128/i128
	Signed  bool   // true for the signed integer capture types
	Float32 float32
	Float64 float64
	Str     string
	IstrIdx uint64
	IstrVal string // resolved interned string content, if the table had an entry for IstrIdx
	Bytes   []byte // [u8] and [u8;N]
	Nested  *Frame // populated when Type == format.CTNone
}

// Frame is one fully decoded log event: its level and timestamp (absent for
// a nested polymorphic sub-frame or when the table carries no timestamp
// entry), its format string, and its positional arguments.
type Frame struct {
	Level        *id.Level
	Timestamp    *Frame // the decoded timestamp sub-frame, if the table has one
	FormatString string
	Args         []Arg

	spec *format.Spec // cached parse of FormatString, reused by Display
}
