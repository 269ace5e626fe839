// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package encoder

import "github.com/wiretrace/trice/internal/format"

// Arg is one device-side argument value ready for encoding. Build one with
// the constructor matching the capture type the target log site's format
// string declares at that position; the wire layer trusts the caller to
// match them, the same way the real macro-generated call site would.
type Arg struct {
	typ CaptureType

	b        bool
	u        uint64
	hi       uint64 // high 64 bits, u128/i128 only
	f32      float32
	f64      float64
	str      string
	bytes    []byte
	arrayLen int

	polyIndex uint64
	polyArgs  []Arg
}

// CaptureType re-exports format.CaptureType so callers outside this module
// don't need to import internal/format just to spell a constructor's type.
type CaptureType = format.CaptureType

func Bool(v bool) Arg { return Arg{typ: format.CTBool, b: v} }

func U8(v uint8) Arg   { return Arg{typ: format.CTU8, u: uint64(v)} }
func U16(v uint16) Arg { return Arg{typ: format.CTU16, u: uint64(v)} }
func U32(v uint32) Arg { return Arg{typ: format.CTU32, u: uint64(v)} }
func U64(v uint64) Arg { return Arg{typ: format.CTU64, u: v} }
func Usize(v uint32) Arg { return Arg{typ: format.CTUsize, u: uint64(v)} }

func I8(v int8) Arg   { return Arg{typ: format.CTI8, u: uint64(uint8(v))} }
func I16(v int16) Arg { return Arg{typ: format.CTI16, u: uint64(uint16(v))} }
func I32(v int32) Arg { return Arg{typ: format.CTI32, u: uint64(uint32(v))} }
func I64(v int64) Arg { return Arg{typ: format.CTI64, u: uint64(v)} }
func Isize(v int32) Arg { return Arg{typ: format.CTIsize, u: uint64(uint32(v))} }

// U128 and I128 take the value as low/high 64-bit halves, matching the wire
// layout internal/decoder reads (low half first).
func U128(lo, hi uint64) Arg { return Arg{typ: format.CTU128, u: lo, hi: hi} }
func I128(lo, hi uint64) Arg { return Arg{typ: format.CTI128, u: lo, hi: hi} }

func F32(v float32) Arg { return Arg{typ: format.CTF32, f32: v} }
func F64(v float64) Arg { return Arg{typ: format.CTF64, f64: v} }

func Str(v string) Arg { return Arg{typ: format.CTStr, str: v} }

// Istr references an entry already resolvable in the host's symbol table by
// index; no string bytes travel on the wire.
func Istr(idx uint64) Arg { return Arg{typ: format.CTIstr, u: idx} }

// Bytes encodes v as a length-prefixed [u8] slice.
func Bytes(v []byte) Arg { return Arg{typ: format.CTByteSlice, bytes: v} }

// ByteArray encodes v as a fixed [u8;N] array: N is len(v) and travels only
// in the format string, not on the wire.
func ByteArray(v []byte) Arg {
	return Arg{typ: format.CTByteArray, bytes: v, arrayLen: len(v)}
}

// Poly builds a polymorphic argument: index identifies the nested format
// string's symbol-table entry, fields are that nested format's own
// arguments (which may themselves be polymorphic).
func Poly(index uint64, fields ...Arg) Arg {
	return Arg{typ: format.CTNone, polyIndex: index, polyArgs: fields}
}
