// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package encoder

import (
	"io"
	"math"

	"github.com/wiretrace/trice/internal/format"
	"github.com/wiretrace/trice/internal/framer"
	"github.com/wiretrace/trice/internal/wire"
)

// Framing selects the encode-side counterpart of one of internal/decoder's
// two stream framings.
type Framing int

const (
	// FramingRaw writes bytes straight through with no delimiter.
	FramingRaw Framing = iota
	// FramingRzcobs 0x00-delimits each frame after reverse-COBS stuffing.
	FramingRzcobs
)

func (f Framing) open(w io.Writer) framer.FrameWriter {
	if f == FramingRzcobs {
		return framer.OpenRzcobs(w)
	}
	return framer.OpenRaw(w)
}

// Encode performs the device-side emission described in spec section 4.C:
// open a frame, write the log-site index, serialize the installed
// timestamp's own arguments exactly as for any other log site, then
// serialize args in two phases (every polymorphic index depth-first
// pre-order, then every field's bytes left to right with bools deferred to
// one shared trailing pool), and close the frame.
func (s *Session) Encode(transport io.Writer, framing Framing, siteIndex uint64, args ...Arg) error {
	fw := framing.open(transport)
	if err := encodeOne(fw, s.l, siteIndex, args); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func encodeOne(w io.Writer, l *Logger, siteIndex uint64, args []Arg) error {
	if err := writeVarint(w, siteIndex); err != nil {
		return err
	}
	if l.ts != nil {
		if err := encodeArgTree(w, []Arg{U64(l.ts())}); err != nil {
			return err
		}
	}
	return encodeArgTree(w, args)
}

// encodeArgTree serializes one self-contained argument list: a log site's
// own args, or the timestamp's. Nested polymorphic arguments are serialized
// inside the same call (writePolyIndices and writeFields recurse into them)
// and share its bool pool. Each call gets its own trailing bool pool,
// mirroring internal/decoder's
// siteDecoder.decodeSite: every bool across the whole tree is deferred and
// its packed bytes written only after every non-bool field byte, never
// inline, so a field following a group of 8+ bools lands at the same offset
// the decoder expects it at.
func encodeArgTree(w io.Writer, args []Arg) error {
	if err := writePolyIndices(w, args); err != nil {
		return err
	}
	var bools []bool
	if err := writeFields(w, &bools, args); err != nil {
		return err
	}
	var pool wire.BoolPool
	for _, b := range bools {
		if fb, ok := pool.Push(b); ok {
			if _, err := w.Write([]byte{fb}); err != nil {
				return err
			}
		}
	}
	if fb, ok := pool.Flush(); ok {
		if _, err := w.Write([]byte{fb}); err != nil {
			return err
		}
	}
	return nil
}

// writePolyIndices walks args depth-first pre-order, writing one varint
// index per polymorphic argument before moving to the next sibling, the
// same order internal/decoder.drainPoly reads them back in.
func writePolyIndices(w io.Writer, args []Arg) error {
	for _, a := range args {
		if a.typ != format.CTNone {
			continue
		}
		if err := writeVarint(w, a.polyIndex); err != nil {
			return err
		}
		if err := writePolyIndices(w, a.polyArgs); err != nil {
			return err
		}
	}
	return nil
}

// writeFields emits non-bool field bytes left to right, recursing into a
// polymorphic argument's own fields inline (so they interleave at the
// correct wire position), and appends every bool encountered (in the same
// order) to bools for packing once the whole tree's non-bool bytes are
// written — it never writes a bool byte itself.
func writeFields(w io.Writer, bools *[]bool, args []Arg) error {
	for _, a := range args {
		switch a.typ {
		case format.CTNone:
			if err := writeFields(w, bools, a.polyArgs); err != nil {
				return err
			}
		case format.CTBool:
			*bools = append(*bools, a.b)
		default:
			if err := writeScalar(w, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeScalar(w io.Writer, a Arg) error {
	switch a.typ {
	case format.CTU8, format.CTI8:
		_, err := w.Write([]byte{byte(a.u)})
		return err
	case format.CTU16, format.CTI16:
		return write(w, wire.LittleEndian.AppendUint16(nil, uint16(a.u)))
	case format.CTU32, format.CTI32, format.CTUsize, format.CTIsize:
		return write(w, wire.LittleEndian.AppendUint32(nil, uint32(a.u)))
	case format.CTU64, format.CTI64:
		return write(w, wire.LittleEndian.AppendUint64(nil, a.u))
	case format.CTU128, format.CTI128:
		if err := write(w, wire.LittleEndian.AppendUint64(nil, a.u)); err != nil {
			return err
		}
		return write(w, wire.LittleEndian.AppendUint64(nil, a.hi))
	case format.CTF32:
		return write(w, wire.LittleEndian.AppendUint32(nil, math.Float32bits(a.f32)))
	case format.CTF64:
		return write(w, wire.LittleEndian.AppendUint64(nil, math.Float64bits(a.f64)))
	case format.CTStr:
		b := []byte(a.str)
		if err := writeVarint(w, uint64(len(b))); err != nil {
			return err
		}
		return write(w, b)
	case format.CTIstr:
		return writeVarint(w, a.u)
	case format.CTByteSlice:
		if err := writeVarint(w, uint64(len(a.bytes))); err != nil {
			return err
		}
		return write(w, a.bytes)
	case format.CTByteArray:
		return write(w, a.bytes)
	default:
		return nil
	}
}

func write(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

func writeVarint(w io.Writer, v uint64) error {
	return write(w, wire.AppendVarint(nil, v))
}
