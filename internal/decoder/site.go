// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package decoder

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/wiretrace/trice/internal/format"
	"github.com/wiretrace/trice/internal/id"
	"github.com/wiretrace/trice/internal/wire"
)

// Decode performs the one-shot decode described in spec section 4.F: read
// the log-site index, resolve it against table, decode the optional
// timestamp sub-frame, then the frame's own arguments. It returns the
// decoded frame and the number of bytes of b it consumed.
//
// errors.Is(err, wire.ErrShortBuffer) distinguishes "need more bytes" from
// every other (permanent) failure, per spec section 4.F/7.
func Decode(table *id.Table, b []byte) (Frame, int, error) {
	off := 0
	idx, n, err := wire.ReadVarint(b[off:])
	if err != nil {
		return Frame{}, 0, err
	}
	off += n

	entry, ok := table.ByIndex(idx)
	if !ok {
		return Frame{}, 0, fmt.Errorf("decoder: unknown log-site index %d", idx)
	}
	if entry.Role != id.RoleLog {
		return Frame{}, 0, fmt.Errorf("decoder: index %d is not a log site (role %s)", idx, entry.Role)
	}

	d := &siteDecoder{b: b, off: &off, table: table}

	var ts *Frame
	if tsEntry, hasTS := table.Timestamp(); hasTS {
		f, err := d.decodeSite(tsEntry.Fmt)
		if err != nil {
			return Frame{}, 0, err
		}
		ts = &f
	}

	frame, err := d.decodeSite(entry.Fmt)
	if err != nil {
		return Frame{}, 0, err
	}
	lvl := entry.Level
	frame.Level = &lvl
	frame.Timestamp = ts
	return frame, off, nil
}

// siteDecoder threads a shared byte cursor through one self-contained
// decode of a format string's argument tree: draining every polymorphic
// index depth-first pre-order before any field byte, then walking the
// format string again for field bytes, deferring every bool to one shared
// trailing packed-byte pool flushed once the whole tree's non-bool bytes
// are consumed. This mirrors spec section 4.C's device-side emission order
// exactly, since the decoder must retrace the same order the encoder used.
type siteDecoder struct {
	b     []byte
	off   *int
	table *id.Table
}

// polyNode remembers, for one polymorphic ("?") parameter slot, which
// nested format spec its index resolved to and that nested spec's own
// polymorphic children — built once during the index pre-drain and reused
// during the field-byte walk so the nested format string is parsed only
// once.
type polyNode struct {
	spec     *format.Spec
	level    *id.Level // nested polymorphic args never carry a level
	children map[int]*polyNode
}

// decodeSite decodes one self-contained format-string argument tree: a
// top-level log site or a timestamp sub-frame. Each call gets its own
// trailing bool pool, per spec section 4.C step 4's "exactly as for any
// other log site" framing for timestamps.
func (d *siteDecoder) decodeSite(fmtString string) (Frame, error) {
	spec, err := format.Parse(fmtString)
	if err != nil {
		return Frame{}, fmt.Errorf("decoder: bad format string %q: %w", fmtString, err)
	}

	children, err := d.drainPoly(spec)
	if err != nil {
		return Frame{}, err
	}

	var boolSlots []*Arg
	args := make([]Arg, len(spec.Slots))
	if err := d.walkFields(spec, children, args, &boolSlots); err != nil {
		return Frame{}, err
	}

	if len(boolSlots) > 0 {
		var br wire.BoolBitReader
		for _, slot := range boolSlots {
			bit, n, err := br.Next(d.b[*d.off:])
			if err != nil {
				return Frame{}, err
			}
			*d.off += n
			slot.Bool = bit
		}
	}

	return Frame{FormatString: fmtString, Args: args, spec: spec}, nil
}

// drainPoly reads, depth-first pre-order, one varint log-site index for
// every polymorphic parameter slot spec declares (skipping reused
// occurrences, which contribute no new slot), resolving each to its own
// nested format spec and recursing into that spec's own polymorphic
// children before moving to the next slot.
func (d *siteDecoder) drainPoly(spec *format.Spec) (map[int]*polyNode, error) {
	children := map[int]*polyNode{}
	for _, tok := range spec.Tokens {
		if !tok.IsParam || tok.Param.Type != format.CTNone || tok.Param.Reuse {
			continue
		}
		pos := tok.Param.Position
		if _, seen := children[pos]; seen {
			continue
		}
		idx, n, err := wire.ReadVarint(d.b[*d.off:])
		if err != nil {
			return nil, err
		}
		*d.off += n

		entry, ok := d.table.ByIndex(idx)
		if !ok {
			return nil, fmt.Errorf("decoder: unknown nested format index %d", idx)
		}
		nestedSpec, err := format.Parse(entry.Fmt)
		if err != nil {
			return nil, fmt.Errorf("decoder: bad nested format string %q: %w", entry.Fmt, err)
		}
		node := &polyNode{spec: nestedSpec}
		node.children, err = d.drainPoly(nestedSpec)
		if err != nil {
			return nil, err
		}
		children[pos] = node
	}
	return children, nil
}

// walkFields consumes field bytes left-to-right for every non-reused
// parameter in spec, recursing into nested polymorphic args inline (so
// their own non-bool bytes interleave at the correct wire position), and
// appends a pointer for every bool encountered (in the same order) to
// boolSlots for later assignment from the trailing pool.
func (d *siteDecoder) walkFields(spec *format.Spec, children map[int]*polyNode, args []Arg, boolSlots *[]*Arg) error {
	for _, tok := range spec.Tokens {
		if !tok.IsParam || tok.Param.Reuse {
			continue
		}
		p := tok.Param
		a := &args[p.Position]
		a.Type = p.Type

		switch p.Type {
		case format.CTNone:
			child := children[p.Position]
			nested, err := d.decodeNested(child, boolSlots)
			if err != nil {
				return err
			}
			a.Nested = nested
		case format.CTBool:
			*boolSlots = append(*boolSlots, a)
		default:
			if err := d.readScalar(a, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeNested decodes one already-resolved polymorphic child inline,
// threading the same boolSlots slice the enclosing site is accumulating
// into so nested bools are assigned from the one shared trailing pool in
// frame order of appearance (spec section 8 property 2).
func (d *siteDecoder) decodeNested(n *polyNode, boolSlots *[]*Arg) (*Frame, error) {
	args := make([]Arg, len(n.spec.Slots))
	if err := d.walkFields(n.spec, n.children, args, boolSlots); err != nil {
		return nil, err
	}
	return &Frame{FormatString: n.spec.Raw, Args: args, spec: n.spec}, nil
}

func (d *siteDecoder) readScalar(a *Arg, p format.Parameter) error {
	switch p.Type {
	case format.CTU8, format.CTI8:
		if len(d.b[*d.off:]) < 1 {
			return wire.ErrShortBuffer
		}
		v := d.b[*d.off]
		*d.off++
		setInt(a, p.Type, uint64(v))
	case format.CTU16, format.CTI16:
		if len(d.b[*d.off:]) < 2 {
			return wire.ErrShortBuffer
		}
		v := wire.LittleEndian.Uint16(d.b[*d.off:])
		*d.off += 2
		setInt(a, p.Type, uint64(v))
	case format.CTU32, format.CTI32:
		if len(d.b[*d.off:]) < 4 {
			return wire.ErrShortBuffer
		}
		v := wire.LittleEndian.Uint32(d.b[*d.off:])
		*d.off += 4
		setInt(a, p.Type, uint64(v))
	case format.CTU64, format.CTI64:
		if len(d.b[*d.off:]) < 8 {
			return wire.ErrShortBuffer
		}
		v := wire.LittleEndian.Uint64(d.b[*d.off:])
		*d.off += 8
		setInt(a, p.Type, v)
	case format.CTU128, format.CTI128:
		if len(d.b[*d.off:]) < 16 {
			return wire.ErrShortBuffer
		}
		lo := wire.LittleEndian.Uint64(d.b[*d.off:])
		hi := wire.LittleEndian.Uint64(d.b[*d.off+8:])
		*d.off += 16
		a.IntLo, a.IntHi = lo, hi
		a.Signed = p.Type == format.CTI128
	case format.CTUsize, format.CTIsize:
		if len(d.b[*d.off:]) < 4 {
			return wire.ErrShortBuffer
		}
		v := wire.LittleEndian.Uint32(d.b[*d.off:])
		*d.off += 4
		setInt(a, p.Type, uint64(v))
	case format.CTF32:
		if len(d.b[*d.off:]) < 4 {
			return wire.ErrShortBuffer
		}
		bits := wire.LittleEndian.Uint32(d.b[*d.off:])
		*d.off += 4
		a.Float32 = math.Float32frombits(bits)
	case format.CTF64:
		if len(d.b[*d.off:]) < 8 {
			return wire.ErrShortBuffer
		}
		bits := wire.LittleEndian.Uint64(d.b[*d.off:])
		*d.off += 8
		a.Float64 = math.Float64frombits(bits)
	case format.CTStr:
		s, err := d.readLenPrefixed()
		if err != nil {
			return err
		}
		if !utf8.Valid(s) {
			return fmt.Errorf("decoder: invalid UTF-8 in str argument")
		}
		a.Str = string(s)
	case format.CTIstr:
		idx, n, err := wire.ReadVarint(d.b[*d.off:])
		if err != nil {
			return err
		}
		*d.off += n
		a.IstrIdx = idx
		if e, ok := d.table.ByIndex(idx); ok {
			a.IstrVal = e.Fmt
		}
	case format.CTByteSlice:
		s, err := d.readLenPrefixed()
		if err != nil {
			return err
		}
		a.Bytes = s
	case format.CTByteArray:
		if len(d.b[*d.off:]) < p.ArrayLen {
			return wire.ErrShortBuffer
		}
		a.Bytes = append([]byte(nil), d.b[*d.off:*d.off+p.ArrayLen]...)
		*d.off += p.ArrayLen
	default:
		return fmt.Errorf("decoder: unsupported capture type %v", p.Type)
	}
	return nil
}

func (d *siteDecoder) readLenPrefixed() ([]byte, error) {
	n, consumed, err := wire.ReadVarint(d.b[*d.off:])
	if err != nil {
		return nil, err
	}
	*d.off += consumed
	if uint64(len(d.b[*d.off:])) < n {
		return nil, wire.ErrShortBuffer
	}
	s := append([]byte(nil), d.b[*d.off:*d.off+int(n)]...)
	*d.off += int(n)
	return s, nil
}

func setInt(a *Arg, t format.CaptureType, v uint64) {
	a.IntLo = v
	switch t {
	case format.CTI8, format.CTI16, format.CTI32, format.CTI64, format.CTIsize:
		a.Signed = true
	}
}
