// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package decoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wiretrace/trice/internal/format"
)

// Display renders f as a plain UTF-8 string: literal segments verbatim,
// each parameter substituted with its argument rendered per that
// occurrence's hint. u128 and i128 arguments ignore the hint and always
// render in decimal. withLocation is accepted for interface parity with
// the spec's public surface; file/line location comes from an external
// collaborator (the ELF symbol harvester) this core does not implement, so
// it is a no-op here.
func (f Frame) Display(withLocation bool) string {
	spec := f.spec
	if spec == nil {
		var err error
		spec, err = format.Parse(f.FormatString)
		if err != nil {
			return fmt.Sprintf("<bad format string %q: %v>", f.FormatString, err)
		}
	}

	var sb strings.Builder
	if f.Level != nil {
		sb.WriteString(f.Level.String())
		sb.WriteByte(' ')
	}
	for _, tok := range spec.Tokens {
		if !tok.IsParam {
			sb.WriteString(tok.Literal)
			continue
		}
		renderArg(&sb, f.Args[tok.Param.Position], tok.Param.Hint)
	}
	return sb.String()
}

// TimestampValue extracts the first decoded argument of the timestamp
// sub-frame as a monotonic u64, the shape spec.md section 4.H specifies.
// It returns (0, false) if the frame carries no timestamp.
func (f Frame) TimestampValue() (uint64, bool) {
	if f.Timestamp == nil || len(f.Timestamp.Args) == 0 {
		return 0, false
	}
	return f.Timestamp.Args[0].IntLo, true
}

func renderArg(sb *strings.Builder, a Arg, h format.Hint) {
	switch a.Type {
	case format.CTBool:
		sb.WriteString(strconv.FormatBool(a.Bool))
	case format.CTU8, format.CTU16, format.CTU32, format.CTU64, format.CTUsize:
		renderUint(sb, a.IntLo, h, bitWidth(a.Type))
	case format.CTI8, format.CTI16, format.CTI32, format.CTI64, format.CTIsize:
		renderInt(sb, a.IntLo, h, bitWidth(a.Type))
	case format.CTU128:
		sb.WriteString(renderU128(a.IntHi, a.IntLo, h))
	case format.CTI128:
		sb.WriteString(renderI128(a.IntHi, a.IntLo, h))
	case format.CTF32:
		// Fixed-point, never scientific notation: 1.1e-10 renders as
		// "0.00000000011", not "1.1e-10".
		sb.WriteString(strconv.FormatFloat(float64(a.Float32), 'f', -1, 32))
	case format.CTF64:
		sb.WriteString(strconv.FormatFloat(a.Float64, 'f', -1, 64))
	case format.CTStr:
		sb.WriteString(a.Str)
	case format.CTIstr:
		if a.IstrVal != "" {
			sb.WriteString(a.IstrVal)
		} else {
			fmt.Fprintf(sb, "<istr#%d>", a.IstrIdx)
		}
	case format.CTByteSlice, format.CTByteArray:
		if h.Code == 'a' {
			sb.WriteString(renderASCII(a.Bytes))
		} else {
			sb.WriteString(renderHexBytes(a.Bytes))
		}
	case format.CTNone:
		if a.Nested != nil {
			sb.WriteString(a.Nested.Display(false))
		}
	}
}

func bitWidth(t format.CaptureType) int {
	switch t {
	case format.CTU8, format.CTI8:
		return 8
	case format.CTU16, format.CTI16:
		return 16
	case format.CTU32, format.CTI32, format.CTUsize, format.CTIsize:
		return 32
	case format.CTU64, format.CTI64:
		return 64
	default:
		return 64
	}
}

func renderUint(sb *strings.Builder, v uint64, h format.Hint, width int) {
	mask := uint64(1)<<uint(width) - 1
	if width == 64 {
		mask = ^uint64(0)
	}
	v &= mask
	base, digits := hintBase(h, width)
	s := strconv.FormatUint(v, base)
	sb.WriteString(padHint(s, h, digits))
}

func renderInt(sb *strings.Builder, bits uint64, h format.Hint, width int) {
	if h.Code == 'b' || h.Code == 'o' || h.Code == 'x' || h.Code == 'X' {
		renderUint(sb, bits, h, width)
		return
	}
	v := signExtend(bits, width)
	sb.WriteString(strconv.FormatInt(v, 10))
}

func signExtend(bits uint64, width int) int64 {
	if width >= 64 {
		return int64(bits)
	}
	shift := uint(64 - width)
	return int64(bits<<shift) >> shift
}

func hintBase(h format.Hint, width int) (int, int) {
	switch h.Code {
	case 'b':
		return 2, width
	case 'o':
		return 8, (width + 2) / 3
	case 'x':
		return 16, width / 4
	case 'X':
		return 16, width / 4
	default:
		return 10, 0
	}
}

func padHint(s string, h format.Hint, natural int) string {
	if h.Code == 'X' {
		s = strings.ToUpper(s)
	}
	width := h.Width
	if width == 0 && h.ZeroPad {
		width = natural
	}
	if h.ZeroPad && len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// renderI128 renders a two's-complement 128-bit value, sign-extending from
// IntHi's top bit the way renderInt does for the narrower signed widths.
func renderI128(hi, lo uint64, h format.Hint) string {
	if hi>>63 == 0 {
		return renderU128(hi, lo, h)
	}
	negHi, negLo := negate128(hi, lo)
	return "-" + renderU128(negHi, negLo, h)
}

// negate128 computes the two's-complement negation of the 128-bit pair
// (hi, lo): bitwise-complement both halves, then add one with the carry
// from the low half propagated into the high half.
func negate128(hi, lo uint64) (negHi, negLo uint64) {
	negLo = ^lo + 1
	var carry uint64
	if lo == 0 {
		carry = 1
	}
	negHi = ^hi + carry
	return
}

func renderU128(hi, lo uint64, h format.Hint) string {
	// Render as decimal via simple big-endian-free base conversion; 128-bit
	// values are rare enough in embedded logs that a dependency-free
	// textbook divide loop is clearer than pulling in math/big here.
	if hi == 0 {
		return strconv.FormatUint(lo, 10)
	}
	digits := []byte{}
	hiRem, loRem := hi, lo
	for hiRem != 0 || loRem != 0 {
		var rem uint64
		hiRem, loRem, rem = divmod128by10(hiRem, loRem)
		digits = append(digits, byte('0'+rem))
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

func divmod128by10(hi, lo uint64) (qhi, qlo, rem uint64) {
	const base = 10
	rem = hi % base
	qhi = hi / base
	// long division of lo by base with the remainder carried from hi
	qlo, rem = divmod64WithCarry(lo, base, rem)
	return
}

func divmod64WithCarry(lo uint64, base uint64, carry uint64) (q, rem uint64) {
	// Process lo 32 bits at a time so carry*2^32 + hi32 never overflows.
	hi32 := lo >> 32
	lo32 := lo & 0xffffffff
	t := carry<<32 | hi32
	qh := t / base
	rh := t % base
	t2 := rh<<32 | lo32
	ql := t2 / base
	rl := t2 % base
	return qh<<32 | ql, rl
}

func renderASCII(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 && c < 0x7f {
			sb.WriteByte(c)
		} else {
			fmt.Fprintf(&sb, `\x%02X`, c)
		}
	}
	return sb.String()
}

func renderHexBytes(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", c)
	}
	return sb.String()
}
