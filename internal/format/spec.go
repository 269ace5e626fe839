// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

// Package format recognizes the `{ ["="] [index] [":" hint] }` parameter
// grammar described in spec section 4.A: literal text interleaved with
// capture-typed or polymorphic parameters, doubled braces as escapes, and
// optional positional reuse of an earlier slot.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CaptureType enumerates the capture types recognized after a leading '='.
// CTNone means the parameter is polymorphic (no '=' was present).
type CaptureType int

// The recognized capture types, matching spec.md section 3 exactly.
const (
	CTNone CaptureType = iota
	CTBool
	CTU8
	CTU16
	CTU32
	CTU64
	CTU128
	CTUsize
	CTI8
	CTI16
	CTI32
	CTI64
	CTI128
	CTIsize
	CTF32
	CTF64
	CTStr
	CTIstr
	CTByteSlice // [u8]
	CTByteArray // [u8; N], ArrayLen on the Parameter holds N
)

func (c CaptureType) String() string {
	switch c {
	case CTNone:
		return "?"
	case CTBool:
		return "bool"
	case CTU8:
		return "u8"
	case CTU16:
		return "u16"
	case CTU32:
		return "u32"
	case CTU64:
		return "u64"
	case CTU128:
		return "u128"
	case CTUsize:
		return "usize"
	case CTI8:
		return "i8"
	case CTI16:
		return "i16"
	case CTI32:
		return "i32"
	case CTI64:
		return "i64"
	case CTI128:
		return "i128"
	case CTIsize:
		return "isize"
	case CTF32:
		return "f32"
	case CTF64:
		return "f64"
	case CTStr:
		return "str"
	case CTIstr:
		return "istr"
	case CTByteSlice:
		return "[u8]"
	case CTByteArray:
		return "[u8;N]"
	default:
		return "invalid"
	}
}

// namedTypes lists every capture type by its spelling, longest names first
// so greedy matching on "=u80" resolves to type "u8" + position "0" rather
// than failing to find a type named "u80".
var namedTypes = []struct {
	name string
	ct   CaptureType
}{
	{"usize", CTUsize},
	{"isize", CTIsize},
	{"u128", CTU128},
	{"i128", CTI128},
	{"bool", CTBool},
	{"istr", CTIstr},
	{"u16", CTU16},
	{"u32", CTU32},
	{"u64", CTU64},
	{"i16", CTI16},
	{"i32", CTI32},
	{"i64", CTI64},
	{"f32", CTF32},
	{"f64", CTF64},
	{"str", CTStr},
	{"u8", CTU8},
	{"i8", CTI8},
}

var byteArrayPat = regexp.MustCompile(`^\[u8;([0-9]+)\]`)
var byteSlicePat = regexp.MustCompile(`^\[u8\]`)

// Hint controls display: a base selector for integers, 'a' for ASCII-escaped
// byte slices, '?' for recursive polymorphic display, plus an optional
// zero-padded width ("08x"-style).
type Hint struct {
	Code    byte // 0 if no hint; one of 'b','o','x','X','?','a'
	Width   int
	ZeroPad bool
}

// None reports whether no hint was given.
func (h Hint) None() bool { return h.Code == 0 }

// Parameter is one `{...}` placeholder, resolved against the slots declared
// so far in the same format string.
type Parameter struct {
	Position  int
	Type      CaptureType
	ArrayLen  int  // valid when Type == CTByteArray
	Reuse     bool // true: this occurrence consumes no new wire bytes
	Redeclare bool // true: this occurrence carried its own "=type", checked against the slot
	Hint      Hint

	hasExplicitPosition bool // set during parseParam, consumed by resolvePosition
}

// Token is either a Literal or a Parameter placeholder.
type Token struct {
	Literal string     // valid when IsParam is false
	Param   Parameter  // valid when IsParam is true
	IsParam bool
}

// Spec is a parsed format string: its token sequence plus the type each
// positional slot resolved to, in position order.
type Spec struct {
	Raw    string
	Tokens []Token
	Slots  []CaptureType // Slots[p] is the capture type (CTNone = polymorphic) for position p
}

// Sentinel errors, matching spec.md section 4.A's error list.
var (
	ErrUnbalancedBraces  = errors.New("format: unbalanced braces")
	ErrUnknownType       = errors.New("format: unknown type name")
	ErrUnknownHint       = errors.New("format: unknown hint")
	ErrMissingCaptureType = errors.New("format: capture-type parameter without a name")
	ErrPositionMismatch  = errors.New("format: position refers to a slot with a different captured type")
)

// Parse splits s into literal and parameter tokens, resolving every
// position's capture type as it goes.
func Parse(s string) (*Spec, error) {
	sp := &Spec{Raw: s}
	declared := map[int]Parameter{}
	nextSeq := 0

	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			sp.Tokens = append(sp.Tokens, Token{Literal: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: at byte %d", ErrUnbalancedBraces, i)
			}
			body := s[i+1 : i+1+end]
			flushLit()
			p, err := parseParam(body)
			if err != nil {
				return nil, err
			}
			if err := resolvePosition(&p, declared, &nextSeq); err != nil {
				return nil, err
			}
			sp.Tokens = append(sp.Tokens, Token{IsParam: true, Param: p})
			i += 1 + end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, fmt.Errorf("%w: stray '}' at byte %d", ErrUnbalancedBraces, i)
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flushLit()

	sp.Slots = make([]CaptureType, nextSeq)
	for pos, p := range declared {
		if pos < len(sp.Slots) {
			sp.Slots[pos] = p.Type
		}
	}
	return sp, nil
}

// parseParam parses the content between '{' and '}' (exclusive) into a
// Parameter, not yet resolved against previously declared positions.
func parseParam(body string) (Parameter, error) {
	var p Parameter
	explicit := strings.HasPrefix(body, "=")
	rest := body
	if explicit {
		rest = rest[1:]
	}

	head, hintStr, hasHint := strings.Cut(rest, ":")

	if explicit {
		ct, arrLen, remainder, err := matchType(head)
		if err != nil {
			return p, err
		}
		p.Type = ct
		p.ArrayLen = arrLen
		p.Redeclare = true
		if remainder != "" {
			pos, err := strconv.Atoi(remainder)
			if err != nil {
				return p, fmt.Errorf("%w: %q", ErrUnknownType, head)
			}
			p.Position = pos
			p.hasExplicitPosition = true
		}
	} else {
		p.Type = CTNone
		if head != "" {
			pos, err := strconv.Atoi(head)
			if err != nil {
				return p, fmt.Errorf("%w: %q", ErrUnknownType, head)
			}
			p.Position = pos
			p.hasExplicitPosition = true
		}
	}

	if hasHint {
		h, err := parseHint(hintStr)
		if err != nil {
			return p, err
		}
		p.Hint = h
	}
	return p, nil
}

// matchType greedily matches the longest known type name (including the
// bracketed slice/array forms) at the front of s, returning the remaining
// suffix (expected to be empty or decimal digits naming a position).
func matchType(s string) (CaptureType, int, string, error) {
	if s == "" {
		return 0, 0, "", ErrMissingCaptureType
	}
	if m := byteArrayPat.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return CTByteArray, n, s[len(m[0]):], nil
	}
	if byteSlicePat.MatchString(s) {
		return CTByteSlice, 0, s[len("[u8]"):], nil
	}
	for _, nt := range namedTypes {
		if strings.HasPrefix(s, nt.name) {
			return nt.ct, 0, s[len(nt.name):], nil
		}
	}
	return 0, 0, "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

var hintCodes = "boxX?a"

func parseHint(s string) (Hint, error) {
	if s == "" {
		return Hint{}, nil
	}
	code := s[len(s)-1]
	if !strings.ContainsRune(hintCodes, rune(code)) {
		return Hint{}, fmt.Errorf("%w: %q", ErrUnknownHint, s)
	}
	widthStr := s[:len(s)-1]
	h := Hint{Code: code}
	if widthStr != "" {
		w, err := strconv.Atoi(widthStr)
		if err != nil {
			return Hint{}, fmt.Errorf("%w: %q", ErrUnknownHint, s)
		}
		h.Width = w
		h.ZeroPad = widthStr[0] == '0'
	}
	return h, nil
}

// resolvePosition assigns p's Position (if not already explicit) and
// checks/records it against declared, enforcing that a reused position
// keeps the same captured type.
func resolvePosition(p *Parameter, declared map[int]Parameter, nextSeq *int) error {
	if !p.hasExplicitPosition {
		p.Position = *nextSeq
		*nextSeq++
		declared[p.Position] = *p
		return nil
	}
	if *nextSeq <= p.Position {
		*nextSeq = p.Position + 1
	}
	prior, ok := declared[p.Position]
	if !ok {
		declared[p.Position] = *p
		return nil
	}
	if p.Redeclare {
		if p.Type != prior.Type || p.ArrayLen != prior.ArrayLen {
			return fmt.Errorf("%w: position %d", ErrPositionMismatch, p.Position)
		}
	} else {
		p.Type = prior.Type
		p.ArrayLen = prior.ArrayLen
	}
	p.Reuse = true
	return nil
}
