// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package wire

import "errors"

// ErrCobsMalformed is returned by RzcobsUnstuff when the stuffed byte
// sequence does not have valid run-length structure.
var ErrCobsMalformed = errors.New("wire: malformed rzcobs run")

// RzcobsStuff transforms an arbitrary byte slice (which may itself contain
// zero bytes) into a zero-free encoding suitable for 0x00-delimited
// framing: appending a single 0x00 after the result is always safe. It
// applies the classic Consistent Overhead Byte Stuffing algorithm to the
// reversed byte order, which is what makes this the "reverse" variant: the
// run markers fall at the opposite end of each run compared to forward
// COBS applied directly to p.
func RzcobsStuff(p []byte) []byte {
	return reversed(cobsEncode(reversed(p)))
}

// RzcobsUnstuff inverts RzcobsStuff. It reports ErrCobsMalformed if s does
// not decode to a valid run structure.
func RzcobsUnstuff(s []byte) ([]byte, error) {
	out, err := cobsDecode(reversed(s))
	if err != nil {
		return nil, err
	}
	return reversed(out), nil
}

func reversed(p []byte) []byte {
	out := make([]byte, len(p))
	for i, b := range p {
		out[len(p)-1-i] = b
	}
	return out
}

// cobsEncode is the textbook Consistent Overhead Byte Stuffing encoder: it
// replaces every zero byte in data with a count of how many bytes follow
// until the next zero (or the end of data), so the result never contains a
// zero byte.
func cobsEncode(data []byte) []byte {
	out := make([]byte, 1, len(data)+len(data)/254+2)
	codeIdx := 0
	code := byte(1)
	for _, b := range data {
		if b == 0 {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return out
}

// cobsDecode inverts cobsEncode, reporting ErrCobsMalformed if a run's
// declared length overruns the buffer or a zero code byte is encountered.
func cobsDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		code := data[i]
		if code == 0 {
			return nil, ErrCobsMalformed
		}
		i++
		end := i + int(code) - 1
		if end > len(data) {
			return nil, ErrCobsMalformed
		}
		out = append(out, data[i:end]...)
		i = end
		if code < 0xFF && i < len(data) {
			out = append(out, 0)
		}
	}
	return out, nil
}
