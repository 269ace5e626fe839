// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

// Package assert2 offers golden-text comparison helpers on top of testify,
// line-ending-tolerant where decode output is compared against a checked-in
// expectation file (CI may check those out with CRLF on Windows).
package assert2

import (
	"io/ioutil"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Equal is testify's assert.Equal, re-exported so callers only need to
// import this one package for trice's golden-comparison style.
func Equal(t *testing.T, expected, actual interface{}, msgAndArgs ...interface{}) bool {
	t.Helper()
	return assert.Equal(t, expected, actual, msgAndArgs...)
}

// EqualLines compares exp and act after normalizing CRLF to LF in both, so a
// checked-out-with-different-line-endings golden file still matches.
func EqualLines(t *testing.T, exp, act string) bool {
	t.Helper()
	return assert.Equal(t, normalizeLines(exp), normalizeLines(act))
}

// EqualTextFiles reads both files and compares their contents via
// EqualLines.
func EqualTextFiles(t *testing.T, expFile, actFile string) bool {
	t.Helper()
	exp, err := ioutil.ReadFile(expFile)
	if !assert.Nil(t, err) {
		return false
	}
	act, err := ioutil.ReadFile(actFile)
	if !assert.Nil(t, err) {
		return false
	}
	return EqualLines(t, string(exp), string(act))
}

// EqualFiles compares two files byte for byte, with no line-ending
// normalization; use this for binaries or wire captures where a stray \r\n
// rewrite would be a false match.
func EqualFiles(t *testing.T, expFile, actFile string) bool {
	t.Helper()
	exp, err := ioutil.ReadFile(expFile)
	if !assert.Nil(t, err) {
		return false
	}
	act, err := ioutil.ReadFile(actFile)
	if !assert.Nil(t, err) {
		return false
	}
	return assert.Equal(t, exp, act)
}

func normalizeLines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
