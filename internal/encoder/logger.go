// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

// Package encoder is the device-side counterpart to internal/decoder: it
// turns a log site's already-evaluated arguments into the same byte layout
// internal/decoder reads back, per spec section 4.C.
package encoder

import (
	"sync"
	"sync/atomic"
)

// Logger is the single-owner capability spec section 4.C step 1 describes:
// at most one caller may hold a Session at a time, so one log call's bytes
// can never interleave with another's on a shared transport. Acquire does
// not block; a contending caller is expected to either be gated out by
// whatever serializes log call sites on the real target (interrupt masking,
// a scheduler lock) or to drop its frame, matching the spec's "or drop the
// attempt" wording.
type Logger struct {
	held   atomic.Bool
	tsOnce sync.Once
	ts     TimestampFunc
}

// TimestampFunc produces the current monotonic timestamp value. It is
// installed once via SetTimestamp and, per spec section 4.H, is expected to
// never go backwards within one encoder's lifetime.
type TimestampFunc func() uint64

// NewLogger constructs a Logger with no timestamp source installed.
func NewLogger() *Logger { return &Logger{} }

var global = NewLogger()

// Global returns the process-wide Logger singleton, the usual way a
// generated log call site would reach the encoder.
func Global() *Logger { return global }

// SetTimestamp installs f as l's timestamp source. It is a no-op after the
// first call on a given Logger: spec section 4.H treats the timestamp
// function as installed once at link time, never replaced.
func (l *Logger) SetTimestamp(f TimestampFunc) {
	l.tsOnce.Do(func() { l.ts = f })
}

// SetTimestamp installs f as the global Logger's timestamp source.
func SetTimestamp(f TimestampFunc) {
	global.SetTimestamp(f)
}

// Session is the capability returned by Acquire: the only handle through
// which Encode may be called until Release.
type Session struct {
	l *Logger
}

// Acquire takes the single-owner capability, returning ok=false if another
// Session already holds it.
func (l *Logger) Acquire() (*Session, bool) {
	if !l.held.CompareAndSwap(false, true) {
		return nil, false
	}
	return &Session{l: l}, true
}

// Release gives the capability back. Calling Encode on a Session after
// Release is a programming error; Release itself is idempotent-safe to call
// at most once per Acquire.
func (s *Session) Release() {
	s.l.held.Store(false)
}
