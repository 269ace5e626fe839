// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package id

import (
	"fmt"
	"strings"
)

// Level is a totally ordered log severity: Trace < Debug < Info < Warn < Error.
type Level uint8

// The five recognized levels, in ascending order.
const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

// String renders the level the way log lines display it: upper-case, no padding.
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("LEVEL(%d)", uint8(l))
}

// ParseLevel maps a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return Trace, nil
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return 0, fmt.Errorf("id: unknown level %q", s)
	}
}

// levelOrder lists every level in ascending order, used to walk per-level
// index ranges when a table is built.
var levelOrder = [...]Level{Trace, Debug, Info, Warn, Error}
