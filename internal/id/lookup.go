// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package id

import "sync"

// LookupTable guards a *Table behind a RWMutex so a decode loop can keep
// reading while a filewatcher swaps in a freshly linked table underneath
// it. This mirrors the teacher's DecoderData.Lut/LutMutex pairing, which
// exists "to avoid concurrent map read and map write during map refresh
// triggered by filewatcher."
type LookupTable struct {
	mu sync.RWMutex
	t  *Table
}

// NewLookupTable wraps an already-built table.
func NewLookupTable(t *Table) *LookupTable {
	return &LookupTable{t: t}
}

// Current returns the table currently in effect.
func (l *LookupTable) Current() *Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.t
}

// Swap installs a new table, replacing whatever was current.
func (l *LookupTable) Swap(t *Table) {
	l.mu.Lock()
	l.t = t
	l.mu.Unlock()
}
