// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package id

import (
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// WatchTable loads path once, then watches it for writes and reloads it
// into the returned LookupTable on every change. Reload failures are
// logged and leave the previously loaded table in effect, so a firmware
// relink that briefly leaves the table file truncated never makes an
// in-progress decode session lose its table.
func WatchTable(path string, log *logrus.Logger) (*LookupTable, func() error, error) {
	t, err := loadTableFile(path)
	if err != nil {
		return nil, nil, err
	}
	lut := NewLookupTable(t)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				nt, err := loadTableFile(path)
				if err != nil {
					log.WithError(err).WithField("path", path).Warn("symbol table reload failed, keeping previous table")
					continue
				}
				lut.Swap(nt)
				log.WithField("path", path).Info("symbol table reloaded")
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("symbol table watcher error")
			}
		}
	}()

	return lut, w.Close, nil
}

func loadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadTable(f)
}
