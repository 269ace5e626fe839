// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

// Command trice is the host-side companion to a deferred-formatting
// embedded logger: it decodes the compact wire frames a target emits back
// into readable log lines against a symbol table produced at link time.
package main

import (
	"os"

	"github.com/wiretrace/trice/cmd/trice/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
