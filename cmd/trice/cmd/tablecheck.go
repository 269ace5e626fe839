// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wiretrace/trice/internal/id"
)

var tablecheckCmd = &cobra.Command{
	Use:   "tablecheck",
	Short: "Validate a symbol table file's invariants without decoding anything",
	Long: `tablecheck loads the configured symbol table and reports whether it
parses: per-level log-site indices must form a contiguous range and at most
one timestamp entry may exist. Both are enforced by the loader itself;
tablecheck exists so a build pipeline can fail fast on a broken table
before ever wiring up a transport.`,
	RunE: runTablecheck,
}

func runTablecheck(cmd *cobra.Command, args []string) error {
	tablePath := viper.GetString("table")

	f, err := os.Open(tablePath)
	if err != nil {
		return exitf("tablecheck: %v", err)
	}
	defer f.Close()

	tbl, err := id.LoadTable(f)
	if err != nil {
		return exitf("tablecheck: %s: %v", tablePath, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: OK\n", tablePath)
	for _, l := range []id.Level{id.Trace, id.Debug, id.Info, id.Warn, id.Error} {
		lo, hi := tbl.LevelRange(l)
		if hi > lo {
			fmt.Fprintf(out, "  %-5s indices [%d, %d)\n", l, lo, hi)
		}
	}
	if e, ok := tbl.Timestamp(); ok {
		fmt.Fprintf(out, "  timestamp format %q\n", e.Fmt)
	}
	return nil
}
