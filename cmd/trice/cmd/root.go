// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

// Package cmd wires trice's cobra command tree: persistent flags for the
// symbol table, transport, and framing, bound through viper so they can
// come from a flag, a TRICE_-prefixed environment variable, or a config
// file, in that precedence order.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Log is the package-wide structured logger every subcommand reports
// operational events through (malformed frames, table reloads, startup).
var Log = logrus.New()

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "trice",
	Short: "Decode deferred-formatting log frames from an embedded target",
	Long: `trice reads the compact, symbol-table-indexed log frames a
resource-constrained target emits and renders them as readable text on the
host, without the format strings or argument names ever shipping to the
target's firmware image.`,
	SilenceUsage: true,
}

// Execute runs the command tree; main translates a non-nil error into a
// process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.trice.yaml)")
	rootCmd.PersistentFlags().String("table", "til.json", "path to the symbol table JSON file")
	rootCmd.PersistentFlags().String("port", "", "transport to read frames from (file path, or \"-\" for stdin)")
	rootCmd.PersistentFlags().String("framing", "rzcobs", "frame encoding: \"raw\" or \"rzcobs\"")
	rootCmd.PersistentFlags().Bool("location", false, "include file:line in rendered output, when available")

	for _, name := range []string{"table", "port", "framing", "location"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			Log.WithError(err).Fatal("bind flag")
		}
	}

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(tablecheckCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".trice")
	}

	viper.SetEnvPrefix("TRICE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		Log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

func exitf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Log.Error(err)
	return err
}
