// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wiretrace/trice/internal/decoder"
	"github.com/wiretrace/trice/internal/id"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a frame stream from the configured transport and print the rendered log lines",
	RunE:  runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	tablePath := viper.GetString("table")
	port := viper.GetString("port")
	framing := viper.GetString("framing")
	withLocation := viper.GetBool("location")

	if port == "" {
		return exitf("decode: no transport configured, set --port")
	}

	lut, closeWatch, err := id.WatchTable(tablePath, Log)
	if err != nil {
		return exitf("decode: loading symbol table %s: %v", tablePath, err)
	}
	defer closeWatch()

	var stream decoder.StreamDecoder
	switch framing {
	case "raw":
		stream = decoder.NewRaw(lut)
	case "rzcobs":
		stream = decoder.NewRzcobs(lut)
	default:
		return exitf("decode: unknown framing %q, want \"raw\" or \"rzcobs\"", framing)
	}

	src, closeSrc, err := openTransport(port)
	if err != nil {
		return exitf("decode: opening transport %s: %v", port, err)
	}
	defer closeSrc()

	return decodeLoop(cmd.OutOrStdout(), src, stream, withLocation)
}

func openTransport(port string) (io.Reader, func() error, error) {
	if port == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(port)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func decodeLoop(out io.Writer, src io.Reader, stream decoder.StreamDecoder, withLocation bool) error {
	buf := make([]byte, 4096)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			stream.Received(buf[:n])
			if err := drainFrames(out, stream, withLocation); err != nil {
				return err
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return exitf("decode: reading transport: %v", readErr)
		}
	}
}

// drainFrames decodes every complete frame currently buffered. A malformed
// frame under a delimited framing (Rzcobs) is logged and skipped, since the
// stream decoder already discarded the bytes up to and including the next
// delimiter and can resynchronize on the next frame; under Raw framing
// there is no delimiter to resynchronize on, so a malformed frame is
// treated as fatal for this transport.
func drainFrames(out io.Writer, stream decoder.StreamDecoder, withLocation bool) error {
	for {
		f, err := stream.Decode()
		if err != nil {
			if errors.Is(err, decoder.ErrNeedMore) {
				return nil
			}
			if _, raw := stream.(*decoder.Raw); raw {
				return exitf("decode: malformed frame, cannot resynchronize under raw framing: %w", err)
			}
			Log.WithError(err).Warn("dropping malformed frame")
			continue
		}
		fmt.Fprintln(out, f.Display(withLocation))
	}
}
