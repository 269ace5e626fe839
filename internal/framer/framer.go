// Copyright 2020 Thomas.Hoehenleitner [at] seerose.net
// Use of this source code is governed by a license that can be found in the LICENSE file.

// Package framer provides the encode-side counterpart to the two framings
// internal/decoder reads: Raw (length-implicit, no delimiter) and Rzcobs
// (0x00-delimited reverse-COBS). See spec section 4.D.
package framer

import (
	"io"

	"github.com/wiretrace/trice/internal/wire"
)

// FrameWriter is opened once per log call (spec section 4.C steps 2/7:
// "Open a frame" / "Close a frame") and receives one frame's raw bytes.
// Raw passes them to the transport as they are written; Rzcobs buffers
// them until Close finalizes and flushes the frame.
type FrameWriter interface {
	io.Writer
	// Close finalizes the frame (stuffing and delimiting it, if the
	// framing requires that) and flushes it to the transport this
	// FrameWriter was opened against. A FrameWriter must not be reused
	// after Close.
	Close() error
}

// Raw frames are self-delimiting by the format schema alone: bytes are
// written straight through to the transport as they're produced.
type Raw struct {
	w io.Writer
}

// OpenRaw begins a Raw-framed log call against transport w.
func OpenRaw(w io.Writer) *Raw { return &Raw{w: w} }

// Write implements io.Writer.
func (r *Raw) Write(p []byte) (int, error) { return r.w.Write(p) }

// Close is a no-op for Raw framing: there is no delimiter or stuffing to
// finalize.
func (r *Raw) Close() error { return nil }

// Rzcobs frames are 0x00-delimited and may not contain a zero byte. Since
// wire.RzcobsStuff needs the whole frame's bytes to apply its reversed-COBS
// transform, an Rzcobs FrameWriter buffers everything written to it and
// only touches the transport on Close.
type Rzcobs struct {
	w   io.Writer
	buf []byte
}

// OpenRzcobs begins an Rzcobs-framed log call against transport w.
func OpenRzcobs(w io.Writer) *Rzcobs { return &Rzcobs{w: w} }

// Write buffers p for stuffing at Close.
func (r *Rzcobs) Write(p []byte) (int, error) {
	r.buf = append(r.buf, p...)
	return len(p), nil
}

// Close stuffs the buffered frame bytes and writes them followed by the
// 0x00 delimiter.
func (r *Rzcobs) Close() error {
	stuffed := wire.RzcobsStuff(r.buf)
	if _, err := r.w.Write(stuffed); err != nil {
		return err
	}
	_, err := r.w.Write([]byte{0})
	return err
}
