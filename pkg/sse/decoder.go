package sse

import (
	"errors"
	"fmt"
	"io"
)

// readChunkSize is the transport pull size. Line boundaries do not align
// with it; the frameBuffer handles re-assembly.
const readChunkSize = 4096

// Decoder turns a streamed chat-completion body into an ordered sequence
// of text fragments. It is strictly pull-based: the transport is read only
// when no already-classified line remains, and no decoding happens outside
// a Next call. Concatenating the fragments in the order Next returns them
// reconstructs the full assistant message.
//
// A Decoder serves a single consumer and is consumed exactly once; it is
// not safe for concurrent Next calls and cannot be restarted. It does not
// own the transport: the caller closes the response body, which is also
// how an abandoned stream releases its connection.
type Decoder struct {
	src     io.Reader
	buf     frameBuffer
	queued  []Event
	readBuf []byte

	doneSeen bool
	finished bool
	err      error
}

// NewDecoder creates a Decoder reading from src. The src must be the body
// of a response already validated as successful by the caller; the Decoder
// never inspects HTTP status.
func NewDecoder(src io.Reader) *Decoder {
	return &Decoder{
		src:     src,
		readBuf: make([]byte, readChunkSize),
	}
}

// Next returns the next content fragment in server emission order.
//
// io.EOF reports graceful end of stream, whether the "[DONE]" sentinel was
// seen or the transport simply ended without one. A transport fault is
// returned exactly once; every call after that returns io.EOF. Fragments
// already decoded before a fault are delivered before the fault itself.
func (d *Decoder) Next() (string, error) {
	for {
		// Drain classified lines before touching the transport. A [DONE]
		// seen here does not discard content queued behind it: the whole
		// batch was classified when its chunk arrived, and queued content
		// is always delivered.
		for len(d.queued) > 0 {
			ev := d.queued[0]
			d.queued = d.queued[1:]
			switch ev.Kind {
			case Content:
				return ev.Text, nil
			case Done:
				d.doneSeen = true
			}
		}

		if d.err != nil {
			err := d.err
			d.err = nil
			d.finished = true
			return "", err
		}
		if d.doneSeen || d.finished {
			return "", io.EOF
		}

		d.fill()
	}
}

// fill pulls one chunk from the transport, classifies every line the
// chunk completes, and records stream end or a transport fault. Skip
// results never reach the queue.
func (d *Decoder) fill() {
	n, err := d.src.Read(d.readBuf)
	if n > 0 {
		d.buf.append(d.readBuf[:n])
		for _, line := range d.buf.extractLines() {
			if ev := Classify(line); ev.Kind != Skip {
				d.queued = append(d.queued, ev)
			}
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		// End of transport without a sentinel is a graceful end, not an
		// error. A trailing partial line is dropped by construction: it
		// was never newline-terminated, so it was never a complete line.
		d.finished = true
	default:
		d.err = fmt.Errorf("reading stream: %w", err)
	}
}
