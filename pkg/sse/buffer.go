package sse

import "bytes"

// frameBuffer accumulates raw transport bytes and carves them into
// newline-delimited lines. Chunks arrive with no alignment guarantee: one
// chunk may complete several lines, and one line may span several chunks.
// Whatever follows the last newline stays buffered until a later append
// completes it, so after every extraction pass the buffer holds at most
// one trailing partial line.
//
// The buffer grows without bound if the peer never emits a newline. That
// is an accepted resource risk of the wire format; capping it silently
// would corrupt the stream.
type frameBuffer struct {
	buf []byte
}

// append adds chunk bytes to the buffer. It cannot fail.
func (b *frameBuffer) append(chunk []byte) {
	b.buf = append(b.buf, chunk...)
}

// extractLines scans the buffer once and returns every complete line, in
// arrival order, with the newline delimiter stripped. Consumed bytes
// (including delimiters) are removed from the buffer. Returned lines are
// copies and stay valid across subsequent appends.
func (b *frameBuffer) extractLines() [][]byte {
	var lines [][]byte

	start := 0
	for {
		i := bytes.IndexByte(b.buf[start:], '\n')
		if i < 0 {
			break
		}
		line := make([]byte, i)
		copy(line, b.buf[start:start+i])
		lines = append(lines, line)
		start += i + 1
	}

	if start > 0 {
		b.buf = b.buf[:copy(b.buf, b.buf[start:])]
	}

	return lines
}

// len reports the number of unconsumed bytes currently buffered.
func (b *frameBuffer) len() int {
	return len(b.buf)
}
