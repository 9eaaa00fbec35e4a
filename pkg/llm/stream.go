package llm

import (
	"io"

	"github.com/quillhq/quill/pkg/sse"
)

// Stream is one live streaming chat completion. It owns the response body
// and serves a single consumer; fragments arrive in server emission order
// and concatenate to the full assistant message.
type Stream struct {
	dec    *sse.Decoder
	body   io.ReadCloser
	closed bool
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{
		dec:  sse.NewDecoder(body),
		body: body,
	}
}

// Recv returns the next text fragment. io.EOF reports graceful end of the
// stream; any other error is a transport fault, reported exactly once.
func (s *Stream) Recv() (string, error) {
	return s.dec.Next()
}

// Close releases the underlying connection. It must be called even when
// iteration is abandoned early, so no further network reads occur; closing
// an already-closed stream is a no-op.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
