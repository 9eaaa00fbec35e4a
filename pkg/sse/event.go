// Package sse decodes streamed OpenAI-style chat-completion responses.
// It consumes the newline-delimited "data:" lines of an SSE body and turns
// them into an ordered, pull-based sequence of assistant text fragments.
//
// The package intentionally reads nothing beyond the "data:" field and the
// literal "[DONE]" sentinel: other SSE fields ("event:", "id:", comments,
// heartbeats) and malformed payloads are skipped, never treated as fatal.
// Upstream servers vary widely — local model runners in particular — and
// permissive payload handling is a deliberate compatibility contract.
package sse

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// doneSentinel is the literal payload marking server-side end of generation.
const doneSentinel = "[DONE]"

// dataPrefix is the exact six-byte field prefix a content-bearing line
// must carry. Lines without it (blank lines, "event:", "id:") are skipped.
var dataPrefix = []byte("data: ")

// Kind tags the outcome of classifying one wire line.
type Kind int

const (
	// Skip marks a line carrying nothing for the consumer: blank lines,
	// non-data SSE fields, invalid UTF-8, or unparseable payloads.
	Skip Kind = iota

	// Content marks a line carrying one assistant text fragment.
	Content

	// Done marks the end-of-generation sentinel.
	Done
)

// Event is the classification result for a single line. Text is set only
// for Content events.
type Event struct {
	Kind Kind
	Text string
}

// completionChunk mirrors the wire shape of one streaming chat-completion
// payload. Only the fields the decoder consumes are declared.
type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Classify decodes one newline-stripped line into an Event.
//
// A line yields Content only when it is valid UTF-8, starts with exactly
// "data: ", and its payload parses as a completion chunk whose first
// choice carries a non-empty delta.content. The trimmed payload "[DONE]"
// yields Done. Everything else yields Skip: encoding and payload faults
// are absorbed here rather than surfaced, so a single bad line can never
// abort the stream. Empty-string content deltas (role-only deltas,
// keep-alive chunks) are filtered rather than forwarded.
func Classify(line []byte) Event {
	if !utf8.Valid(line) {
		return Event{Kind: Skip}
	}

	payload, ok := bytes.CutPrefix(line, dataPrefix)
	if !ok {
		return Event{Kind: Skip}
	}
	payload = bytes.TrimSpace(payload)

	if string(payload) == doneSentinel {
		return Event{Kind: Done}
	}

	var chunk completionChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return Event{Kind: Skip}
	}
	if len(chunk.Choices) == 0 {
		return Event{Kind: Skip}
	}

	content := chunk.Choices[0].Delta.Content
	if content == "" {
		return Event{Kind: Skip}
	}

	return Event{Kind: Content, Text: content}
}
