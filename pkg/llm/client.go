package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const chatCompletionsPath = "/chat/completions"

// maxErrorBody bounds how much of an error response is read for the
// error message.
const maxErrorBody = 4096

// Client talks to a single OpenAI-compatible chat-completions endpoint.
// It is safe for concurrent use; each StreamChat call produces an
// independent Stream.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a client for the given base URL (e.g.
// "https://api.openai.com/v1" or a local model server). An empty apiKey
// omits the Authorization header, which local servers typically accept.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			// LLM responses can be slow
			Timeout: 5 * time.Minute,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// StreamChat issues a streaming chat completion and returns a Stream of
// assistant text fragments. Non-success statuses are rejected here, before
// the body ever reaches the decoder. Cancelling ctx aborts the request and
// any in-flight stream reads; the caller must Close the returned Stream.
func (c *Client) StreamChat(ctx context.Context, model string, messages []Message) (*Stream, error) {
	payload, err := json.Marshal(ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	url := c.baseURL + chatCompletionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending chat request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, fmt.Errorf("chat request failed with status %d: %s",
			resp.StatusCode, bytes.TrimSpace(errBody))
	}

	return newStream(resp.Body), nil
}
