// Package llm is a minimal client for OpenAI-compatible chat-completion
// endpoints. It builds the streaming request, validates the response
// status, and hands the body to the sse decoder; it performs no retries
// and interprets nothing beyond the completion deltas.
package llm

// Conversation roles in the chat-completions wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn sent to the completions endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body for /chat/completions. Stream is always
// true for requests issued through Client.StreamChat.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// UserMessage builds a single-turn user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}
