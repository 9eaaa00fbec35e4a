package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/quillhq/quill/pkg/config"
	"github.com/quillhq/quill/pkg/llm"
)

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	// Text is the captured or typed text to ask about.
	Text string `json:"text"`
	// Template selects a canned prompt by id; empty asks the text as-is.
	Template string `json:"template,omitempty"`
	// Model overrides the selected model by display name.
	Model string `json:"model,omitempty"`
}

// ModelInfo is one entry of GET /v1/models. API keys never leave the daemon.
type ModelInfo struct {
	Name           string `json:"name"`
	ModelName      string `json:"model_name"`
	SupportsVision bool   `json:"supports_vision"`
	Active         bool   `json:"active"`
}

// ErrorResponse is the JSON error body for non-streaming failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// fragmentEvent is one SSE data payload of the /v1/ask response stream.
type fragmentEvent struct {
	Content string `json:"content"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleModels lists configured models with the active one marked.
func (s *Server) handleModels(c *fiber.Ctx) error {
	cfg := s.snapshot()

	models := make([]ModelInfo, len(cfg.Models))
	for i, m := range cfg.Models {
		models[i] = ModelInfo{
			Name:           m.Name,
			ModelName:      m.ModelName,
			SupportsVision: m.SupportsVision,
			Active:         i == cfg.SelectedModel,
		}
	}

	return c.JSON(models)
}

// handleTemplates lists the configured prompt templates. The popup shell
// uses this to build its template menu and register template hotkeys.
func (s *Server) handleTemplates(c *fiber.Ctx) error {
	return c.JSON(s.snapshot().Templates)
}

// handleAsk opens a streaming chat completion upstream and relays the
// assistant fragments to the caller as SSE, terminated by a [DONE] event.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "text is required"})
	}

	cfg := s.snapshot()

	model, err := resolveModel(cfg, req.Model)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	messages, err := BuildMessages(cfg, req.Template, req.Text)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	// The stream writer runs after this handler returns, so the upstream
	// request cannot borrow the request context. Client abandonment is
	// detected through Flush errors instead.
	stream, err := s.dial(context.Background(), model, messages)
	if err != nil {
		s.logger.Error("upstream dial failed", "model", model.Name, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: err.Error()})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer stream.Close()

		for {
			fragment, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.logger.Warn("upstream stream failed", "model", model.Name, "error", err)
				}
				break
			}

			payload, err := json.Marshal(fragmentEvent{Content: fragment})
			if err != nil {
				s.logger.Error("encoding fragment", "error", err)
				break
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			// A failed flush means the client went away; stop pulling.
			if err := w.Flush(); err != nil {
				return
			}
		}

		fmt.Fprint(w, "data: [DONE]\n\n")
		w.Flush() //nolint:errcheck
	})

	return nil
}

// resolveModel picks the named model, or the selected one when name is empty.
func resolveModel(cfg *config.Config, name string) (config.ModelConfig, error) {
	if name != "" {
		return cfg.ModelByName(name)
	}
	return cfg.ActiveModel()
}

// BuildMessages assembles the chat messages for a question: the template's
// prompt (when one is selected) becomes the system message, the text the
// user message.
func BuildMessages(cfg *config.Config, templateID, text string) ([]llm.Message, error) {
	var messages []llm.Message

	if templateID != "" {
		tmpl, err := cfg.TemplateByID(templateID)
		if err != nil {
			return nil, err
		}
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: tmpl.Prompt})
	}

	messages = append(messages, llm.UserMessage(text))
	return messages, nil
}
