// Package chatcmder provides the chat command for an interactive terminal
// conversation with the selected model.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/quillhq/quill/pkg/cliui"
	"github.com/quillhq/quill/pkg/config"
	"github.com/quillhq/quill/pkg/history"
	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/logger"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	model     string
	noHistory bool
	debug     bool

	logger *slog.Logger
}

const chatLongDesc string = `Start an interactive chat session with the selected model.

Each turn is sent with the full conversation so far, and the session is
recorded in conversation history. Use "quill history list" to find past
sessions.

Examples:
  quill chat
  quill chat --model "Local Ollama"`

const chatShortDesc string = "Interactive chat with the selected model"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			configDir, _ := cmd.Flags().GetString("config-dir")

			return cmder.run(configDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Model name override (defaults to the selected model)")
	cmd.Flags().BoolVar(&cmder.noHistory, "no-history", false, "Do not record the session in history")

	return cmd
}

func (c *chatCommander) run(configDir string) error {
	c.logger = logger.New(
		logger.WithPretty(true),
		logger.WithDebug(c.debug),
		logger.WithWriter(os.Stderr),
	)

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var model config.ModelConfig
	if c.model != "" {
		model, err = cfg.ModelByName(c.model)
	} else {
		model, err = cfg.ActiveModel()
	}
	if err != nil {
		return err
	}

	store, conv := c.openHistory(cfger, cfg, model)
	if store != nil {
		defer store.Close()
	}

	client := llm.NewClient(model.BaseURL, model.APIKey)

	fmt.Println()
	fmt.Printf("  %s New conversation\n", cliui.ActiveMark)
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(model.Name),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	var messages []llm.Message
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		messages = append(messages, llm.UserMessage(input))

		answer, err := c.sendAndStream(client, model.ModelName, messages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			// Remove the failed user message so we can retry
			messages = messages[:len(messages)-1]
			continue
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: answer})
		c.recordTurn(store, conv, input, answer)

		fmt.Println()
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// sendAndStream sends the conversation so far and streams the answer to
// stdout, returning the full assistant text.
func (c *chatCommander) sendAndStream(client *llm.Client, model string, messages []llm.Message) (string, error) {
	// Ctrl+C aborts the in-flight answer without ending the session.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.logger.Debug("sending chat request",
		"model", model,
		"message_count", len(messages),
	)

	stream, err := client.StreamChat(ctx, model, messages)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	fmt.Print(assistantPrompt)

	var full strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return full.String(), err
		}

		fmt.Print(fragment)
		full.WriteString(fragment)
	}

	return full.String(), nil
}

// openHistory begins a recorded conversation, or returns nils when history
// is disabled or unavailable. Recording is best-effort.
func (c *chatCommander) openHistory(cfger *config.Configer, cfg *config.Config, model config.ModelConfig) (*history.Store, *history.Conversation) {
	if c.noHistory {
		return nil, nil
	}

	path, err := cfger.HistoryPath(cfg)
	if err != nil {
		c.logger.Debug("skipping history", "reason", err)
		return nil, nil
	}

	store, err := history.Open(path)
	if err != nil {
		c.logger.Warn("opening history store", "error", err)
		return nil, nil
	}

	conv, err := store.Begin(model.ModelName)
	if err != nil {
		c.logger.Warn("recording conversation", "error", err)
		store.Close()
		return nil, nil
	}

	return store, conv
}

func (c *chatCommander) recordTurn(store *history.Store, conv *history.Conversation, question, answer string) {
	if store == nil {
		return
	}
	if err := store.Append(conv.ID, llm.RoleUser, question); err != nil {
		c.logger.Warn("recording question", "error", err)
		return
	}
	if err := store.Append(conv.ID, llm.RoleAssistant, answer); err != nil {
		c.logger.Warn("recording answer", "error", err)
	}
}
