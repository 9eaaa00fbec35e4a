// Package askcmder provides the ask command: one question in, one streamed
// answer out.
package askcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quillhq/quill/api"
	"github.com/quillhq/quill/pkg/cliui"
	"github.com/quillhq/quill/pkg/config"
	"github.com/quillhq/quill/pkg/history"
	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/logger"
)

type askCommander struct {
	template  string
	model     string
	render    bool
	noHistory bool
	debug     bool

	logger *slog.Logger
}

const askLongDesc string = `Ask a question and stream the answer to stdout.

The question is taken from the arguments, or from stdin when no arguments
are given, so text can be piped in from anywhere:

  quill ask "what does errno 32 mean?"
  git diff | quill ask --template summarize
  pbpaste | quill ask --template translate

Templates prepend their configured prompt to the question. The answer is
recorded in conversation history unless --no-history is given.`

const askShortDesc string = "Ask a question and stream the answer"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask [text...]",
		Short: askShortDesc,
		Long:  askLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			configDir, _ := cmd.Flags().GetString("config-dir")

			return cmder.run(configDir, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.template, "template", "t", "", "Template id to apply (e.g. translate, summarize)")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Model name override (defaults to the selected model)")
	cmd.Flags().BoolVarP(&cmder.render, "render", "r", false, "Render the answer as markdown")
	cmd.Flags().BoolVar(&cmder.noHistory, "no-history", false, "Do not record the answer in history")

	return cmd
}

func (c *askCommander) run(configDir string, args []string) error {
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

	text, err := questionText(args)
	if err != nil {
		return err
	}

	model, err := resolveModel(cfg, c.model)
	if err != nil {
		return err
	}

	messages, err := api.BuildMessages(cfg, c.template, text)
	if err != nil {
		return err
	}

	// Ctrl+C mid-answer cancels the upstream request cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.logger.Debug("asking",
		"model", model.ModelName,
		"base_url", model.BaseURL,
		"template", c.template,
	)

	client := llm.NewClient(model.BaseURL, model.APIKey)
	stream, err := client.StreamChat(ctx, model.ModelName, messages)
	if err != nil {
		return err
	}
	defer stream.Close()

	var full strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !c.render {
				fmt.Println()
			}
			return err
		}

		full.WriteString(fragment)
		if !c.render {
			fmt.Print(fragment)
		}
	}

	if c.render {
		rendered, err := cliui.RenderMarkdown(full.String(), terminalWidth())
		if err != nil {
			c.logger.Debug("markdown rendering failed, printing raw", "error", err)
			rendered = full.String()
		}
		fmt.Print(rendered)
	} else {
		fmt.Println()
	}

	if !c.noHistory {
		c.record(cfger, cfg, model, text, full.String())
	}

	return nil
}

// record persists the exchange as a single-turn conversation. History is
// best-effort: a failure here never fails the ask itself.
func (c *askCommander) record(cfger *config.Configer, cfg *config.Config, model config.ModelConfig, question, answer string) {
	path, err := cfger.HistoryPath(cfg)
	if err != nil {
		c.logger.Debug("skipping history", "reason", err)
		return
	}

	store, err := history.Open(path)
	if err != nil {
		c.logger.Warn("opening history store", "error", err)
		return
	}
	defer store.Close()

	conv, err := store.Begin(model.ModelName)
	if err != nil {
		c.logger.Warn("recording conversation", "error", err)
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

// questionText joins the args, or reads stdin when none are given.
func questionText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no question given: pass text as arguments or pipe it on stdin")
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("stdin was empty")
	}
	return text, nil
}

func resolveModel(cfg *config.Config, name string) (config.ModelConfig, error) {
	if name != "" {
		return cfg.ModelByName(name)
	}
	return cfg.ActiveModel()
}

// terminalWidth returns the stdout width, or 80 when stdout is not a
// terminal (piped output).
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
