// Package historycmder provides the history command for browsing recorded
// conversations.
package historycmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quillhq/quill/pkg/cliui"
	"github.com/quillhq/quill/pkg/config"
	"github.com/quillhq/quill/pkg/history"
	"github.com/quillhq/quill/pkg/llm"
)

const historyLongDesc string = `Browse recorded conversations.

Every ask and chat session is recorded in history.db in the .quill/
directory (unless --no-history was given).

Examples:
  quill history list
  quill history show 3f8a...`

const historyShortDesc string = "Browse recorded conversations"

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}

func newListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(configDir, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of conversations to list")

	return cmd
}

func newShowCmd() *cobra.Command {
	var render bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one conversation's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runShow(args[0], configDir, render)
		},
	}

	cmd.Flags().BoolVarP(&render, "render", "r", false, "Render assistant messages as markdown")

	return cmd
}

func openStore(configDir string) (*history.Store, error) {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	path, err := cfger.HistoryPath(cfg)
	if err != nil {
		return nil, err
	}

	return history.Open(path)
}

func runList(configDir string, limit int) error {
	store, err := openStore(configDir)
	if err != nil {
		return err
	}
	defer store.Close()

	convs, err := store.List(limit)
	if err != nil {
		return err
	}

	if len(convs) == 0 {
		fmt.Println("\n  No conversations recorded yet.")
		fmt.Println()
		return nil
	}

	fmt.Println()
	for _, c := range convs {
		fmt.Printf("  %s  %s %s\n",
			cliui.KeyStyle.Render(shortID(c.ID)),
			c.StartedAt.Local().Format("2006-01-02 15:04"),
			cliui.DimStyle.Render(c.Model),
		)
	}
	fmt.Println()

	return nil
}

func runShow(id, configDir string, render bool) error {
	store, err := openStore(configDir)
	if err != nil {
		return err
	}
	defer store.Close()

	conv, err := store.Get(id)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Model:"), conv.Model)
	fmt.Printf("  %s %s\n\n", cliui.KeyStyle.Render("Started:"), conv.StartedAt.Local().Format("2006-01-02 15:04:05"))

	for _, m := range conv.Messages {
		fmt.Printf("%s\n", cliui.NameStyle.Render(m.Role+":"))
		if render && m.Role == llm.RoleAssistant {
			rendered, err := cliui.RenderMarkdown(m.Content, terminalWidth())
			if err != nil {
				rendered = m.Content
			}
			fmt.Print(rendered)
		} else {
			fmt.Println(m.Content)
		}
		fmt.Println()
	}

	return nil
}

// shortID is the 8-character prefix "history show" resolves back to the
// full id.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
