// Package templatescmder provides the templates command for listing the
// configured question templates.
package templatescmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillhq/quill/pkg/cliui"
	"github.com/quillhq/quill/pkg/config"
	"github.com/quillhq/quill/pkg/utils"
)

const templatesLongDesc string = `List the configured question templates.

Templates are canned prompts applied with "quill ask --template <id>".
Background templates are run by the popup shell without showing a window;
their hotkeys are registered by the shell, not by quill.

Examples:
  quill templates`

const templatesShortDesc string = "List configured question templates"

func NewTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: templatesShortDesc,
		Long:  templatesLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(configDir)
		},
	}

	return cmd
}

func runList(configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println()
	for _, t := range cfg.Templates {
		extras := ""
		if t.Hotkey != "" {
			extras = cliui.DimStyle.Render(fmt.Sprintf(" [%s]", t.Hotkey))
		}
		if t.Background {
			extras += cliui.DimStyle.Render(" (background)")
		}
		fmt.Printf("  %s  %s%s\n",
			cliui.KeyStyle.Render(t.ID),
			cliui.NameStyle.Render(t.Name),
			extras,
		)
		fmt.Printf("     %s\n", cliui.DimStyle.Render(utils.Truncate(t.Prompt, 72)))
	}
	fmt.Println()

	return nil
}
