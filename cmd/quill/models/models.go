// Package modelscmder provides the models command for listing configured
// model endpoints and switching the selected one.
package modelscmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quillhq/quill/pkg/cliui"
	"github.com/quillhq/quill/pkg/config"
)

const modelsLongDesc string = `List configured models and switch the selected one.

Models are OpenAI-compatible endpoints configured in config.toml. The
selected model answers ask, chat, and daemon requests.

Examples:
  quill models
  quill models select 1
  quill models select "Local Ollama"`

const modelsShortDesc string = "List and select configured models"

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(configDir)
		},
	}

	cmd.AddCommand(newSelectCmd())

	return cmd
}

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <index|name>",
		Short: "Select the model used by ask, chat, and the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSelect(args[0], configDir)
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
	for i, m := range cfg.Models {
		mark := " "
		if i == cfg.SelectedModel {
			mark = cliui.ActiveMark
		}
		fmt.Printf("  %s [%d] %s %s\n",
			mark,
			i,
			cliui.NameStyle.Render(m.Name),
			cliui.DimStyle.Render(fmt.Sprintf("(%s @ %s)", m.ModelName, m.BaseURL)),
		)
	}
	fmt.Println()

	return nil
}

func runSelect(arg, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	index, err := resolveIndex(cfg, arg)
	if err != nil {
		return err
	}

	cfg.SelectedModel = index
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("\n  %s Selected %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(cfg.Models[index].Name),
	)
	return nil
}

// resolveIndex accepts either a numeric index or a model display name.
func resolveIndex(cfg *config.Config, arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 || n >= len(cfg.Models) {
			return 0, fmt.Errorf("model index %d out of range (%d models configured)", n, len(cfg.Models))
		}
		return n, nil
	}

	for i, m := range cfg.Models {
		if m.Name == arg {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no model named %q configured", arg)
}
