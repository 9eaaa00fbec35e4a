// Package configcmder provides the config command for managing persistent
// quill configuration stored in the .quill/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent quill configuration.

Configuration is stored as config.toml in the .quill/ directory and is
shared by the CLI, the serve daemon, and whatever shell drives them.

Keys use dotted notation matching the TOML section structure:
  selected_model, autostart, popup_width,
  hotkeys.popup, hotkeys.screenshot,
  serve.listen, history.path,
  model.name, model.base_url, model.api_key, model.model_name

The model.* keys read and write the currently selected model entry.

Use subcommands to get, set, or list configuration values:
  quill config set <key> <value>    Set a configuration value
  quill config get <key>            Get a configuration value
  quill config list                 List all configuration values

Examples:
  quill config set model.base_url http://localhost:11434/v1
  quill config set serve.listen 127.0.0.1:9000
  quill config get model.model_name
  quill config list`

const configShortDesc string = "Manage persistent quill configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
