// Package quillcmder
package quillcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/quillhq/quill/cmd/quill/ask"
	chatcmder "github.com/quillhq/quill/cmd/quill/chat"
	configcmder "github.com/quillhq/quill/cmd/quill/config"
	historycmder "github.com/quillhq/quill/cmd/quill/history"
	modelscmder "github.com/quillhq/quill/cmd/quill/models"
	servecmder "github.com/quillhq/quill/cmd/quill/serve"
	templatescmder "github.com/quillhq/quill/cmd/quill/templates"
	versioncmder "github.com/quillhq/quill/cmd/version"
)

const quillLongDesc string = `Quill is an ask-anywhere AI assistant.

Ask a question directly:
  quill ask "what does errno 32 mean?"
  git diff | quill ask --template summarize

Or run the local daemon that popup shells and editor plugins talk to:
  quill serve`

const quillShortDesc string = "Quill - ask-anywhere AI assistant"

func NewQuillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quill",
		Short: quillShortDesc,
		Long:  quillLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .quill config directory")

	// Add subcommands
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(templatescmder.NewTemplatesCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
