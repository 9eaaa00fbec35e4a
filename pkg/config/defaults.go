package config

const (
	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

const translatePrompt = "If the selected text is mostly Chinese, translate it into English; " +
	"if it is mostly English or other languages, translate it into Chinese. " +
	"Please only provide the translated text."

// DefaultModel returns the out-of-the-box model entry.
func DefaultModel() ModelConfig {
	return ModelConfig{
		Name:      "Default OpenAI",
		BaseURL:   "https://api.openai.com/v1",
		ModelName: "gpt-4.1",
	}
}

// NewDefaultConfig returns a fully-populated Config with sane defaults:
// one OpenAI model entry and the built-in translate/summarize templates.
func NewDefaultConfig() *Config {
	return &Config{
		Version:       CurrentV,
		SelectedModel: 0,
		PopupWidth:    500,
		Hotkeys: HotkeyConfig{
			Popup:      "Alt+S",
			Screenshot: "Alt+Shift+S",
		},
		Serve: ServeConfig{
			Listen: "127.0.0.1:8787",
		},
		Models: []ModelConfig{DefaultModel()},
		Templates: []Template{
			{
				ID:         "background_translate",
				Name:       "Background Translation",
				Prompt:     translatePrompt,
				Action:     "replace",
				Hotkey:     "Alt+Shift+Q",
				Background: true,
			},
			{
				ID:     "translate",
				Name:   "Translate",
				Prompt: translatePrompt,
				Action: "none",
				Hotkey: "Alt+Q",
			},
			{
				ID:     "summarize",
				Name:   "Summarize",
				Prompt: "Summarize the following text:",
				Action: "copy",
			},
		},
	}
}
