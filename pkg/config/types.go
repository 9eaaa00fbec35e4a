package config

import (
	"errors"
	"fmt"
	"strconv"
)

// Config is the persistent quill configuration stored as config.toml in
// the .quill/ directory. It is shared between the CLI, the local daemon,
// and whatever shell (hotkey popup, editor plugin) drives them; hotkey
// values are persisted here but registered by the shell, never by quill.
type Config struct {
	Version       int          `toml:"version"`
	SelectedModel int          `toml:"selected_model"`
	Autostart     bool         `toml:"autostart"`
	PopupWidth    float64      `toml:"popup_width,omitempty"`
	Hotkeys       HotkeyConfig `toml:"hotkeys"`
	Serve         ServeConfig  `toml:"serve"`
	History       HistoryConfig `toml:"history"`

	Models    []ModelConfig `toml:"models"`
	Templates []Template    `toml:"templates"`
}

// ModelConfig describes one OpenAI-compatible endpoint plus the model to
// request from it.
type ModelConfig struct {
	Name           string `toml:"name"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key,omitempty"`
	ModelName      string `toml:"model_name"`
	SupportsVision bool   `toml:"supports_vision,omitempty"`
}

// Template is a canned question: its prompt is prepended to the captured
// or supplied text. Action tells the shell what to do with the answer
// ("none", "copy", "replace"); Background marks templates the shell runs
// without showing the popup.
type Template struct {
	ID         string `toml:"id"`
	Name       string `toml:"name"`
	Prompt     string `toml:"prompt"`
	Action     string `toml:"action,omitempty"`
	Hotkey     string `toml:"hotkey,omitempty"`
	Background bool   `toml:"background,omitempty"`
}

// HotkeyConfig holds the shell-registered global shortcuts.
type HotkeyConfig struct {
	Popup      string `toml:"popup,omitempty"`
	Screenshot string `toml:"screenshot,omitempty"`
}

// ServeConfig holds local daemon settings.
type ServeConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// HistoryConfig holds conversation history settings. An empty Path places
// history.db in the resolved .quill/ directory.
type HistoryConfig struct {
	Path string `toml:"path,omitempty"`
}

// ActiveModel returns the currently selected model.
func (c *Config) ActiveModel() (ModelConfig, error) {
	if len(c.Models) == 0 {
		return ModelConfig{}, errors.New("no models configured")
	}
	if c.SelectedModel < 0 || c.SelectedModel >= len(c.Models) {
		return ModelConfig{}, fmt.Errorf("selected model index %d out of range (%d models configured)",
			c.SelectedModel, len(c.Models))
	}
	return c.Models[c.SelectedModel], nil
}

// ModelByName returns the model with the given display name.
func (c *Config) ModelByName(name string) (ModelConfig, error) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, nil
		}
	}
	return ModelConfig{}, fmt.Errorf("no model named %q configured", name)
}

// TemplateByID returns the template with the given id.
func (c *Config) TemplateByID(id string) (Template, error) {
	for _, t := range c.Templates {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("no template with id %q configured", id)
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter
// on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys. The
// model.* keys read and write the currently selected model entry.
var configKeys = map[string]configKeyInfo{
	"selected_model": {
		get: func(c *Config) string { return strconv.Itoa(c.SelectedModel) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("selected_model must be an integer: %w", err)
			}
			if n < 0 || n >= len(c.Models) {
				return fmt.Errorf("selected_model %d out of range (%d models configured)", n, len(c.Models))
			}
			c.SelectedModel = n
			return nil
		},
	},
	"autostart": {
		get: func(c *Config) string { return strconv.FormatBool(c.Autostart) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("autostart must be a boolean: %w", err)
			}
			c.Autostart = b
			return nil
		},
	},
	"popup_width": {
		get: func(c *Config) string { return strconv.FormatFloat(c.PopupWidth, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("popup_width must be a number: %w", err)
			}
			c.PopupWidth = f
			return nil
		},
	},
	"hotkeys.popup": {
		get: func(c *Config) string { return c.Hotkeys.Popup },
		set: func(c *Config, v string) error { c.Hotkeys.Popup = v; return nil },
	},
	"hotkeys.screenshot": {
		get: func(c *Config) string { return c.Hotkeys.Screenshot },
		set: func(c *Config, v string) error { c.Hotkeys.Screenshot = v; return nil },
	},
	"serve.listen": {
		get: func(c *Config) string { return c.Serve.Listen },
		set: func(c *Config, v string) error { c.Serve.Listen = v; return nil },
	},
	"history.path": {
		get: func(c *Config) string { return c.History.Path },
		set: func(c *Config, v string) error { c.History.Path = v; return nil },
	},
	"model.name": {
		get: func(c *Config) string { return activeModelField(c, func(m *ModelConfig) *string { return &m.Name }) },
		set: func(c *Config, v string) error { return setActiveModelField(c, v, func(m *ModelConfig) *string { return &m.Name }) },
	},
	"model.base_url": {
		get: func(c *Config) string { return activeModelField(c, func(m *ModelConfig) *string { return &m.BaseURL }) },
		set: func(c *Config, v string) error { return setActiveModelField(c, v, func(m *ModelConfig) *string { return &m.BaseURL }) },
	},
	"model.api_key": {
		get: func(c *Config) string { return activeModelField(c, func(m *ModelConfig) *string { return &m.APIKey }) },
		set: func(c *Config, v string) error { return setActiveModelField(c, v, func(m *ModelConfig) *string { return &m.APIKey }) },
	},
	"model.model_name": {
		get: func(c *Config) string { return activeModelField(c, func(m *ModelConfig) *string { return &m.ModelName }) },
		set: func(c *Config, v string) error { return setActiveModelField(c, v, func(m *ModelConfig) *string { return &m.ModelName }) },
	},
}

func activeModelField(c *Config, field func(*ModelConfig) *string) string {
	if c.SelectedModel < 0 || c.SelectedModel >= len(c.Models) {
		return ""
	}
	return *field(&c.Models[c.SelectedModel])
}

func setActiveModelField(c *Config, v string, field func(*ModelConfig) *string) error {
	if len(c.Models) == 0 {
		c.Models = append(c.Models, DefaultModel())
		c.SelectedModel = 0
	}
	if c.SelectedModel < 0 || c.SelectedModel >= len(c.Models) {
		return fmt.Errorf("selected model index %d out of range", c.SelectedModel)
	}
	*field(&c.Models[c.SelectedModel]) = v
	return nil
}
