package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/quillhq/quill/pkg/dotdir"
)

// InitViper creates a configured *viper.Viper for commands that layer
// environment variables and flags over the config file (the serve daemon
// in particular).
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound by the command)
//  2. Environment variables (QUILL_SERVE_LISTEN, QUILL_SELECTED_MODEL, ...)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("QUILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() using
// dotted-key notation, keeping defaults.go the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("selected_model", d.SelectedModel)
	v.SetDefault("autostart", d.Autostart)
	v.SetDefault("popup_width", d.PopupWidth)
	v.SetDefault("hotkeys.popup", d.Hotkeys.Popup)
	v.SetDefault("hotkeys.screenshot", d.Hotkeys.Screenshot)
	v.SetDefault("serve.listen", d.Serve.Listen)
	v.SetDefault("history.path", d.History.Path)
}
