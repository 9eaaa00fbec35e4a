// Package config manages the persistent quill configuration: models,
// question templates, hotkeys, and daemon settings, stored as config.toml
// in the .quill/ directory.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/quillhq/quill/pkg/dotdir"
)

const configFile = "config.toml"

// Configer loads and saves the configuration file resolved through the
// .quill/ dotdir.
type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewConfiger creates a Configer rooted at the resolved .quill/ directory.
// An override directory takes precedence over local and home resolution.
func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{ddm: dotdir.NewManager()}

	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}
	if target == "" {
		// No .quill/ directory resolved: LoadConfig returns defaults and
		// SaveConfig errors clearly.
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	if _, err := os.Stat(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path
	return cfger, nil
}

// GetTarget returns the resolved config file path, or "" when no .quill/
// directory was found.
func (c *Configer) GetTarget() string {
	return c.targetPath
}

// ValidConfigKeys returns the sorted list of all supported configuration
// key names.
func ValidConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsValidConfigKey reports whether key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

// LoadConfig loads config.toml from the resolved .quill/ directory. A
// missing file yields NewDefaultConfig() so callers always receive a
// fully-populated Config; fields set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return ParseConfigTOML(data)
}

// ParseConfigTOML decodes a TOML document into a Config and backfills
// zero-value fields from the defaults.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{SelectedModel: -1}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg from NewDefaultConfig().
// A SelectedModel of -1 means the file did not set one.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if len(cfg.Models) == 0 {
		cfg.Models = defaults.Models
	}
	if len(cfg.Templates) == 0 {
		cfg.Templates = defaults.Templates
	}
	if cfg.SelectedModel < 0 || cfg.SelectedModel >= len(cfg.Models) {
		cfg.SelectedModel = 0
	}
	if cfg.PopupWidth == 0 {
		cfg.PopupWidth = defaults.PopupWidth
	}
	if cfg.Hotkeys.Popup == "" {
		cfg.Hotkeys.Popup = defaults.Hotkeys.Popup
	}
	if cfg.Hotkeys.Screenshot == "" {
		cfg.Hotkeys.Screenshot = defaults.Hotkeys.Screenshot
	}
	if cfg.Serve.Listen == "" {
		cfg.Serve.Listen = defaults.Serve.Listen
	}
}

// SaveConfig persists the configuration to config.toml in the resolved
// .quill/ directory. The file is written 0600: it can hold API keys.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}
	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key, and saves it.
func (c *Configer) SetConfigValue(key, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation
// of the given key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// HistoryPath returns the conversation history database path: the
// configured override, or history.db next to the config file.
func (c *Configer) HistoryPath(cfg *Config) (string, error) {
	if cfg.History.Path != "" {
		return cfg.History.Path, nil
	}
	if c.targetPath == "" {
		return "", errors.New("no .quill directory resolved for history storage")
	}
	return filepath.Join(filepath.Dir(c.targetPath), "history.db"), nil
}
