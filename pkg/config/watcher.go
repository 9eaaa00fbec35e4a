package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config whenever config.toml changes on disk and calls
// onChange with the freshly-loaded Config. It blocks until ctx is
// cancelled. The watch is placed on the directory rather than the file so
// editors that replace the file (write-to-temp + rename) are still seen.
//
// A change that fails to parse is skipped: the previous configuration
// stays in effect rather than propagating a half-written file.
func (c *Configer) Watch(ctx context.Context, onChange func(*Config)) error {
	if c.targetPath == "" {
		return errors.New("no config file resolved to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(c.targetPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching config dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(c.targetPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := c.LoadConfig()
			if err != nil {
				continue
			}
			onChange(cfg)

		case err := <-watcher.Errors:
			return fmt.Errorf("config watcher error: %w", err)
		}
	}
}
