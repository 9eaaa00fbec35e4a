// Package dotdir manages the .quill/ directory that holds the persistent
// configuration and the conversation history database. A project-local
// .quill/ takes precedence over ~/.quill/, so a repository can carry its
// own models and templates.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// dirName is the name of the quill directory.
const dirName = ".quill"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the .quill/ directory to use,
// creating it if needed. Order of precedence:
//  1. Provided override
//  2. Local ./.quill/ dir
//  3. Home ~/.quill/ dir (created when nothing else exists)
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating quill directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// localDirExists checks whether a .quill/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
