// Package config manages stagedit configuration and filesystem paths.
//
// Configuration includes the locations of stagedit data directories, which
// can be customized via environment variables. The default root is
// ~/.stagedit/ containing sessions/ and the global config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Paths contains all the filesystem paths used by stagedit.
type Paths struct {
	// Root is the base directory for all stagedit data (default: ~/.stagedit)
	Root string

	// Sessions is the directory containing stage session files
	Sessions string

	// Config is the path to the global config file
	Config string
}

// envOverrides holds the environment variables recognized by stagedit.
type envOverrides struct {
	Root string `env:"STAGEDIT_ROOT"`
}

// DefaultPaths returns the default paths for stagedit.
// Paths can be overridden with environment variables:
// - STAGEDIT_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	root := overrides.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".stagedit")
	}

	return &Paths{
		Root:     root,
		Sessions: filepath.Join(root, "sessions"),
		Config:   filepath.Join(root, "config.yaml"),
	}, nil
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Sessions,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
