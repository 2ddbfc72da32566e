package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sceneforge/stagedit/internal/clock"
	"github.com/sceneforge/stagedit/internal/config"
	"github.com/sceneforge/stagedit/internal/engine"
	"github.com/sceneforge/stagedit/internal/fsops"
	"github.com/sceneforge/stagedit/internal/layers"
	"github.com/sceneforge/stagedit/internal/session"
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	// Get default paths
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	// Ensure directories exist
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	// Create real implementations
	fs := fsops.NewRealFS()
	clk := &clock.RealClock{}
	store := layers.NewFileStore(fs)
	sessions := session.NewFileStore(fs, paths.Sessions)

	// Create engine
	return engine.New(store, sessions, fs, clk), nil
}

// workingDir returns the directory that relative layer paths on the command
// line resolve against.
func workingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

// sortedKeys returns a map's keys in sorted order for stable output.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
