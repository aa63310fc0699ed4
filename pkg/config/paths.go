package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDir returns the path to the hostbridge config directory (~/.hostbridge).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".hostbridge"), nil
}

// DefaultPath returns the path to the named config file, e.g. "bridge.yaml".
// Absolute paths are returned as-is.
func DefaultPath(component string) (string, error) {
	if filepath.IsAbs(component) {
		return component, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, component), nil
}
