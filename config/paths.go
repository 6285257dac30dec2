package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// This file centralizes path computation for the config package so every
// consumer agrees on where configuration lives.

const (
	// Allow overriding the config directory from the environment.
	CONFIG_DIR_ENV_KEY = "SBX_CONFIG_DIR"

	// Config path is computed as the user config directory + this relative
	// path when not overridden by the environment variable.
	CONFIG_DEFAULT_HOME_RELATIVE_PATH = "sbx"

	// Config file name.
	// Important: the config file path and schema should stay backward
	// compatible. Breaking changes need a new file name and a migration path.
	CONFIG_FILE_NAME = "config.yml"
)

// ConfigDir returns the base application config directory.
// If SBX_CONFIG_DIR is set, its value is used directly. Otherwise:
//   - macOS:   ~/Library/Application Support/sbx
//   - Linux:   ~/.config/sbx
//   - Windows: %AppData%\sbx
func ConfigDir() (string, error) {
	dir := os.Getenv(CONFIG_DIR_ENV_KEY)
	if dir != "" {
		return dir, nil
	}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to retrieve user config directory: %w", err)
	}

	return filepath.Join(userConfigDir, CONFIG_DEFAULT_HOME_RELATIVE_PATH), nil
}

// ConfigFilePath returns the absolute path to the main config file without
// creating any directories.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, CONFIG_FILE_NAME), nil
}
