// Package common provides shared constants, types, and utilities
// used across mullvad-rotate.
package common

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// GenerateID generates a unique identifier used to tag one invocation.
func GenerateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GetConfigDir returns the path to the application configuration directory.
// It creates the directory if it doesn't exist.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", WrapError(err, "failed to get home directory")
	}

	configDir := filepath.Join(homeDir, ".config", ConfigDirName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", WrapError(err, "failed to create config directory")
	}

	return configDir, nil
}

// GetCacheDir returns the path to the application cache directory.
func GetCacheDir() (string, error) {
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		return "", WrapError(err, "failed to get cache directory")
	}

	cacheDir := filepath.Join(cacheRoot, ConfigDirName)
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return "", WrapError(err, "failed to create cache directory")
	}

	return cacheDir, nil
}
