// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "epulse"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultTextsPath returns the default practice texts file.
func DefaultTextsPath() string {
	return filepath.Join(XDGConfigHome(), appName, "texts.toml")
}

// DefaultWordListPath returns the default drill word list.
func DefaultWordListPath() string {
	return filepath.Join(XDGConfigHome(), appName, "words.txt")
}

// DefaultDBPath returns the default path for the local SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, "epulse.db")
}

// DefaultServerDBPath returns the default database for the results endpoint.
func DefaultServerDBPath() string {
	return filepath.Join(XDGDataHome(), appName, "server.db")
}

// DefaultLogPath returns the log file used by interactive commands.
func DefaultLogPath() string {
	return filepath.Join(XDGDataHome(), appName, "epulse.log")
}
