// Package config loads application settings from viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DefaultDatabasePath returns where the ledger lives when no path is configured.
func DefaultDatabasePath() string {
	return ExpandPath("~/.local/share/spice/ledger.db")
}

// DatabasePath returns the configured ledger path.
func DatabasePath(configured string) string {
	if configured == "" {
		return DefaultDatabasePath()
	}
	return ExpandPath(configured)
}
