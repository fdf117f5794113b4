// Package config reads taxintel settings from viper.
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

// DefaultDatabasePath is where the SQLite database lives unless
// database.path says otherwise.
func DefaultDatabasePath() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "taxintel", "taxintel.db")
	}
	return ExpandPath("~/.local/share/taxintel/taxintel.db")
}

// DefaultTokenFile is where `taxintel sheets auth` caches its token.
func DefaultTokenFile() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "taxintel", "sheets_token.json")
	}
	return ExpandPath("~/.config/taxintel/sheets_token.json")
}
