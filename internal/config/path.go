// Package config loads and validates finfraudx configuration.
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

// xdgDir resolves an XDG base directory, falling back to fallback under the
// user's home.
func xdgDir(envVar string, fallback ...string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, "finfraudx")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, "finfraudx")...)
}

// DefaultDatabasePath is where run history lives unless configured.
func DefaultDatabasePath() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "finfraudx.db")
}

// DefaultLogFile is where the dashboard writes logs while it owns the terminal.
func DefaultLogFile() string {
	return filepath.Join(xdgDir("XDG_STATE_HOME", ".local", "state"), "dashboard.log")
}
