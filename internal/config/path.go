// Package config resolves component configuration from viper and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AppDir is the directory name used under the user's config directory.
const AppDir = "atlas"

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// Dir returns $HOME/.config/atlas.
func Dir() string {
	return ExpandPath(filepath.Join("~", ".config", AppDir))
}

// DatabasePath returns storage.path, defaulting to atlas.db in Dir.
func DatabasePath() string {
	if p := viper.GetString("storage.path"); p != "" {
		return ExpandPath(p)
	}
	return filepath.Join(Dir(), "atlas.db")
}
