// internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	pkgerrors "github.com/pkg/errors"

	"github.com/rill-lang/rill/internal/vm"
)

// Config is the user-level tool configuration, read from
// <user config dir>/rill/config.toml. All fields have working defaults; a
// missing file is not an error.
type Config struct {
	Prompt       string `toml:"prompt"`
	HistoryFile  string `toml:"history_file"`
	MaxCallDepth int    `toml:"max_call_depth"`
	Color        string `toml:"color"` // auto, always or never
}

func Default() Config {
	history := ".rill_history"
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".rill_history")
	}
	return Config{
		Prompt:       ">> ",
		HistoryFile:  history,
		MaxCallDepth: vm.DefaultMaxDepth,
		Color:        "auto",
	}
}

// Path returns the config file location, or "" when the platform reports no
// user config directory.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rill", "config.toml")
}

// Load reads the user config file, falling back to defaults when it does not
// exist. A file that exists but fails to parse is a real error.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, pkgerrors.Wrapf(err, "read %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, pkgerrors.Wrapf(err, "parse %s", path)
	}
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = vm.DefaultMaxDepth
	}
	return cfg, nil
}
