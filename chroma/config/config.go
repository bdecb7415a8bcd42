// Package config loads the optional TOML configuration for the front end.
package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/BurntSushi/toml"
)

// Config holds front-end settings. Command-line flags override anything
// set here.
type Config struct {
	// Audio enables the oto speaker backend.
	Audio bool `toml:"audio"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// SnapshotInterval saves a frame snapshot every N frames in headless
	// mode; 0 disables.
	SnapshotInterval int `toml:"snapshot_interval"`
	// SnapshotDir is where headless snapshots land.
	SnapshotDir string `toml:"snapshot_dir"`
	// SaveDir is where battery saves (.sav, .rtc) are kept; empty keeps
	// them next to the ROM.
	SaveDir string `toml:"save_dir"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Audio:    true,
		LogLevel: "info",
	}
}

// Load reads the file at path, falling back to defaults when it does not
// exist. A malformed file is an error; a missing one is not.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	_, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No config file, using defaults", "path", path)
		return Default(), nil
	}
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Level converts the configured log level to a slog.Level.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
