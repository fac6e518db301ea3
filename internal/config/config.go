package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Viewer holds all configuration for the bspview command.
type Viewer struct {
	// Archives are loaded in order; earlier archives win name lookups.
	Archives []string `yaml:"archives"`
	Level    string   `yaml:"level"`
	Pose     Pose     `yaml:"pose"`

	SkipInvalidLevels bool   `yaml:"skip_invalid_levels"`
	LogLevel          string `yaml:"log_level"` // debug, info, warn, error
}

// Pose is the viewer position in map units.
type Pose struct {
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	AngleDegrees float64 `yaml:"angle_degrees"`
}

// Default returns Viewer config with sensible defaults.
func Default() Viewer {
	return Viewer{
		Level:    "E1M1",
		LogLevel: "info",
	}
}

// Load loads viewer config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Viewer, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SlogLevel converts LogLevel to slog.Level.
// Defaults to Info if invalid or empty.
func (v Viewer) SlogLevel() slog.Level {
	switch v.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
