// Package config loads the craftchain settings file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/atlasforge/craftchain/pkg/craft"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "craftchain.toml"

// Config carries the settings shared by the CLI commands and the tool
// server. Every field has a working default; a settings file only names
// the ones it wants to change.
type Config struct {
	// DBPath is the SQLite catalog location.
	DBPath string `toml:"db_path"`

	// LogLevel selects the slog level (debug, info, warn, error).
	LogLevel string `toml:"log_level"`

	// CraftTime is the wall-clock cost of crafting one unit by hand.
	CraftTime Duration `toml:"craft_time"`

	// MaxDepth bounds formula graph walks. Zero means unlimited.
	MaxDepth int `toml:"max_depth"`

	// SearchLimit caps item search results.
	SearchLimit int `toml:"search_limit"`

	// Refineries bounds the station pools used when estimating how long
	// a production cycle takes to run.
	Refineries PoolLimits `toml:"refineries"`
}

// PoolLimits sets how many refineries of each size run in parallel.
type PoolLimits struct {
	// Medium is the pool size for two-ingredient refines.
	Medium int `toml:"medium"`

	// Big is the pool size for three-ingredient refines.
	Big int `toml:"big"`
}

// RefineryLimits converts the pool sizes to the model's limit map.
func (p PoolLimits) RefineryLimits() craft.RefineryLimits {
	return craft.RefineryLimits{
		craft.SizeMedium: p.Medium,
		craft.SizeBig:    p.Big,
	}
}

// Duration is a wrapper for time.Duration that supports TOML marshaling.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return d.Duration.String()
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:      "data/craftchain.db",
		LogLevel:    "info",
		CraftTime:   Duration{500 * time.Millisecond},
		SearchLimit: 10,
		Refineries:  PoolLimits{Medium: 1, Big: 1},
	}
}

// Load reads the settings file at path, or DefaultPath when path is
// empty. Keys absent from the file keep their defaults. A missing
// default file is fine; a missing explicit one is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// SlogLevel parses the configured log level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
