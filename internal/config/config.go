// SPDX-License-Identifier: GPL-3.0-only

// Package config loads the daemon configuration from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shini4i/darkwatt-daemon/internal/dbus"
	"github.com/shini4i/darkwatt-daemon/internal/energy"
	"github.com/shini4i/darkwatt-daemon/internal/sample"
	"github.com/shini4i/darkwatt-daemon/internal/stats"
)

const appName = "darkwatt"

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration written as a string such as "1s" or "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Display overrides the probed display. Zero sizes mean probe the EDID.
type Display struct {
	WidthInches  float64 `toml:"width_inches"`
	HeightInches float64 `toml:"height_inches"`
	Tech         string  `toml:"tech"`
	Connector    string  `toml:"connector"`
}

// Geometry returns the configured size.
func (d Display) Geometry() energy.Geometry {
	return energy.Geometry{WidthInches: d.WidthInches, HeightInches: d.HeightInches}
}

// Technology returns the configured panel technology.
func (d Display) Technology() (energy.Tech, error) {
	return energy.ParseTech(d.Tech)
}

// Sampling controls how submitted page captures are reduced and accounted.
type Sampling struct {
	GridSize int `toml:"grid_size"`
	// Interval is the display time each submitted sample stands for.
	Interval Duration `toml:"interval"`
}

// Stats controls statistics persistence.
type Stats struct {
	Path       string `toml:"path"`
	MaxRecords int    `toml:"max_records"`
}

// Server controls the D-Bus service.
type Server struct {
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// Config is the daemon configuration.
type Config struct {
	Display  Display  `toml:"display"`
	Sampling Sampling `toml:"sampling"`
	Stats    Stats    `toml:"stats"`
	Server   Server   `toml:"server"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Display: Display{Tech: energy.LCD.String()},
		Sampling: Sampling{
			GridSize: sample.DefaultGridSize,
			Interval: Duration{dbus.DefaultSampleInterval},
		},
		Stats: Stats{
			Path:       DefaultStatsPath(),
			MaxRecords: stats.DefaultMaxRecords,
		},
		Server: Server{RateLimit: dbus.DefaultRateLimit, Burst: dbus.DefaultRateBurst},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/darkwatt/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.toml")
}

// DefaultStatsPath returns $XDG_STATE_HOME/darkwatt/stats.json.
func DefaultStatsPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, appName, "stats.json")
}

// Load reads the file at path on top of Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := Parse(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg and validates the result. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("failed to parse config at %d:%d: %w", row, col, err)
		}
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Stats.Path == "" {
		cfg.Stats.Path = DefaultStatsPath()
	}
	return cfg.Validate()
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	if _, err := c.Display.Technology(); err != nil {
		return fmt.Errorf("%w: display.tech: %w", ErrInvalid, err)
	}
	if c.Display.WidthInches < 0 || c.Display.HeightInches < 0 {
		return fmt.Errorf("%w: display size must not be negative", ErrInvalid)
	}
	if c.Sampling.GridSize < 1 {
		return fmt.Errorf("%w: sampling.grid_size must be at least 1, got %d", ErrInvalid, c.Sampling.GridSize)
	}
	if c.Sampling.Interval.Duration <= 0 {
		return fmt.Errorf("%w: sampling.interval must be positive, got %s", ErrInvalid, c.Sampling.Interval)
	}
	if c.Stats.MaxRecords < 1 {
		return fmt.Errorf("%w: stats.max_records must be at least 1, got %d", ErrInvalid, c.Stats.MaxRecords)
	}
	if c.Server.RateLimit <= 0 || c.Server.Burst < 1 {
		return fmt.Errorf("%w: server rate limit must be positive", ErrInvalid)
	}
	return nil
}

// Encode writes cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
