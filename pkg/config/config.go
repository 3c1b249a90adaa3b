// Package config loads editor settings from a TOML file. Every field has a
// working default, so a missing or partial file is never an error; only a
// file that exists but cannot be parsed is.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all tunable editor settings.
type Config struct {
	Editor EditorConfig `toml:"editor"`
	Walls  WallConfig   `toml:"walls"`
	Rooms  RoomsConfig  `toml:"rooms"`
	Plan   PlanConfig   `toml:"plan"`
}

// EditorConfig covers interactive editing behavior.
type EditorConfig struct {
	// GridCellSize is the spatial index cell edge in world units.
	GridCellSize float64 `toml:"grid_cell_size"`
	// SnapStep is the coarse editing snap in world units.
	SnapStep float64 `toml:"snap_step"`
}

// WallConfig sets defaults applied to newly drawn walls.
type WallConfig struct {
	Thickness float64 `toml:"thickness"`
	Height    float64 `toml:"height"`
}

// RoomsConfig tunes the room detection pass.
type RoomsConfig struct {
	Resolution float64 `toml:"resolution"`
	Margin     float64 `toml:"margin"`
	MaxGridDim int     `toml:"max_grid_dim"`
}

// PlanConfig covers the plan DSL engine.
type PlanConfig struct {
	// EvalTimeout bounds a single plan evaluation, e.g. "5s".
	EvalTimeout duration `toml:"eval_timeout"`
}

// duration wraps time.Duration with TOML string form ("5s", "250ms").
type duration time.Duration

func (d *duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// EvalTimeout returns the configured plan evaluation limit.
func (c *Config) EvalTimeout() time.Duration {
	return time.Duration(c.Plan.EvalTimeout)
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			GridCellSize: 1.0,
			SnapStep:     0.1,
		},
		Walls: WallConfig{
			Thickness: 0.2,
			Height:    2.8,
		},
		Rooms: RoomsConfig{
			Resolution: 0.1,
			Margin:     0.5,
			MaxGridDim: 4096,
		},
		Plan: PlanConfig{
			EvalTimeout: duration(5 * time.Second),
		},
	}
}

// Load reads settings from path, layered over the defaults. A missing file
// yields the defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.sanitize()
	return cfg, nil
}

// sanitize clamps nonsensical values back to their defaults rather than
// failing, since a bad setting should not lock the editor out.
func (c *Config) sanitize() {
	def := Default()
	if c.Editor.GridCellSize <= 0 {
		c.Editor.GridCellSize = def.Editor.GridCellSize
	}
	if c.Editor.SnapStep <= 0 {
		c.Editor.SnapStep = def.Editor.SnapStep
	}
	if c.Walls.Thickness <= 0 {
		c.Walls.Thickness = def.Walls.Thickness
	}
	if c.Walls.Height <= 0 {
		c.Walls.Height = def.Walls.Height
	}
	if c.Rooms.Resolution <= 0 {
		c.Rooms.Resolution = def.Rooms.Resolution
	}
	if c.Rooms.Margin <= 0 {
		c.Rooms.Margin = def.Rooms.Margin
	}
	if c.Rooms.MaxGridDim <= 0 {
		c.Rooms.MaxGridDim = def.Rooms.MaxGridDim
	}
	if c.Plan.EvalTimeout <= 0 {
		c.Plan.EvalTimeout = def.Plan.EvalTimeout
	}
}
