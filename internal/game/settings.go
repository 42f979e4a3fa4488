package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MarvinTM/replaceableParts-sub002/internal/render/scene"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
	"github.com/MarvinTM/replaceableParts-sub002/internal/ui/hud"
)

// Settings holds the player-facing configuration of the game window.
type Settings struct {
	// Window
	ScreenWidth  int `yaml:"screen_width"`
	ScreenHeight int `yaml:"screen_height"`

	// Isometric tiles
	TileWidth  float64 `yaml:"tile_width"`
	TileHeight float64 `yaml:"tile_height"`
	WallHeight float64 `yaml:"wall_height"`

	// Camera
	MinZoom  float64 `yaml:"min_zoom"`
	ZoomStep float64 `yaml:"zoom_step"` // zoom factor per wheel notch
	PanSpeed float64 `yaml:"pan_speed"` // screen pixels per frame for keyboard panning

	// Animation mode: disabled, sometimes or continuous
	AnimationMode string `yaml:"animation_mode"`

	// Simulation clock
	TickMillis     int `yaml:"tick_millis"`
	FastMultiplier int `yaml:"fast_multiplier"`
	MaxCatchUp     int `yaml:"max_catch_up"`

	// Exploration map tile size in pixels
	ExplorationTile float64 `yaml:"exploration_tile"`

	Seed int64 `yaml:"seed"`

	HUD hud.Config `yaml:"hud"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() *Settings {
	sim := simulation.DefaultConfig()
	return &Settings{
		ScreenWidth:     1280,
		ScreenHeight:    720,
		TileWidth:       64,
		TileHeight:      32,
		WallHeight:      24,
		MinZoom:         0.25,
		ZoomStep:        1.1,
		PanSpeed:        8,
		AnimationMode:   scene.ModeContinuous.String(),
		TickMillis:      sim.TickMillis,
		FastMultiplier:  sim.FastMultiplier,
		MaxCatchUp:      sim.MaxCatchUp,
		ExplorationTile: 32,
		Seed:            1,
		HUD:             *hud.DefaultConfig(),
	}
}

// LoadSettings loads settings from a YAML (or JSON) file on top of the
// defaults. A missing file yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	return settings, nil
}

// Validate checks ranges.
func (s *Settings) Validate() error {
	if s.TileWidth <= 0 || s.TileHeight <= 0 || s.WallHeight < 0 {
		return fmt.Errorf("tile sizes must be positive")
	}
	if s.MinZoom <= 0 || s.MinZoom > 1 {
		return fmt.Errorf("min_zoom must be in (0, 1], got %v", s.MinZoom)
	}
	if s.ZoomStep <= 1 {
		return fmt.Errorf("zoom_step must be greater than 1, got %v", s.ZoomStep)
	}
	if s.TickMillis <= 0 || s.FastMultiplier <= 0 || s.MaxCatchUp <= 0 {
		return fmt.Errorf("tick_millis, fast_multiplier and max_catch_up must be positive")
	}
	if _, err := scene.ParseMode(s.AnimationMode); err != nil {
		return err
	}
	return nil
}

// Mode returns the configured animation mode, continuous if unparsable.
func (s *Settings) Mode() scene.Mode {
	m, err := scene.ParseMode(s.AnimationMode)
	if err != nil {
		return scene.ModeContinuous
	}
	return m
}

// Clock returns the simulation clock settings.
func (s *Settings) Clock() simulation.Config {
	return simulation.Config{
		TickMillis:     s.TickMillis,
		FastMultiplier: s.FastMultiplier,
		MaxCatchUp:     s.MaxCatchUp,
	}
}

// SceneOptions returns the factory scene options.
func (s *Settings) SceneOptions() scene.Options {
	opts := scene.DefaultOptions()
	opts.TileWidth = s.TileWidth
	opts.TileHeight = s.TileHeight
	opts.WallHeight = s.WallHeight
	opts.Mode = s.Mode()
	opts.Seed = s.Seed
	return opts
}
