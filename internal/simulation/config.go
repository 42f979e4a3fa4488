package simulation

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds the run-speed settings of a session. The rules decide what a
// tick does; Config decides how often ticks happen.
type Config struct {
	// Clock
	TickMillis     int `json:"tick_millis"`     // wall time per tick at normal speed
	FastMultiplier int `json:"fast_multiplier"` // speed factor in fast mode
	MaxCatchUp     int `json:"max_catch_up"`    // most ticks run in one frame after a stall

	// Rules file; empty or missing selects the built-in rules
	RulesPath string `json:"rules_path"`
}

// DefaultConfig returns one tick per second, 4x fast mode.
func DefaultConfig() *Config {
	return &Config{
		TickMillis:     1000,
		FastMultiplier: 4,
		MaxCatchUp:     8,
	}
}

// LoadConfig loads run settings from a JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return defaults if file doesn't exist
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read simulation config: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}
	if config.TickMillis <= 0 || config.FastMultiplier <= 0 || config.MaxCatchUp <= 0 {
		return nil, fmt.Errorf("simulation config %s: tick_millis, fast_multiplier and max_catch_up must be positive", path)
	}

	return config, nil
}

// Rules loads the rules named by the config.
func (c *Config) Rules() (*Rules, error) {
	if c.RulesPath == "" {
		return DefaultRules(), nil
	}
	return LoadRules(c.RulesPath)
}

// Speed is the simulation speed selected by the player.
type Speed int

const (
	SpeedPaused Speed = iota
	SpeedNormal
	SpeedFast
)

func (s Speed) String() string {
	switch s {
	case SpeedPaused:
		return "paused"
	case SpeedNormal:
		return "normal"
	case SpeedFast:
		return "fast"
	}
	return fmt.Sprintf("Speed(%d)", int(s))
}

// Clock turns elapsed frame time into a number of ticks to run. It is the
// external scheduler the engine expects; it never calls the engine itself.
type Clock struct {
	cfg   Config
	speed Speed
	acc   time.Duration
}

// NewClock creates a clock at normal speed.
func NewClock(cfg Config) *Clock {
	return &Clock{cfg: cfg, speed: SpeedNormal}
}

// Speed returns the current speed.
func (c *Clock) Speed() Speed { return c.speed }

// SetSpeed changes speed. Pausing drops any partial tick.
func (c *Clock) SetSpeed(s Speed) {
	c.speed = s
	if s == SpeedPaused {
		c.acc = 0
	}
}

// Multiplier is the animation speed factor for the current speed.
func (c *Clock) Multiplier() float64 {
	switch c.speed {
	case SpeedFast:
		return float64(c.cfg.FastMultiplier)
	case SpeedPaused:
		return 0
	}
	return 1
}

// Interval is the wall time between ticks at the current speed.
func (c *Clock) Interval() time.Duration {
	base := time.Duration(c.cfg.TickMillis) * time.Millisecond
	if c.speed == SpeedFast {
		return base / time.Duration(c.cfg.FastMultiplier)
	}
	return base
}

// Advance accounts for dt of wall time and returns how many ticks are due.
// After a long stall at most MaxCatchUp ticks are returned and the rest of
// the backlog is dropped.
func (c *Clock) Advance(dt time.Duration) int {
	if c.speed == SpeedPaused || dt <= 0 {
		return 0
	}
	c.acc += dt
	interval := c.Interval()
	n := int(c.acc / interval)
	c.acc -= time.Duration(n) * interval
	if n > c.cfg.MaxCatchUp {
		n = c.cfg.MaxCatchUp
		c.acc = 0
	}
	return n
}
