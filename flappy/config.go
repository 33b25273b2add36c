package flappy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ReachMode selects how a pipe decides that it has reached the birds.
type ReachMode string

const (
	// ReachExact fires only when the pipe's trailing edge lands exactly on the
	// bird column. Speeds that do not divide the travel distance never fire.
	ReachExact ReachMode = "exact"
	// ReachCrossing fires on the tick the trailing edge moves onto or past the
	// bird column.
	ReachCrossing ReachMode = "crossing"
)

// Config holds the game parameters. NEAT parameters live in the engine's
// own INI config, not here.
type Config struct {
	Screen  ScreenConfig  `yaml:"screen"`
	Bird    BirdConfig    `yaml:"bird"`
	Pipe    PipeConfig    `yaml:"pipe"`
	Ground  GroundConfig  `yaml:"ground"`
	Fitness FitnessConfig `yaml:"fitness"`
	View    ViewConfig    `yaml:"view"`
}

// ScreenConfig is the playfield size.
type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// BirdConfig defines bird size and motion.
type BirdConfig struct {
	Size      int `yaml:"size"` // 0 = height / 12
	JumpPower int `yaml:"jump_power"`
	FallPower int `yaml:"fall_power"`
}

// PipeConfig defines pipe geometry and scroll speed.
type PipeConfig struct {
	Width        int       `yaml:"width"` // 0 = width / 4
	Gap          int       `yaml:"gap"`
	Speed        int       `yaml:"speed"`
	GroundMargin int       `yaml:"ground_margin"`
	ReachMode    ReachMode `yaml:"reach_mode"`
}

// GroundConfig defines the static lower boundary.
type GroundConfig struct {
	Height int `yaml:"height"` // 0 = height / 6
}

// FitnessConfig defines the per-tick reward and the crash penalty.
type FitnessConfig struct {
	SurvivalReward  float64 `yaml:"survival_reward"`
	CrashPenalty    float64 `yaml:"crash_penalty"`
	AscendThreshold float64 `yaml:"ascend_threshold"`
}

// ViewConfig is only read by presentation layers.
type ViewConfig struct {
	FPS       int  `yaml:"fps"`
	FPSStep   int  `yaml:"fps_step"`
	DrawLines bool `yaml:"draw_lines"`
}

// DefaultConfig returns the embedded defaults. It panics if they are
// malformed, which only happens on a broken build.
func DefaultConfig() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		panic(fmt.Sprintf("flappy: embedded defaults: %v", err))
	}
	return cfg
}

// LoadConfig starts from the embedded defaults and overlays the YAML file at
// path, if any. Only keys present in the file are overwritten.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading game config '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing game config '%s': %w", path, err)
		}
	}

	cfg.applyDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDerived fills sizes left at zero from the screen dimensions.
func (c *Config) applyDerived() {
	if c.Bird.Size == 0 {
		c.Bird.Size = c.Screen.Height / 12
	}
	if c.Pipe.Width == 0 {
		c.Pipe.Width = c.Screen.Width / 4
	}
	if c.Ground.Height == 0 {
		c.Ground.Height = c.Screen.Height / 6
	}
	c.Pipe.ReachMode = ReachMode(strings.ToLower(strings.TrimSpace(string(c.Pipe.ReachMode))))
	if c.Pipe.ReachMode == "" {
		c.Pipe.ReachMode = ReachCrossing
	}
}

// Validate checks the parameters the simulation relies on.
func (c *Config) Validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("config error: screen size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.Bird.Size <= 0 {
		return fmt.Errorf("config error: bird.size must be positive")
	}
	if c.Bird.FallPower < 0 || c.Bird.JumpPower < 0 {
		return fmt.Errorf("config error: bird jump_power and fall_power cannot be negative")
	}
	if c.Pipe.Width <= 0 || c.Pipe.Gap <= 0 {
		return fmt.Errorf("config error: pipe width and gap must be positive")
	}
	if c.Pipe.Speed <= 0 {
		return fmt.Errorf("config error: pipe.speed must be positive")
	}
	if c.Screen.Height-c.Pipe.GroundMargin-c.Pipe.Gap < 0 {
		return fmt.Errorf("config error: pipe gap %d does not fit above ground margin %d in height %d",
			c.Pipe.Gap, c.Pipe.GroundMargin, c.Screen.Height)
	}
	if c.Ground.Height <= 0 || c.Ground.Height >= c.Screen.Height {
		return fmt.Errorf("config error: ground.height must be within (0, %d)", c.Screen.Height)
	}
	switch c.Pipe.ReachMode {
	case ReachExact, ReachCrossing:
	default:
		return fmt.Errorf("config error: invalid pipe.reach_mode '%s', must be 'exact' or 'crossing'", c.Pipe.ReachMode)
	}
	return nil
}

// BirdX is the fixed column every bird flies in.
func (c *Config) BirdX() int { return c.Screen.Width / 4 }

// BirdStartY is the height every bird starts a generation at.
func (c *Config) BirdStartY() int { return c.Screen.Height / 2 }

// GroundY is the top edge of the ground.
func (c *Config) GroundY() int { return c.Screen.Height - c.Ground.Height }

// WriteYAML snapshots the effective configuration.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling game config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing game config: %w", err)
	}
	return nil
}
