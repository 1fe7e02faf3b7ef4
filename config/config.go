// Package config loads and validates the YAML run configuration of the visualizer.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"github.com/Carmen-Shannon/oxy-lorenz/common/logger"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/attractor"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/camera"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/points"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every error Validate returns.
var ErrInvalid = errors.New("invalid config")

// Defaults used by DefaultConfig.
const (
	DefaultPointCount   = 1_000_000
	DefaultLineSpacing  = 0.5
	DefaultHalfExtent   = 20.0
	DefaultMaxStep      = 0.05
	DefaultSingleStep   = 0.01
	DefaultPointSize    = 0.1
	DefaultMetricsAddr  = ":9090"
	DefaultWindowWidth  = 1600
	DefaultWindowHeight = 900
)

// SeedKindExplicit takes seeds verbatim from PointsConfig.Positions.
const SeedKindExplicit points.SeedKind = "explicit"

// Config is the full run configuration. Everything in it is fixed once the loop starts.
type Config struct {
	StartPaused bool                 `yaml:"start_paused"`
	Window      WindowConfig         `yaml:"window"`
	Points      PointsConfig         `yaml:"points"`
	Attractor   attractor.Parameters `yaml:"attractor"`
	Simulation  SimulationConfig     `yaml:"simulation"`
	Camera      CameraConfig         `yaml:"camera"`
	Render      RenderConfig         `yaml:"render"`
	Logging     LoggingConfig        `yaml:"logging"`
	Metrics     MetricsConfig        `yaml:"metrics"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

type PointsConfig struct {
	Count      int             `yaml:"count"`
	Seed       points.SeedKind `yaml:"seed"`
	Spacing    float32         `yaml:"spacing"`
	HalfExtent float32         `yaml:"half_extent"`
	RNGSeed    uint64          `yaml:"rng_seed"`
	Positions  []common.Vec3   `yaml:"positions,omitempty"`
}

// SimulationConfig selects the stepper and the step size. A positive FixedStep replaces the
// wall-clock frame time; otherwise the frame time is clamped to MaxStep. SingleStep is the dt
// of a manual step while paused.
type SimulationConfig struct {
	HostStepping bool    `yaml:"host_stepping"`
	FixedStep    float32 `yaml:"fixed_step"`
	MaxStep      float32 `yaml:"max_step"`
	SingleStep   float32 `yaml:"single_step"`
	Workers      int     `yaml:"workers"`
}

// CameraConfig is the initial camera state. FovDegrees is the vertical field of view.
type CameraConfig struct {
	Position    common.Vec3 `yaml:"position"`
	Direction   common.Vec3 `yaml:"direction"`
	FovDegrees  float32     `yaml:"fov_degrees"`
	Near        float32     `yaml:"near"`
	Far         float32     `yaml:"far"`
	Speed       float32     `yaml:"speed"`
	Sensitivity float32     `yaml:"sensitivity"`
}

type RenderConfig struct {
	PointSize     float32    `yaml:"point_size"`
	Color         [4]float32 `yaml:"color"`
	SmoothShading bool       `yaml:"smooth_shading"`
	ClearColor    [4]float64 `yaml:"clear_color"`
	MSAA          int        `yaml:"msaa"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultConfig returns the configuration the visualizer runs with when no file is given.
//
// Returns:
//   - *Config: a fresh default configuration
func DefaultConfig() *Config {
	return &Config{
		StartPaused: true,
		Window: WindowConfig{
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
			Title:  "Lorenz Attractor",
		},
		Points: PointsConfig{
			Count:      DefaultPointCount,
			Seed:       points.SeedKindLine,
			Spacing:    DefaultLineSpacing,
			HalfExtent: DefaultHalfExtent,
			RNGSeed:    1,
		},
		Attractor: attractor.Default(),
		Simulation: SimulationConfig{
			MaxStep:    DefaultMaxStep,
			SingleStep: DefaultSingleStep,
		},
		Camera: CameraConfig{
			Position:    common.Vec3{50, 50, 50},
			Direction:   common.Vec3{-1, -1, -1},
			FovDegrees:  45,
			Near:        1,
			Far:         1000,
			Speed:       100,
			Sensitivity: 0.1,
		},
		Render: RenderConfig{
			PointSize:     DefaultPointSize,
			Color:         [4]float32{1, 0, 0, 1},
			SmoothShading: false,
			ClearColor:    [4]float64{0.1, 0.2, 0.3, 1},
			MSAA:          4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Metrics: MetricsConfig{
			Addr: DefaultMetricsAddr,
		},
	}
}

// Load reads a YAML file over the defaults. Fields missing from the file keep their default value.
//
// Parameters:
//   - path: the YAML file path
//
// Returns:
//   - *Config: the loaded configuration, not yet validated
//   - error: an error if the file cannot be read or parsed
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
//
// Parameters:
//   - path: the destination file path
//   - cfg: the configuration to write
//
// Returns:
//   - error: an error if encoding or writing fails
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the visualizer cannot start with.
//
// Returns:
//   - error: nil, or an error wrapping ErrInvalid that names the first offending field
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return invalid("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Points.Count <= 0 && c.Points.Seed != SeedKindExplicit {
		return invalid("points.count must be positive, got %d", c.Points.Count)
	}
	switch c.Points.Seed {
	case points.SeedKindLine:
		if !positive(c.Points.Spacing) {
			return invalid("points.spacing must be positive")
		}
	case points.SeedKindCube:
		if !positive(c.Points.HalfExtent) {
			return invalid("points.half_extent must be positive")
		}
	case SeedKindExplicit:
		if len(c.Points.Positions) == 0 {
			return invalid("points.positions must not be empty for explicit seeds")
		}
	default:
		return invalid("unknown points.seed %q", c.Points.Seed)
	}
	if err := c.Attractor.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Simulation.FixedStep < 0 || !finite(c.Simulation.FixedStep) {
		return invalid("simulation.fixed_step must be zero or positive")
	}
	if !positive(c.Simulation.MaxStep) {
		return invalid("simulation.max_step must be positive")
	}
	if !positive(c.Simulation.SingleStep) {
		return invalid("simulation.single_step must be positive")
	}
	if c.Simulation.Workers < 0 {
		return invalid("simulation.workers must not be negative")
	}
	if !common.IsFinite3(c.Camera.Position) {
		return invalid("camera.position must be finite")
	}
	if _, err := camera.ValidateDirection(c.Camera.Direction); err != nil {
		return fmt.Errorf("%w: camera.direction %v: %w", ErrInvalid, c.Camera.Direction, err)
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		return invalid("camera.fov_degrees must be in (0, 180)")
	}
	if !positive(c.Camera.Near) || c.Camera.Far <= c.Camera.Near {
		return invalid("camera planes must satisfy 0 < near < far")
	}
	if !positive(c.Camera.Speed) || !positive(c.Camera.Sensitivity) {
		return invalid("camera.speed and camera.sensitivity must be positive")
	}
	if !positive(c.Render.PointSize) {
		return invalid("render.point_size must be positive")
	}
	switch c.Render.MSAA {
	case 1, 4, 8, 16:
	default:
		return invalid("render.msaa must be 1, 4, 8 or 16, got %d", c.Render.MSAA)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", ErrInvalid, err)
	}
	if err := logger.ValidateEncoding(c.Logging.Encoding); err != nil {
		return fmt.Errorf("%w: logging.encoding: %w", ErrInvalid, err)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return invalid("metrics.addr is required when metrics are enabled")
	}
	return nil
}

// Seeds builds the initial point positions described by the points section.
//
// Returns:
//   - []common.Vec3: the seeds
//   - error: an error if the seed kind is unknown or the seeds are degenerate
func (c *Config) Seeds() ([]common.Vec3, error) {
	var seeds []common.Vec3
	if c.Points.Seed == SeedKindExplicit {
		seeds = points.Explicit(c.Points.Positions)
	} else {
		var err error
		seeds, err = points.Generate(c.Points.Seed, c.Points.Count, c.Points.Spacing, c.Points.HalfExtent, c.Points.RNGSeed)
		if err != nil {
			return nil, err
		}
	}
	if err := points.ValidateSeeds(seeds); err != nil {
		return nil, err
	}
	return seeds, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func positive(v float32) bool {
	return v > 0 && finite(v)
}
