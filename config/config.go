// Package config provides configuration loading and access for turbulence
// field runs.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid config")

// Sampling modes.
const (
	ModeScatter   = "scatter"
	ModeReference = "reference"
)

// Config holds all configuration parameters.
type Config struct {
	Noise     NoiseConfig     `yaml:"noise"`
	Walk      WalkConfig      `yaml:"walk"`
	Points    PointsConfig    `yaml:"points"`
	Scatter   ScatterConfig   `yaml:"scatter"`
	Reference ReferenceConfig `yaml:"reference"`
	Sampling  SamplingConfig  `yaml:"sampling"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Calibrate CalibrateConfig `yaml:"calibrate"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// Vec3 is a position or extent in sensor space.
type Vec3 [3]float64

// NoiseConfig holds the three noise channels that drive every turbulence point.
type NoiseConfig struct {
	Basis     string        `yaml:"basis"` // "simplex" or "perlin"
	Magnitude ChannelConfig `yaml:"magnitude"`
	Direction ChannelConfig `yaml:"direction"`
	Speed     ChannelConfig `yaml:"speed"`
}

// ChannelConfig holds fBm parameters for one noise channel.
type ChannelConfig struct {
	Seed         int64              `yaml:"seed"`
	MinFreq      float64            `yaml:"min_freq"`
	MaxFreq      float64            `yaml:"max_freq"`
	Hurst        float64            `yaml:"hurst"`
	Lacunarity   float64            `yaml:"lacunarity"`
	Gain         float64            `yaml:"gain"`
	Offset       float64            `yaml:"offset"`
	Distribution DistributionConfig `yaml:"distribution"`
}

// DistributionConfig selects the output value distribution of a channel.
type DistributionConfig struct {
	Kind       string  `yaml:"kind"` // identity, uniform, exponential, lognormal
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Rate       float64 `yaml:"rate"`
	Mu         float64 `yaml:"mu"`
	Sigma      float64 `yaml:"sigma"`
	BasisSigma float64 `yaml:"basis_sigma"` // 0 = package default
}

// WalkConfig holds random walk parameters shared by all points.
type WalkConfig struct {
	TimeStep      float64 `yaml:"time_step"`      // Keyframe spacing in seconds
	CoherenceRate float64 `yaml:"coherence_rate"` // Time scaling into the 4th noise dimension
	RotationZ     float64 `yaml:"rotation_z"`     // Sensor-to-local rotation about Z, radians
	Scale         float64 `yaml:"scale"`          // Sensor-to-local uniform scale (0 = 1)
}

// PointsConfig holds turbulence point placement.
type PointsConfig struct {
	Count            int    `yaml:"count"` // Random points in bounds, ignored when anchors are given
	Seed             int64  `yaml:"seed"`
	IndependentNoise bool   `yaml:"independent_noise"` // Offset channel seeds per point
	BoundsMin        Vec3   `yaml:"bounds_min"`
	BoundsMax        Vec3   `yaml:"bounds_max"`
	Anchors          []Vec3 `yaml:"anchors"`
}

// ScatterConfig holds scatter aggregator parameters.
type ScatterConfig struct {
	InfluenceRange float64 `yaml:"influence_range"` // <= 0 = nearest point only
	MaxPointCount  int     `yaml:"max_point_count"` // < 0 = unbounded
}

// ReferenceConfig holds reference aggregator layout parameters.
type ReferenceConfig struct {
	SmoothStepOrder int    `yaml:"smoothstep_order"`
	Grid            [3]int `yaml:"grid"`        // Default nodes per axis across the bounds
	Neighbors       int    `yaml:"neighbors"`   // Turbulence points per Default node
	Interpolate     bool   `yaml:"interpolate"` // Add Interpolation nodes between adjacent Default nodes
}

// SamplingConfig holds headless sampling run parameters.
type SamplingConfig struct {
	Mode       string  `yaml:"mode"`       // scatter or reference
	Resolution [3]int  `yaml:"resolution"` // Sample grid size per axis
	StartTime  float64 `yaml:"start_time"`
	EndTime    float64 `yaml:"end_time"`
	Steps      int     `yaml:"steps"`   // Time slices from start to end inclusive
	Workers    int     `yaml:"workers"` // 0 = GOMAXPROCS
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow int  `yaml:"perf_window"` // Steps averaged by the perf collector
	LogStats   bool `yaml:"log_stats"`
}

// CalibrateConfig holds targets for cmd/calibrate.
type CalibrateConfig struct {
	TargetStd       float64 `yaml:"target_std"`       // Desired field standard deviation
	TargetStructure float64 `yaml:"target_structure"` // Desired mean |f(x+lag)-f(x)|
	Lag             float64 `yaml:"lag"`
	MaxEvals        int     `yaml:"max_evals"`
	Samples         int     `yaml:"samples"` // Random probe positions per evaluation
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Extent      Vec3    // BoundsMax - BoundsMin
	PointCount  int     // len(Anchors) if set, else Count
	SampleCount int     // Product of Resolution
	TimeDelta   float64 // Spacing between sampled time slices
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Defaults returns the embedded default configuration without validation.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail deep inside field
// construction or a sampling run.
func (c *Config) Validate() error {
	switch {
	case c.Walk.TimeStep <= 0:
		return fmt.Errorf("%w: walk.time_step %v must be > 0", ErrInvalidConfig, c.Walk.TimeStep)
	case c.Walk.Scale < 0:
		return fmt.Errorf("%w: walk.scale %v must be >= 0", ErrInvalidConfig, c.Walk.Scale)
	case len(c.Points.Anchors) == 0 && c.Points.Count <= 0:
		return fmt.Errorf("%w: points.count %d with no anchors", ErrInvalidConfig, c.Points.Count)
	case c.Reference.Neighbors <= 0:
		return fmt.Errorf("%w: reference.neighbors %d must be > 0", ErrInvalidConfig, c.Reference.Neighbors)
	case c.Sampling.Steps <= 0:
		return fmt.Errorf("%w: sampling.steps %d must be > 0", ErrInvalidConfig, c.Sampling.Steps)
	case c.Sampling.EndTime < c.Sampling.StartTime:
		return fmt.Errorf("%w: sampling.end_time %v before start_time %v", ErrInvalidConfig, c.Sampling.EndTime, c.Sampling.StartTime)
	case c.Sampling.Workers < 0:
		return fmt.Errorf("%w: sampling.workers %d", ErrInvalidConfig, c.Sampling.Workers)
	case c.Telemetry.PerfWindow <= 0:
		return fmt.Errorf("%w: telemetry.perf_window %d must be > 0", ErrInvalidConfig, c.Telemetry.PerfWindow)
	}

	for axis := 0; axis < 3; axis++ {
		if c.Points.BoundsMax[axis] < c.Points.BoundsMin[axis] {
			return fmt.Errorf("%w: points bounds inverted on axis %d", ErrInvalidConfig, axis)
		}
		if c.Reference.Grid[axis] < 1 {
			return fmt.Errorf("%w: reference.grid[%d] = %d", ErrInvalidConfig, axis, c.Reference.Grid[axis])
		}
		// Several grid nodes on a flat axis would share a position.
		if c.Points.BoundsMax[axis] == c.Points.BoundsMin[axis] && c.Reference.Grid[axis] > 1 {
			return fmt.Errorf("%w: reference.grid[%d] = %d on a zero-extent axis", ErrInvalidConfig, axis, c.Reference.Grid[axis])
		}
		if c.Sampling.Resolution[axis] < 1 {
			return fmt.Errorf("%w: sampling.resolution[%d] = %d", ErrInvalidConfig, axis, c.Sampling.Resolution[axis])
		}
	}

	switch c.Sampling.Mode {
	case ModeScatter, ModeReference:
	default:
		return fmt.Errorf("%w: sampling.mode %q", ErrInvalidConfig, c.Sampling.Mode)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	for axis := 0; axis < 3; axis++ {
		c.Derived.Extent[axis] = c.Points.BoundsMax[axis] - c.Points.BoundsMin[axis]
	}

	c.Derived.PointCount = c.Points.Count
	if len(c.Points.Anchors) > 0 {
		c.Derived.PointCount = len(c.Points.Anchors)
	}

	r := c.Sampling.Resolution
	c.Derived.SampleCount = r[0] * r[1] * r[2]

	c.Derived.TimeDelta = 0
	if c.Sampling.Steps > 1 {
		c.Derived.TimeDelta = (c.Sampling.EndTime - c.Sampling.StartTime) / float64(c.Sampling.Steps-1)
	}
}

// Refresh revalidates c and recomputes derived values after fields were
// changed in code.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
