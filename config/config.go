// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Flocking   FlockingConfig   `yaml:"flocking"`
	Agent      AgentConfig      `yaml:"agent"`
	Population PopulationConfig `yaml:"population"`
	Locomotion LocomotionConfig `yaml:"locomotion"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the graphical host.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the arena agents walk in. The arena is a square on the
// XZ plane centered on the origin.
type WorldConfig struct {
	HalfExtent float64 `yaml:"half_extent"`
}

// PhysicsConfig holds the fixed step.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// FlockingConfig holds the process-wide flocking settings.
type FlockingConfig struct {
	CellSize                  float64 `yaml:"cell_size"`
	CellZMultiplier           int32   `yaml:"cell_z_multiplier"` // key stride of one Z row
	SeparationWeight          float64 `yaml:"separation_weight"`
	AlignmentWeight           float64 `yaml:"alignment_weight"`
	CohesionWeight            float64 `yaml:"cohesion_weight"`
	NeighborAvoidanceStrength float64 `yaml:"neighbor_avoidance_strength"`
	Debug                     bool    `yaml:"debug"` // emit avoidance debug rays
}

// AgentConfig holds the per-agent tunables given to spawned agents.
type AgentConfig struct {
	SeparationRadius         float64 `yaml:"separation_radius"`
	AlignmentRadius          float64 `yaml:"alignment_radius"`
	CohesionRadius           float64 `yaml:"cohesion_radius"`
	NeighborAversionDistance float64 `yaml:"neighbor_aversion_distance"`
}

// PopulationConfig holds initial population parameters.
type PopulationConfig struct {
	Initial          int     `yaml:"initial"`
	SpawnRadius      float64 `yaml:"spawn_radius"`       // agents spawn uniformly in this disk
	FacingNoiseScale float64 `yaml:"facing_noise_scale"` // frequency of the initial facing field
}

// LocomotionConfig holds the reference locomotion consumer parameters.
type LocomotionConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Speed       float64 `yaml:"speed"`         // world units per second
	MaxTurnRate float64 `yaml:"max_turn_rate"` // radians per second
	EdgeMargin  float64 `yaml:"edge_margin"`   // soft turn distance from the arena edge
	EdgeTurn    float64 `yaml:"edge_turn"`     // inward steering added near the edge
}

// ParallelConfig holds worker pool settings.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // below this agent count work runs inline
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // seconds of simulated time per window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // ticks
	SnapshotEvery       int     `yaml:"snapshot_every"`        // ticks between snapshots, 0 = off
	BookmarkHistory     int     `yaml:"bookmark_history"`      // windows the bookmark detector compares against
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Workers        int   // effective worker count
	TicksPerWindow int32 // Telemetry.StatsWindow in ticks
	ArenaMin       float64
	ArenaMax       float64
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

// Defaults returns the embedded defaults with derived values computed.
func Defaults() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse merges a YAML document over the embedded defaults, validates the
// result and computes derived values. A nil document yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Unmarshal into same struct - only overwrites fields present in data
	if len(data) > 0 {
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

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Workers = c.Parallel.Workers
	if c.Derived.Workers <= 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}

	ticks := int32(c.Telemetry.StatsWindow / c.Physics.DT)
	if ticks < 1 {
		ticks = 1
	}
	c.Derived.TicksPerWindow = ticks

	c.Derived.ArenaMin = -c.World.HalfExtent
	c.Derived.ArenaMax = c.World.HalfExtent
}

// YAML returns the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
