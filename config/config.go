// Package config provides configuration loading and access for the navigation subsystem.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all navigation configuration parameters.
type Config struct {
	NavGrid   NavGridConfig   `yaml:"navgrid"`
	Regions   RegionsConfig   `yaml:"regions"`
	Search    SearchConfig    `yaml:"search"`
	Travel    TravelConfig    `yaml:"travel"`
	Units     []UnitConfig    `yaml:"units"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Bench     BenchConfig     `yaml:"bench"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// NavGridConfig holds navigation grid parameters.
type NavGridConfig struct {
	ProximityPenalty    int    `yaml:"proximity_penalty"`     // Extra cost for entering tiles near obstacles (0 disables)
	WaypointHops        int    `yaml:"waypoint_hops"`         // Pointers followed for a steering target
	CheckHops           int    `yaml:"check_hops"`            // Step cap when walking a grid path
	CloseCost           uint32 `yaml:"close_cost"`            // Grid cost under which a tile counts as arrived
	NearestGoalDistance int    `yaml:"nearest_goal_distance"` // Max pixels from a query to a grid's goal
	VerifyHops          int    `yaml:"verify_hops"`           // Hops followed by the invariant checker
	BaseWidth           int    `yaml:"base_width"`            // Base footprint in tiles
	BaseHeight          int    `yaml:"base_height"`
}

// RegionsConfig holds region graph parameters.
type RegionsConfig struct {
	NarrowWidthThreshold int `yaml:"narrow_width_threshold"` // Passages narrower than this (pixels) are narrow
	WidthPadding         int `yaml:"width_padding"`          // Added to a passage's end-to-end distance
}

// SearchConfig holds tile search parameters.
type SearchConfig struct {
	AllowDiagonal bool `yaml:"allow_diagonal"`
}

// TravelConfig holds travel time estimation parameters.
type TravelConfig struct {
	PenaltyFactor         float64 `yaml:"penalty_factor"`          // Ground distance overshoot multiplier
	DefaultIfInaccessible int     `yaml:"default_if_inaccessible"` // Frames reported for unreachable targets
}

// UnitConfig describes the shape and abilities of one unit type.
type UnitConfig struct {
	Name             string  `yaml:"name"`
	Width            int     `yaml:"width"`     // pixels
	Height           int     `yaml:"height"`    // pixels
	TopSpeed         float64 `yaml:"top_speed"` // pixels per frame
	Flyer            bool    `yaml:"flyer"`
	SpecialTraversal bool    `yaml:"special_traversal"` // may cross special-traversal passages
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// BenchConfig holds parameters for the headless obstacle churn benchmark.
type BenchConfig struct {
	Ticks        int   `yaml:"ticks"`
	ChurnPerTick int   `yaml:"churn_per_tick"` // Obstacle changes applied each tick
	MaxObstacle  int   `yaml:"max_obstacle"`   // Largest obstacle side in tiles
	VerifyEvery  int   `yaml:"verify_every"`   // Ticks between invariant checks (0 disables)
	QueryEvery   int   `yaml:"query_every"`    // Ticks between travel queries (0 disables)
	Seed         int64 `yaml:"seed"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	UnitIndex map[string]int // name -> index into Units
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
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// Unit returns the unit type with the given name.
func (c *Config) Unit(name string) (UnitConfig, bool) {
	i, ok := c.Derived.UnitIndex[name]
	if !ok {
		return UnitConfig{}, false
	}
	return c.Units[i], true
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.NavGrid.WaypointHops <= 0 {
		c.NavGrid.WaypointHops = 3
	}
	if c.NavGrid.VerifyHops <= 0 {
		c.NavGrid.VerifyHops = 5
	}

	// Units without an explicit height are square
	for i := range c.Units {
		if c.Units[i].Height == 0 {
			c.Units[i].Height = c.Units[i].Width
		}
	}

	c.Derived.UnitIndex = make(map[string]int, len(c.Units))
	for i, u := range c.Units {
		c.Derived.UnitIndex[u.Name] = i
	}
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
