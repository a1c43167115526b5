// Package config loads planner configuration from a YAML file with
// environment variable overrides. Every knob has a usable default, so an
// empty config plans missions.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Genetic holds the route optimizer knobs.
type Genetic struct {
	PopulationSize  int     `yaml:"population_size"`
	GenerationCount int     `yaml:"generation_count"`
	MutationRate    float64 `yaml:"mutation_rate"`
	CrossoverRate   float64 `yaml:"crossover_rate"`
}

// Telemetry holds OpenTelemetry export settings.
type Telemetry struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Environment  string `yaml:"environment"`
	// SampleRatio is the trace sampling fraction in (0, 1]. Zero samples
	// everything.
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Config is the full planner configuration.
type Config struct {
	// Algorithm is the leg planner: astar, theta_star, or dstar.
	Algorithm string `yaml:"algorithm"`
	// UseGrid plans over a discretized lattice instead of the waypoint
	// mesh.
	UseGrid bool `yaml:"use_grid"`
	// UseVRP assigns targets with the capacitated solver instead of an
	// even split.
	UseVRP bool `yaml:"use_vrp"`
	// UseGenetic refines each drone's visit order.
	UseGenetic bool `yaml:"use_genetic"`
	// UseWeather folds wind and safety limits into edge costs.
	UseWeather bool `yaml:"use_weather"`

	// GridResolution is the lattice cell size in meters.
	GridResolution float64 `yaml:"grid_resolution"`
	// VRPObjective is distance, energy, or balanced.
	VRPObjective string `yaml:"vrp_objective"`

	Genetic Genetic `yaml:"genetic"`

	// PlanTimeout bounds a whole planning run.
	PlanTimeout time.Duration `yaml:"plan_timeout"`
	// Workers caps concurrent per-drone planning (default: one per drone).
	Workers int `yaml:"workers"`

	LogLevel  string    `yaml:"log_level"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Algorithm:      "astar",
		UseGrid:        true,
		UseVRP:         true,
		UseGenetic:     true,
		UseWeather:     true,
		GridResolution: 200,
		VRPObjective:   "energy",
		Genetic: Genetic{
			PopulationSize:  50,
			GenerationCount: 100,
			MutationRate:    0.1,
			CrossoverRate:   0.8,
		},
		PlanTimeout: 2 * time.Minute,
		LogLevel:    "info",
		Telemetry: Telemetry{
			OTLPEndpoint: "localhost:4317",
			Environment:  "development",
		},
	}
}

// Load reads a YAML config file, falling back to defaults for absent keys,
// then applies environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers SKYROUTE_* environment variables over the file values.
func (c *Config) applyEnv() {
	c.Algorithm = getEnvOrDefault("SKYROUTE_ALGORITHM", c.Algorithm)
	c.LogLevel = getEnvOrDefault("SKYROUTE_LOG_LEVEL", c.LogLevel)
	c.VRPObjective = getEnvOrDefault("SKYROUTE_VRP_OBJECTIVE", c.VRPObjective)
	c.Telemetry.OTLPEndpoint = getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)

	if v, ok := envBool("SKYROUTE_USE_GRID"); ok {
		c.UseGrid = v
	}
	if v, ok := envBool("SKYROUTE_USE_VRP"); ok {
		c.UseVRP = v
	}
	if v, ok := envBool("SKYROUTE_USE_GENETIC"); ok {
		c.UseGenetic = v
	}
	if v, ok := envBool("SKYROUTE_USE_WEATHER"); ok {
		c.UseWeather = v
	}
	if v, ok := envBool("SKYROUTE_TELEMETRY_ENABLED"); ok {
		c.Telemetry.Enabled = v
	}
	if v := os.Getenv("SKYROUTE_GRID_RESOLUTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.GridResolution = f
		}
	}
	if v := os.Getenv("SKYROUTE_PLAN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PlanTimeout = d
		}
	}
}

// Validate rejects values the planner cannot run with.
func (c Config) Validate() error {
	switch c.Algorithm {
	case "astar", "theta_star", "dstar":
	default:
		return fmt.Errorf("unknown algorithm %q", c.Algorithm)
	}
	switch c.VRPObjective {
	case "", "distance", "energy", "balanced":
	default:
		return fmt.Errorf("unknown vrp objective %q", c.VRPObjective)
	}
	if c.GridResolution < 0 {
		return fmt.Errorf("grid resolution must be positive, got %v", c.GridResolution)
	}
	if c.Genetic.MutationRate < 0 || c.Genetic.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0, 1], got %v", c.Genetic.MutationRate)
	}
	if c.Genetic.CrossoverRate < 0 || c.Genetic.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be in [0, 1], got %v", c.Genetic.CrossoverRate)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be in [0, 1], got %v", c.Telemetry.SampleRatio)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
