// Package config provides configuration loading for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bitlife/src/driver"
	"bitlife/src/universe"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Universe   UniverseConfig   `yaml:"universe"`
	Simulation SimulationConfig `yaml:"simulation"`
	Output     OutputConfig     `yaml:"output"`
}

// UniverseConfig describes the grid and its engine.
type UniverseConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Engine   string  `yaml:"engine"`    // base, simple or multithreaded
	Edge     string  `yaml:"edge"`      // torus or dead
	Fill     string  `yaml:"fill"`      // blank, random, stripes or template
	Density  float64 `yaml:"density"`   // live probability for the random fill
	Template string  `yaml:"template"`  // built-in template for the template fill
	Workers  int     `yaml:"workers"`   // 0 = GOMAXPROCS
	MaxCells int     `yaml:"max_cells"` // 0 = engine default
	Seed     int64   `yaml:"seed"`      // 0 = seeded from the clock
}

// SimulationConfig holds the driver cadence and stop conditions.
type SimulationConfig struct {
	Interval        time.Duration `yaml:"interval"`
	MaxSteps        int           `yaml:"max_steps"` // 0 = unlimited
	MaxSkippedTicks int           `yaml:"max_skipped_ticks"`
	StopWhenStable  bool          `yaml:"stop_when_stable"`
	RandomDensity   float64       `yaml:"random_density"` // used by the "random" key in the UI
}

// OutputConfig holds logging and statistics output.
type OutputConfig struct {
	StatsFile string `yaml:"stats_file"` // CSV path, empty disables
	LogLevel  string `yaml:"log_level"`  // debug, info, warn or error
	LogFile   string `yaml:"log_file"`   // interactive mode only, empty discards the log
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("parsing embedded defaults: %v", err))
	}
	return cfg
}

// Load reads the embedded defaults and overlays the file at path, if any.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	o := c.UniverseOptions()
	if err := o.Validate(); err != nil {
		return fmt.Errorf("universe: %w", err)
	}
	s := c.Simulation
	if s.Interval < 0 {
		return fmt.Errorf("simulation: interval %v: %w", s.Interval, universe.ErrInvalidArgument)
	}
	if s.MaxSteps < 0 || s.MaxSkippedTicks < 0 {
		return fmt.Errorf("simulation: negative step limit: %w", universe.ErrInvalidArgument)
	}
	if err := universe.CheckProbability(s.RandomDensity); err != nil {
		return fmt.Errorf("simulation: random density: %w", err)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// UniverseOptions converts the universe section.
func (c *Config) UniverseOptions() universe.Options {
	u := c.Universe
	return universe.Options{
		Width:    u.Width,
		Height:   u.Height,
		Edge:     universe.Edge(u.Edge),
		Fill:     universe.Fill(u.Fill),
		Density:  u.Density,
		Template: u.Template,
		Engine:   u.Engine,
		Workers:  u.Workers,
		MaxCells: u.MaxCells,
		Seed:     u.Seed,
	}
}

// DriverOptions converts the simulation section.
func (c *Config) DriverOptions(logger *slog.Logger) driver.Options {
	s := c.Simulation
	return driver.Options{
		Interval:        s.Interval,
		MaxSteps:        s.MaxSteps,
		MaxSkippedTicks: s.MaxSkippedTicks,
		StopWhenStable:  s.StopWhenStable,
		Logger:          logger,
	}
}

// LogLevel parses the output log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.Output.LogLevel))); err != nil {
		return 0, fmt.Errorf("output: log level %q: %w", c.Output.LogLevel, universe.ErrInvalidArgument)
	}
	return l, nil
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
