package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bitlife/src/universe"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("embedded defaults are invalid: %v", err)
	}
	if cfg.Universe.Width != 64 || cfg.Universe.Height != 32 {
		t.Errorf("default size = %dx%d, want 64x32", cfg.Universe.Width, cfg.Universe.Height)
	}
	if cfg.Simulation.Interval != 100*time.Millisecond {
		t.Errorf("default interval = %v, want 100ms", cfg.Simulation.Interval)
	}
	o := cfg.UniverseOptions()
	if o.Edge != universe.EdgeTorus || o.Fill != universe.FillBlank || o.Engine != universe.EngineBase {
		t.Errorf("default universe options = %+v", o)
	}
	l, err := cfg.LogLevel()
	if err != nil || l != slog.LevelInfo {
		t.Errorf("LogLevel() = %v, %v", l, err)
	}
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "life.yaml")
	data := []byte(`
universe:
  width: 6
  height: 6
  edge: dead
  fill: template
  template: glider
simulation:
  interval: 25ms
  max_steps: 0
output:
  log_level: debug
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Universe.Width != 6 || cfg.Universe.Edge != "dead" || cfg.Universe.Template != "glider" {
		t.Errorf("universe section not overlaid: %+v", cfg.Universe)
	}
	if cfg.Universe.Engine != "base" {
		t.Errorf("engine = %q, want the default kept", cfg.Universe.Engine)
	}
	d := cfg.DriverOptions(nil)
	if d.Interval != 25*time.Millisecond || d.MaxSteps != 0 || !d.StopWhenStable {
		t.Errorf("driver options = %+v", d)
	}
	if l, _ := cfg.LogLevel(); l != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", l)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero width", "universe:\n  width: 0\n"},
		{"bad edge", "universe:\n  edge: mirror\n"},
		{"bad density", "universe:\n  density: 2\n"},
		{"nan density", "universe:\n  density: .nan\n"},
		{"nan random density", "simulation:\n  random_density: .nan\n"},
		{"random density above one", "simulation:\n  random_density: 1.5\n"},
		{"negative interval", "simulation:\n  interval: -1s\n"},
		{"bad log level", "output:\n  log_level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, universe.ErrInvalidArgument) {
				t.Errorf("Load() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Universe.Width = 17
	cfg.Simulation.Interval = 3 * time.Second
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Universe.Width != 17 || got.Simulation.Interval != 3*time.Second {
		t.Errorf("round trip = %+v", got)
	}
}
