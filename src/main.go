package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/integrii/flaggy"

	"bitlife/src/config"
	"bitlife/src/driver"
	"bitlife/src/stats"
	"bitlife/src/universe"
	"bitlife/src/view"
)

//EnvOptions are the command line switches that are not part of the config file
type EnvOptions struct {
	configPath  string
	interactive bool
	randomData  bool
	printGrid   bool
	verbose     bool
}

//overrides holds flag values, zero values (or -1 for maxSteps) mean "keep the config"
type overrides struct {
	width    int
	height   int
	interval time.Duration
	maxSteps int
	density  float64
	engine   string
	edge     string
	template string
	stats    string
}

func main() {
	eo, cfg, err := initOptions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, closeLog, err := newLogger(eo, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer closeLog()
	slog.SetDefault(logger)

	if err := run(eo, cfg, logger); err != nil {
		logger.Error("simulation failed", slog.Any("error", err))
		closeLog()
		os.Exit(1)
	}
}

func run(eo *EnvOptions, cfg *config.Config, logger *slog.Logger) error {
	uo := cfg.UniverseOptions()
	u, err := universe.NewWithOptions(&uo)
	if err != nil {
		return fmt.Errorf("creating universe: %w", err)
	}

	rec, err := stats.NewRecorder(cfg.Output.StatsFile)
	if err != nil {
		return err
	}
	defer rec.Close()

	stateCh := make(chan driver.Status, 10) //the buffered channel to getting the driver status
	do := cfg.DriverOptions(logger)
	d := driver.New(u, &do, stateCh)

	if eo.randomData {
		err = d.Randomize(cfg.Universe.Density)
	} else if uo.Fill == universe.FillBlank {
		err = seedBlank(d)
	}
	if err != nil {
		d.Close()
		return fmt.Errorf("seeding universe: %w", err)
	}
	logger.Info("universe created", slog.Int("width", u.Width()), slog.Int("height", u.Height()),
		slog.String("engine", uo.Engine), slog.String("edge", string(uo.Edge)))

	if eo.interactive {
		v, err := view.NewViewTerminal(cfg.Simulation.RandomDensity, logger)
		if err != nil {
			d.Close()
			return err
		}
		drained := make(chan struct{})
		go func() {
			defer close(drained)
			for st := range stateCh {
				if err := rec.Observe(st); err != nil {
					logger.Warn("stats not written", slog.Any("error", err))
				}
			}
		}()
		d.RegisterViewer(v)
		v.Start()
		d.Close()
		close(stateCh)
		<-drained
		return nil
	}

	out := view.NewConsoleOut(os.Stdout)
	out.PrintGrid = eo.printGrid
	d.RegisterViewer(out)
	out.Start()
	d.Run()
	for st := range stateCh {
		if err := rec.Observe(st); err != nil {
			logger.Warn("stats not written", slog.Any("error", err))
		}
		if st.RunningMode == driver.RunningStateFinished {
			break
		}
	}
	d.Close()
	return nil
}

//seedBlank places the sample pattern on a blank universe, grids too small for it stay blank
func seedBlank(d *driver.Driver) error {
	return d.Do(func(u *universe.Universe) error {
		if !u.TemplateFits("sample", 0, 0) {
			return nil
		}
		return u.SettleTemplate("sample", 0, 0)
	})
}

func initOptions() (eo *EnvOptions, cfg *config.Config, err error) {
	eo = &EnvOptions{}
	ov := overrides{maxSteps: -1}

	flaggy.SetName("bitlife")
	flaggy.SetDescription("\"The Life\" game on a bit-packed grid")
	flaggy.DefaultParser.ShowHelpOnUnexpected = true
	flaggy.String(&eo.configPath, "c", "config", "YAML config file, built-in defaults when omitted")
	flaggy.Int(&ov.width, "x", "width", "Width of a simulation field")
	flaggy.Int(&ov.height, "y", "height", "Height of a simulation field")
	flaggy.Duration(&ov.interval, "i", "interval", "Simulation speed (interval between the steps) in format the number with 'ms' suffix, for example 150ms")
	flaggy.Int(&ov.maxSteps, "s", "maxSteps", "Limit the simulation to maxSteps, 0 is unlimited")
	flaggy.Bool(&eo.interactive, "n", "interactive", "Start interactive mode")
	flaggy.Bool(&eo.randomData, "r", "random", "Settle with random data")
	flaggy.Float64(&ov.density, "d", "density", "Live cell probability for random data")
	flaggy.String(&ov.engine, "e", "engine", "Engine to use ["+strings.Join(universe.EngineNames(), "|")+"]")
	flaggy.String(&ov.edge, "", "edge", "Edge policy [torus|dead]")
	flaggy.String(&ov.template, "t", "template", "Settle with a template ["+strings.Join(universe.TemplateNames(), "|")+"]")
	flaggy.String(&ov.stats, "", "stats", "Write per-generation statistics to this CSV file")
	flaggy.Bool(&eo.printGrid, "p", "print", "Print the last generation when finished")
	flaggy.Bool(&eo.verbose, "v", "verbose", "Debug logging")

	flaggy.Parse()

	cfg, err = config.Load(eo.configPath)
	if err != nil {
		return nil, nil, err
	}
	ov.apply(cfg)
	if err = cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return eo, cfg, nil
}

func (ov overrides) apply(cfg *config.Config) {
	if ov.width > 0 {
		cfg.Universe.Width = ov.width
	}
	if ov.height > 0 {
		cfg.Universe.Height = ov.height
	}
	if ov.interval > 0 {
		cfg.Simulation.Interval = ov.interval
	}
	if ov.maxSteps >= 0 {
		cfg.Simulation.MaxSteps = ov.maxSteps
	}
	if ov.density > 0 {
		cfg.Universe.Density = ov.density
		cfg.Simulation.RandomDensity = ov.density
	}
	if ov.engine != "" {
		cfg.Universe.Engine = ov.engine
	}
	if ov.edge != "" {
		cfg.Universe.Edge = ov.edge
	}
	if ov.template != "" {
		cfg.Universe.Fill = string(universe.FillTemplate)
		cfg.Universe.Template = ov.template
	}
	if ov.stats != "" {
		cfg.Output.StatsFile = ov.stats
	}
}

//newLogger logs to stderr in batch mode; the terminal UI owns the screen, so interactive mode logs to the configured file only
func newLogger(eo *EnvOptions, cfg *config.Config) (*slog.Logger, func(), error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	if eo.verbose {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	closeLog := func() {}
	if eo.interactive {
		w = io.Discard
		if cfg.Output.LogFile != "" {
			f, err := os.OpenFile(cfg.Output.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return nil, nil, fmt.Errorf("opening log file: %w", err)
			}
			w = f
			closeLog = func() { _ = f.Close() }
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeLog, nil
}
