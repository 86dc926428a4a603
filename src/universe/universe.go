package universe

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

//Edge is the neighbour policy at the grid border
type Edge string

//Fill is the policy used to populate a freshly created grid
type Fill string

const (
	//EdgeTorus wraps opposite edges onto each other
	EdgeTorus Edge = "torus"
	//EdgeDead treats off-grid neighbours as dead
	EdgeDead Edge = "dead"
)

const (
	FillBlank    Fill = "blank"
	FillRandom   Fill = "random"
	FillStripes  Fill = "stripes" //cell i alive when i%2==0 || i%7==0
	FillTemplate Fill = "template"
)

//engine names
const (
	EngineBase          = "base"
	EngineSimple        = "simple"
	EngineMultithreaded = "multithreaded"
)

//default options
const (
	DefWidth   = 64
	DefHeight  = 32
	DefDensity = 0.25
)

//Options represents the Universe's configurable options
type Options struct {
	Width    int
	Height   int
	Edge     Edge
	Fill     Fill
	Density  float64 //probability of a live cell for FillRandom
	Template string  //built-in template name for FillTemplate
	Engine   string
	Workers  int   //multithreaded engine only, 0 means GOMAXPROCS
	MaxCells int   //allocation guard, 0 means DefMaxCells
	Seed     int64 //0 seeds the random source from the clock
}

//DefaultOptions returns the options used by New
func DefaultOptions() Options {
	return Options{
		Width:   DefWidth,
		Height:  DefHeight,
		Edge:    EdgeTorus,
		Fill:    FillBlank,
		Density: DefDensity,
		Engine:  EngineBase,
	}
}

//Validate checks the options without allocating anything
func (o *Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("dimensions %dx%d: %w", o.Width, o.Height, ErrInvalidArgument)
	}
	switch o.Edge {
	case EdgeTorus, EdgeDead:
	default:
		return fmt.Errorf("edge policy %q: %w", o.Edge, ErrInvalidArgument)
	}
	switch o.Fill {
	case FillBlank, FillRandom, FillStripes:
	case FillTemplate:
		if _, ok := builtinTemplates[o.Template]; !ok {
			return fmt.Errorf("template %q: %w", o.Template, ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("fill policy %q: %w", o.Fill, ErrInvalidArgument)
	}
	if err := CheckProbability(o.Density); err != nil {
		return err
	}
	if _, ok := engines[o.Engine]; !ok {
		return fmt.Errorf("engine %q: %w", o.Engine, ErrInvalidArgument)
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers %d: %w", o.Workers, ErrInvalidArgument)
	}
	return nil
}

//CheckProbability returns ErrInvalidArgument unless p is a number in [0, 1]
func CheckProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("probability %v: %w", p, ErrInvalidArgument)
	}
	return nil
}

//Status represents the status of the Universe after the last mutation
type Status struct {
	Generation    int
	LiveCells     int
	Changed       bool
	IterationTime time.Duration
	Details       map[string]interface{} //engine specific details
}

//LogValue implements slog.LogValuer
func (s Status) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("live_cells", s.LiveCells),
		slog.Bool("changed", s.Changed),
		slog.Duration("iteration_time", s.IterationTime),
	)
}
