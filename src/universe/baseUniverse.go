package universe

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

//Universe is the bit-packed Game of Life engine
//it is not safe for concurrent use; a single owner drives every call
type Universe struct {
	options   Options
	cells     *Grid
	status    Status
	templates map[string]Template
	rnd       *rand.Rand
	//nextIteration computes the next generation and swaps it in, installed by the engine
	nextIteration func() (liveCells int, changed bool, err error)
}

//engines installs the nextIteration of every known engine
var engines = map[string]func(u *Universe) error{
	EngineBase:          installBase,
	EngineSimple:        installSimple,
	EngineMultithreaded: installMultithreaded,
}

//EngineNames returns the names of the known engines
func EngineNames() []string {
	return []string{EngineBase, EngineSimple, EngineMultithreaded}
}

//New creates a blank toroidal universe of width x height cells
func New(width int, height int) (*Universe, error) {
	o := DefaultOptions()
	o.Width = width
	o.Height = height
	return NewWithOptions(&o)
}

//NewWithOptions creates the universe described by o, nil means DefaultOptions
func NewWithOptions(o *Options) (*Universe, error) {
	if o == nil {
		d := DefaultOptions()
		o = &d
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	g, err := createGrid(o.Width, o.Height, o.MaxCells)
	if err != nil {
		return nil, err
	}
	u := &Universe{
		options:   *o,
		cells:     g,
		templates: make(map[string]Template, len(builtinTemplates)),
	}
	for name, tmpl := range builtinTemplates {
		u.templates[name] = tmpl
	}
	u.status.Details = map[string]interface{}{"engine": o.Engine}
	if err := engines[o.Engine](u); err != nil {
		return nil, err
	}

	switch o.Fill {
	case FillRandom:
		if err := u.SetRandom(o.Density); err != nil {
			return nil, err
		}
	case FillStripes:
		for i := 0; i < g.Len(); i++ {
			g.set(i, i%2 == 0 || i%7 == 0)
		}
	case FillTemplate:
		if err := u.SettleTemplate(o.Template, 0, 0); err != nil {
			return nil, err
		}
	}
	u.status.LiveCells = g.count()
	return u, nil
}

//Width returns the number of columns
func (u *Universe) Width() int {
	return u.cells.Width
}

//Height returns the number of rows
func (u *Universe) Height() int {
	return u.cells.Height
}

//Cells returns a read-only view of the current generation
//the view is invalidated by the next Tick, ToggleCell, SetCell, Settle, SetRandom or SetBlank
func (u *Universe) Cells() Cells {
	return Cells{width: u.cells.Width, height: u.cells.Height, bits: u.cells.bits}
}

//Options returns the universe configuration
func (u *Universe) Options() Options {
	return u.options
}

//Status returns the status after the last mutation
func (u *Universe) Status() Status {
	return u.status
}

//LiveCells returns the number of live cells
func (u *Universe) LiveCells() int {
	return u.status.LiveCells
}

//index validates row, col and returns the bit index
func (u *Universe) index(row int, col int) (int, error) {
	if row < 0 || col < 0 || row >= u.cells.Height || col >= u.cells.Width {
		return 0, fmt.Errorf("cell (%d,%d) outside %dx%d: %w", row, col, u.cells.Width, u.cells.Height, ErrOutOfRange)
	}
	return row*u.cells.Width + col, nil
}

//ToggleCell inverses the state of the cell at row, col
func (u *Universe) ToggleCell(row int, col int) error {
	i, err := u.index(row, col)
	if err != nil {
		return err
	}
	u.cells.toggle(i)
	if u.cells.get(i) {
		u.status.LiveCells++
	} else {
		u.status.LiveCells--
	}
	return nil
}

//SetCell sets the state of the cell at row, col
func (u *Universe) SetCell(row int, col int, alive bool) error {
	i, err := u.index(row, col)
	if err != nil {
		return err
	}
	if u.cells.get(i) != alive {
		u.cells.set(i, alive)
		if alive {
			u.status.LiveCells++
		} else {
			u.status.LiveCells--
		}
	}
	return nil
}

//Alive reports the state of the cell at row, col
func (u *Universe) Alive(row int, col int) (bool, error) {
	i, err := u.index(row, col)
	if err != nil {
		return false, err
	}
	return u.cells.get(i), nil
}

//Settle makes the cells alive
//vc - array of row, col coordinates, nothing is changed if any of them is outside the grid
func (u *Universe) Settle(vc [][]int) error {
	idx := make([]int, 0, len(vc))
	for _, v := range vc {
		if len(v) != 2 {
			return fmt.Errorf("coordinate %v: %w", v, ErrInvalidArgument)
		}
		i, err := u.index(v[0], v[1])
		if err != nil {
			return err
		}
		idx = append(idx, i)
	}
	for _, i := range idx {
		u.cells.set(i, true)
	}
	u.status.LiveCells = u.cells.count()
	return nil
}

//SetRandom makes every cell alive with probability p, independently
func (u *Universe) SetRandom(p float64) error {
	if err := CheckProbability(p); err != nil {
		return err
	}
	if u.rnd == nil {
		seed := u.options.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		u.rnd = rand.New(rand.NewSource(seed))
	}
	for i := 0; i < u.cells.Len(); i++ {
		u.cells.set(i, u.rnd.Float64() < p)
	}
	u.reset()
	return nil
}

//SetBlank kills every cell
func (u *Universe) SetBlank() {
	u.cells.clear()
	u.reset()
}

//reset clears the counters after the grid content was replaced
func (u *Universe) reset() {
	u.status.Generation = 0
	u.status.Changed = false
	u.status.IterationTime = 0
	u.status.LiveCells = u.cells.count()
}

//Tick computes the next generation
//on error the current generation is left untouched
func (u *Universe) Tick() error {
	start := time.Now()
	liveCells, changed, err := u.nextIteration()
	if err != nil {
		return fmt.Errorf("generation %d: %w", u.status.Generation+1, err)
	}
	u.status.Generation++
	u.status.LiveCells = liveCells
	u.status.Changed = changed
	u.status.IterationTime = time.Since(start)
	return nil
}

//String renders the grid, one line per row
func (u *Universe) String() string {
	var b strings.Builder
	for row := 0; row < u.cells.Height; row++ {
		for col := 0; col < u.cells.Width; col++ {
			if u.cells.get(row*u.cells.Width + col) {
				b.WriteRune('◼')
			} else {
				b.WriteRune('◻')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

//calcRange writes the next state of cells [start, end) into next
//it only reads the current generation
func (u *Universe) calcRange(next *Grid, start int, end int) (liveCells int, changed bool) {
	cur := u.cells
	w := cur.Width
	for i := start; i < end; i++ {
		alive := cur.get(i)
		n := u.liveNeighbours(i/w, i%w)
		nextState := n == 3 || (n == 2 && alive)
		next.set(i, nextState)
		if nextState {
			liveCells++
		}
		changed = changed || nextState != alive
	}
	return
}

//liveNeighbours counts the live cells of the Moore neighbourhood
//on a torus narrower than 3 cells the same neighbour may be counted more than once
func (u *Universe) liveNeighbours(row int, col int) (n int) {
	cur := u.cells
	w, h := cur.Width, cur.Height
	torus := u.options.Edge == EdgeTorus
	for i := -1; i < 2; i++ {
		r := row + i
		if r < 0 || r >= h {
			if !torus {
				continue
			}
			r = (r + h) % h
		}
		for j := -1; j < 2; j++ {
			//skip my position
			if i == 0 && j == 0 {
				continue
			}
			c := col + j
			if c < 0 || c >= w {
				if !torus {
					continue
				}
				c = (c + w) % w
			}
			if cur.get(r*w + c) {
				n++
			}
		}
	}
	return
}

//installBase sets up the simplest engine: a new buffer is allocated on each call
//all cells are calculated into it and then it replaces the current one
func installBase(u *Universe) error {
	u.nextIteration = func() (int, bool, error) {
		next, err := createGrid(u.cells.Width, u.cells.Height, u.options.MaxCells)
		if err != nil {
			return 0, false, err
		}
		liveCells, changed := u.calcRange(next, 0, next.Len())
		u.cells = next
		return liveCells, changed, nil
	}
	return nil
}
