//Package driver runs a Universe on a cadence and serialises every command sent to it.
//All Universe calls happen on one control goroutine; viewers only receive owned Frame copies.
package driver

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"bitlife/src/universe"
)

//ErrClosed is returned by synchronous commands after Close
var ErrClosed = errors.New("driver closed")

//Options represents the driver's configurable options
type Options struct {
	Interval        time.Duration //pause between two generations while running
	MaxSteps        int           //finish after this generation, 0 means unlimited
	MaxSkippedTicks int
	StopWhenStable  bool //finish when no cell is alive or nothing changed
	Logger          *slog.Logger
}

//default options
const (
	DefInterval        = time.Millisecond * 100
	DefMaxSteps        = 1000
	DefMaxSkippedTicks = 5
)

var DefaultOptions = Options{
	Interval:        DefInterval,
	MaxSteps:        DefMaxSteps,
	MaxSkippedTicks: DefMaxSkippedTicks,
	StopWhenStable:  true,
}

//RunningState is the driver running status at the concrete moment
type RunningState int

const (
	RunningStateManual   RunningState = 0x0
	RunningStateStep     RunningState = 0x1
	RunningStateRun      RunningState = 0x2
	RunningStateFinished RunningState = 0x3
)

func (s RunningState) String() string {
	switch s {
	case RunningStateManual:
		return "manual"
	case RunningStateStep:
		return "step"
	case RunningStateRun:
		return "run"
	case RunningStateFinished:
		return "finished"
	}
	return fmt.Sprintf("RunningState(%d)", int(s))
}

//Status is the universe status plus the driver state
type Status struct {
	universe.Status
	RunningMode RunningState
	Interval    time.Duration
}

//LogValue implements slog.LogValuer
func (s Status) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("universe", s.Status),
		slog.String("mode", s.RunningMode.String()),
		slog.Duration("interval", s.Interval),
	)
}

//Frame is an owned snapshot handed to viewers after every command
type Frame struct {
	Width  int
	Height int
	Cells  []byte //packed, bit i is cell (i/Width, i%Width), LSB first
	Status Status
}

//Alive reports the state of cell row, col; coordinates outside the frame are dead
func (f Frame) Alive(row int, col int) bool {
	if row < 0 || col < 0 || row >= f.Height || col >= f.Width {
		return false
	}
	i := row*f.Width + col
	return f.Cells[i>>3]&(1<<uint(i&7)) != 0
}

//Viewer is the interface to any Viewer - the object who can display simulation data or control the driver
type Viewer interface {
	Refresh(f Frame)
	Register(d *Driver)
	Start()
}

//Driver owns the Universe and drives it
type Driver struct {
	u       *universe.Universe
	options Options
	state   struct {
		Status
		runID uint64 //id of the only run loop allowed to tick
		sync.Mutex
	}
	stateCh   chan Status
	views     []Viewer
	controlCh chan func()
	closeCh   chan bool
	closed    chan struct{}
	closeOnce sync.Once
	log       *slog.Logger
}

//New creates the driver and starts its control loop
//when stateCh is not nil every state switch is written to it, the caller must drain it
func New(u *universe.Universe, o *Options, stateCh chan Status) *Driver {
	if o == nil {
		d := DefaultOptions
		o = &d
	}
	d := &Driver{
		u:         u,
		options:   *o,
		stateCh:   stateCh,
		controlCh: make(chan func(), 1),
		closeCh:   make(chan bool, 1),
		closed:    make(chan struct{}),
		log:       o.Logger,
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	d.state.Interval = o.Interval
	d.state.Status.Status = u.Status()
	go d.mainLoop()
	return d
}

//RegisterViewer registers the viewer - the driver will call the viewer when the state is changed
func (d *Driver) RegisterViewer(v Viewer) {
	_ = d.exec(func() {
		d.views = append(d.views, v)
	})
	v.Register(d)
}

//StateCh returns the channel with the status updates
func (d *Driver) StateCh() chan Status {
	return d.stateCh
}

//Status returns the status as of the last command
func (d *Driver) Status() Status {
	d.state.Lock()
	defer d.state.Unlock()
	return d.state.Status
}

//Options returns the driver configuration
func (d *Driver) Options() Options {
	return d.options
}

//UniverseOptions returns the configuration of the driven universe
func (d *Driver) UniverseOptions() universe.Options {
	return d.u.Options()
}

//Interval returns the current pause between two generations
func (d *Driver) Interval() time.Duration {
	d.state.Lock()
	defer d.state.Unlock()
	return d.state.Interval
}

//SetRate sets the tick rate in generations per second
func (d *Driver) SetRate(ticksPerSecond float64) error {
	if math.IsNaN(ticksPerSecond) || math.IsInf(ticksPerSecond, 0) || ticksPerSecond <= 0 {
		return fmt.Errorf("tick rate %v: %w", ticksPerSecond, universe.ErrInvalidArgument)
	}
	iv := time.Duration(float64(time.Second) / ticksPerSecond)
	d.state.Lock()
	d.state.Interval = iv
	d.state.Unlock()
	d.log.Debug("tick rate changed", slog.Float64("rate", ticksPerSecond), slog.Duration("interval", iv))
	return nil
}

//Rate returns the tick rate in generations per second, 0 means as fast as possible
func (d *Driver) Rate() float64 {
	iv := d.Interval()
	if iv <= 0 {
		return 0
	}
	return float64(time.Second) / float64(iv)
}

//Run starts the simulation, returns immediately
func (d *Driver) Run() {
	_ = d.send(d.run)
}

//Stop pauses the simulation, returns immediately
func (d *Driver) Stop() {
	_ = d.send(d.stop)
}

//Toggle runs a paused simulation and pauses a running one, returns immediately
func (d *Driver) Toggle() {
	_ = d.send(func() {
		if d.runningMode() == RunningStateRun {
			d.stop()
		} else {
			d.run()
		}
	})
}

//Step does one simulation step, returns immediately
func (d *Driver) Step() {
	_ = d.send(d.step)
}

//Clear pauses the simulation and kills all cells, returns immediately
func (d *Driver) Clear() {
	_ = d.send(d.clear)
}

//Do runs f on the control goroutine and returns its error
//the frame is refreshed afterwards
func (d *Driver) Do(f func(u *universe.Universe) error) error {
	var err error
	if cerr := d.exec(func() {
		err = f(d.u)
		d.syncStatus()
		d.refreshView()
	}); cerr != nil {
		return cerr
	}
	return err
}

//ToggleCell inverses the cell at row, col
func (d *Driver) ToggleCell(row int, col int) error {
	return d.Do(func(u *universe.Universe) error {
		return u.ToggleCell(row, col)
	})
}

//Randomize pauses the simulation and refills the universe with live probability p
func (d *Driver) Randomize(p float64) error {
	return d.Do(func(u *universe.Universe) error {
		if err := u.SetRandom(p); err != nil {
			return err
		}
		d.syncStatus()
		d.switchRunningState(RunningStateManual)
		return nil
	})
}

//Settle makes the listed row, col cells alive
func (d *Driver) Settle(vc [][]int) error {
	return d.Do(func(u *universe.Universe) error {
		return u.Settle(vc)
	})
}

//SettleTemplate places the named template at row, col
func (d *Driver) SettleTemplate(name string, row int, col int) error {
	return d.Do(func(u *universe.Universe) error {
		return u.SettleTemplate(name, row, col)
	})
}

//Frame returns a snapshot of the current generation
func (d *Driver) Frame() (Frame, error) {
	var f Frame
	err := d.exec(func() {
		f = d.frame()
	})
	return f, err
}

//Close stops the main loop and waits for it to exit
//it must not be called from a Viewer's Refresh
func (d *Driver) Close() {
	d.closeOnce.Do(func() {
		d.closeCh <- true
	})
	<-d.closed
}

//mainLoop - the main cycle, should start as a goroutine
//waits for command and executes
func (d *Driver) mainLoop() {
	for {
		select {
		case cmd := <-d.controlCh:
			cmd()
		case <-d.closeCh:
			close(d.closed)
			return
		}
	}
}

//send queues the command, false if the driver is closed
func (d *Driver) send(cmd func()) bool {
	select {
	case <-d.closed:
		return false
	default:
	}
	select {
	case d.controlCh <- cmd:
		return true
	case <-d.closed:
		return false
	}
}

//exec runs the command on the control goroutine and waits for it
func (d *Driver) exec(cmd func()) error {
	done := make(chan struct{})
	if !d.send(func() {
		cmd()
		close(done)
	}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-d.closed:
		return ErrClosed
	}
}

func (d *Driver) runningMode() RunningState {
	d.state.Lock()
	defer d.state.Unlock()
	return d.state.RunningMode
}

//syncStatus copies the universe status, control goroutine only
func (d *Driver) syncStatus() {
	st := d.u.Status()
	d.state.Lock()
	d.state.Status.Status = st
	d.state.Unlock()
}

//switchRunningState switch the state of the driver to RunningState
//also writes the new state to the stateCh to signal upper control software
func (d *Driver) switchRunningState(to RunningState) {
	d.state.Lock()
	d.state.RunningMode = to
	st := d.state.Status
	d.state.Unlock()
	if d.stateCh != nil {
		d.stateCh <- st
	}
}

//run starts the simulation loop
//the loop stops on Stop() calling or when the boundary conditions are reached
//a new run retires every older loop, even one still sleeping between two ticks
func (d *Driver) run() {
	if mode := d.runningMode(); mode == RunningStateRun {
		return
	}
	d.state.Lock()
	d.state.runID++
	id := d.state.runID
	d.state.Unlock()
	d.switchRunningState(RunningStateRun)
	go func() {
		skipped := 0
		done := make(chan bool, 1)
		for {
			mode, current := d.loopState(id)
			if !current || (mode != RunningStateRun && mode != RunningStateStep) {
				break
			}
			if skipped > d.options.MaxSkippedTicks {
				d.log.Warn("simulation stopped, too many skipped ticks", slog.Int("skipped", skipped))
				_ = d.send(func() {
					if _, current := d.loopState(id); current {
						d.switchRunningState(RunningStateFinished)
					}
				})
				break
			}
			//skip the tick if the universe is still in the calculation mode
			if mode != RunningStateStep {
				skipped = 0
				if !d.send(func() {
					//Stop() or another Run() may have been queued before this tick
					if mode, current := d.loopState(id); current && mode == RunningStateRun {
						d.step()
					}
					done <- true
				}) {
					return
				}
				select {
				case <-done:
				case <-d.closed:
					return
				}
			} else {
				skipped++
			}
			if iv := d.Interval(); iv > 0 {
				time.Sleep(iv)
			}
		}
	}()
}

//loopState returns the running mode and whether the loop with id is still the current one
func (d *Driver) loopState(id uint64) (RunningState, bool) {
	d.state.Lock()
	defer d.state.Unlock()
	return d.state.RunningMode, d.state.runID == id
}

//stop stops the running cycle
func (d *Driver) stop() {
	if d.runningMode() == RunningStateRun {
		d.switchRunningState(RunningStateManual)
	}
}

//step does the next generation calculation for the entire universe
func (d *Driver) step() {
	finished := false
	rm := d.runningMode()
	if rm == RunningStateFinished {
		rm = RunningStateManual
	}
	maxSteps := d.options.MaxSteps
	defer func() {
		d.syncStatus()
		if finished {
			d.switchRunningState(RunningStateFinished)
		} else {
			d.switchRunningState(rm)
		}
		d.refreshView()
	}()

	if maxSteps != 0 && d.u.Status().Generation >= maxSteps {
		finished = true
		return
	}
	d.switchRunningState(RunningStateStep)
	if err := d.u.Tick(); err != nil {
		d.log.Error("tick failed", slog.Any("error", err))
		finished = true
		return
	}
	st := d.u.Status()
	if maxSteps != 0 && st.Generation >= maxSteps {
		finished = true
	}
	if d.options.StopWhenStable && (st.LiveCells == 0 || !st.Changed) {
		finished = true
	}
	if finished {
		d.log.Info("simulation finished", slog.Any("status", st))
	}
}

//clear kills all cells, resets the counters and pauses the simulation
func (d *Driver) clear() {
	d.u.SetBlank()
	d.syncStatus()
	d.switchRunningState(RunningStateManual)
	d.refreshView()
}

//frame builds an owned snapshot, control goroutine only
func (d *Driver) frame() Frame {
	c := d.u.Cells()
	return Frame{
		Width:  d.u.Width(),
		Height: d.u.Height(),
		Cells:  c.Clone(),
		Status: d.Status(),
	}
}

//refreshView calls Refresh event for all registered views
func (d *Driver) refreshView() {
	if len(d.views) == 0 {
		return
	}
	f := d.frame()
	for _, v := range d.views {
		v.Refresh(f)
	}
}
