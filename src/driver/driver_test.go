package driver

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"bitlife/src/universe"
)

func newTestDriver(t *testing.T, width int, height int, o Options) (*Driver, chan Status) {
	t.Helper()
	u, err := universe.New(width, height)
	if err != nil {
		t.Fatal(err)
	}
	o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	stateCh := make(chan Status, 4096)
	d := New(u, &o, stateCh)
	t.Cleanup(d.Close)
	return d, stateCh
}

//waitFor reads the state channel until cond holds
func waitFor(t *testing.T, stateCh chan Status, cond func(st Status) bool) Status {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case st := <-stateCh:
			if cond(st) {
				return st
			}
		case <-timeout:
			t.Fatal("timed out waiting for the driver state")
		}
	}
}

type recordingViewer struct {
	sync.Mutex
	frames []Frame
	d      *Driver
}

func (v *recordingViewer) Refresh(f Frame) {
	v.Lock()
	v.frames = append(v.frames, f)
	v.Unlock()
}

func (v *recordingViewer) Register(d *Driver) { v.d = d }

func (v *recordingViewer) Start() {}

func (v *recordingViewer) last() Frame {
	v.Lock()
	defer v.Unlock()
	return v.frames[len(v.frames)-1]
}

func TestToggleCell(t *testing.T) {
	d, _ := newTestDriver(t, 8, 4, Options{})
	if err := d.ToggleCell(1, 2); err != nil {
		t.Fatalf("ToggleCell(1, 2): %v", err)
	}
	f, err := d.Frame()
	if err != nil {
		t.Fatal(err)
	}
	if !f.Alive(1, 2) {
		t.Error("cell (1,2) should be alive")
	}
	if f.Status.LiveCells != 1 {
		t.Errorf("LiveCells = %d, want 1", f.Status.LiveCells)
	}
	if err := d.ToggleCell(4, 0); !errors.Is(err, universe.ErrOutOfRange) {
		t.Errorf("ToggleCell(4, 0) error = %v, want ErrOutOfRange", err)
	}
}

func TestStep(t *testing.T) {
	d, stateCh := newTestDriver(t, 5, 5, Options{})
	if err := d.SettleTemplate("blinker", 2, 1); err != nil {
		t.Fatal(err)
	}
	d.Step()
	st := waitFor(t, stateCh, func(st Status) bool {
		return st.RunningMode == RunningStateManual
	})
	if st.Generation != 1 {
		t.Errorf("Generation = %d, want 1", st.Generation)
	}
	f, _ := d.Frame()
	for row := 1; row <= 3; row++ {
		if !f.Alive(row, 2) {
			t.Errorf("cell (%d,2) should be alive after one step", row)
		}
	}
}

func TestRunFinishesAtMaxSteps(t *testing.T) {
	d, stateCh := newTestDriver(t, 6, 6, Options{MaxSteps: 5, MaxSkippedTicks: DefMaxSkippedTicks})
	if err := d.SettleTemplate("glider", 0, 0); err != nil {
		t.Fatal(err)
	}
	d.Run()
	st := waitFor(t, stateCh, func(st Status) bool {
		return st.RunningMode == RunningStateFinished
	})
	if st.Generation != 5 {
		t.Errorf("Generation = %d, want 5", st.Generation)
	}
}

func TestRunStopsWhenStable(t *testing.T) {
	d, stateCh := newTestDriver(t, 6, 6, Options{StopWhenStable: true, MaxSkippedTicks: DefMaxSkippedTicks})
	if err := d.SettleTemplate("block", 2, 2); err != nil {
		t.Fatal(err)
	}
	d.Run()
	st := waitFor(t, stateCh, func(st Status) bool {
		return st.RunningMode == RunningStateFinished
	})
	if st.Generation != 1 || st.LiveCells != 4 {
		t.Errorf("finished at generation %d with %d cells, want 1 and 4", st.Generation, st.LiveCells)
	}
}

func TestStopPausesRun(t *testing.T) {
	d, stateCh := newTestDriver(t, 10, 10, Options{Interval: time.Millisecond, MaxSkippedTicks: DefMaxSkippedTicks})
	if err := d.SettleTemplate("blinker", 4, 4); err != nil {
		t.Fatal(err)
	}
	d.Run()
	waitFor(t, stateCh, func(st Status) bool { return st.Generation >= 3 })
	d.Stop()
	st := waitFor(t, stateCh, func(st Status) bool { return st.RunningMode == RunningStateManual })
	time.Sleep(20 * time.Millisecond)
	if got := d.Status().Generation; got > st.Generation+1 {
		t.Errorf("generation moved from %d to %d after Stop", st.Generation, got)
	}
}

func TestRandomizeAndClear(t *testing.T) {
	d, stateCh := newTestDriver(t, 8, 8, Options{})
	if err := d.Randomize(2); !errors.Is(err, universe.ErrInvalidArgument) {
		t.Errorf("Randomize(2) error = %v, want ErrInvalidArgument", err)
	}
	if err := d.Randomize(1); err != nil {
		t.Fatal(err)
	}
	if got := d.Status().LiveCells; got != 64 {
		t.Errorf("LiveCells = %d, want 64", got)
	}
	d.Clear()
	waitFor(t, stateCh, func(st Status) bool {
		return st.RunningMode == RunningStateManual && st.LiveCells == 0
	})
}

func TestSetRate(t *testing.T) {
	d, _ := newTestDriver(t, 4, 4, Options{Interval: time.Second})
	for _, r := range []float64{0, -3} {
		if err := d.SetRate(r); !errors.Is(err, universe.ErrInvalidArgument) {
			t.Errorf("SetRate(%v) error = %v, want ErrInvalidArgument", r, err)
		}
	}
	if err := d.SetRate(10); err != nil {
		t.Fatal(err)
	}
	if got := d.Interval(); got != 100*time.Millisecond {
		t.Errorf("Interval() = %v, want 100ms", got)
	}
	if got := d.Rate(); got < 9.99 || got > 10.01 {
		t.Errorf("Rate() = %v, want 10", got)
	}
}

func TestViewerGetsFrames(t *testing.T) {
	d, _ := newTestDriver(t, 9, 3, Options{})
	v := &recordingViewer{}
	d.RegisterViewer(v)
	if v.d != d {
		t.Fatal("viewer was not registered")
	}
	if err := d.ToggleCell(2, 8); err != nil {
		t.Fatal(err)
	}
	f := v.last()
	if f.Width != 9 || f.Height != 3 || len(f.Cells) != 4 {
		t.Fatalf("frame %dx%d with %d bytes", f.Width, f.Height, len(f.Cells))
	}
	if !f.Alive(2, 8) {
		t.Error("frame misses the toggled cell")
	}
	//the frame is an owned copy
	if err := d.ToggleCell(2, 8); err != nil {
		t.Fatal(err)
	}
	if !f.Alive(2, 8) {
		t.Error("an older frame changed after a later command")
	}
}

func TestClosed(t *testing.T) {
	d, _ := newTestDriver(t, 4, 4, Options{})
	d.Close()
	d.Close()
	if err := d.ToggleCell(0, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("ToggleCell after Close error = %v, want ErrClosed", err)
	}
	if _, err := d.Frame(); !errors.Is(err, ErrClosed) {
		t.Errorf("Frame after Close error = %v, want ErrClosed", err)
	}
}

//generationsIn counts the generations computed during window
func generationsIn(d *Driver, window time.Duration) int {
	from := d.Status().Generation
	time.Sleep(window)
	return d.Status().Generation - from
}

func TestRestartKeepsCadence(t *testing.T) {
	tests := []struct {
		name    string
		restart func(d *Driver)
	}{
		{"stop run", func(d *Driver) { d.Stop(); d.Run() }},
		{"toggle toggle", func(d *Driver) { d.Toggle(); d.Toggle() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, stateCh := newTestDriver(t, 10, 10, Options{Interval: 50 * time.Millisecond, MaxSkippedTicks: DefMaxSkippedTicks})
			if err := d.SettleTemplate("blinker", 4, 4); err != nil {
				t.Fatal(err)
			}
			d.Run()
			waitFor(t, stateCh, func(st Status) bool { return st.Generation >= 1 })
			for i := 0; i < 3; i++ {
				tt.restart(d)
			}
			//20 generations per second, a second loop would double it
			if got := generationsIn(d, time.Second); got > 28 {
				t.Errorf("%d generations in 1s at 20/s", got)
			}
			if mode := d.Status().RunningMode; mode != RunningStateRun && mode != RunningStateStep {
				t.Errorf("RunningMode = %v, want run", mode)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	d, stateCh := newTestDriver(t, 10, 10, Options{Interval: time.Millisecond, MaxSkippedTicks: DefMaxSkippedTicks})
	if err := d.SettleTemplate("blinker", 4, 4); err != nil {
		t.Fatal(err)
	}
	d.Toggle()
	waitFor(t, stateCh, func(st Status) bool { return st.Generation >= 2 })
	d.Toggle()
	st := waitFor(t, stateCh, func(st Status) bool { return st.RunningMode == RunningStateManual })
	time.Sleep(20 * time.Millisecond)
	if got := d.Status().Generation; got > st.Generation+1 {
		t.Errorf("generation moved from %d to %d after the second Toggle", st.Generation, got)
	}
}
