package view

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"bitlife/src/driver"
)

//ConsoleOut is the batch mode viewer: progress lines and a final summary
type ConsoleOut struct {
	d         *driver.Driver
	w         io.Writer
	startTime time.Time
	PrintGrid bool //print the final generation on finish
}

func NewConsoleOut(w io.Writer) *ConsoleOut {
	return &ConsoleOut{w: w, startTime: time.Now()}
}

func (c *ConsoleOut) Refresh(f driver.Frame) {
	st := f.Status
	if st.RunningMode == driver.RunningStateFinished {
		totalTime := time.Since(c.startTime).Round(time.Millisecond)
		resultData := map[string]interface{}{
			"Last iteration": st.Generation,
			"Total time":     totalTime,
			"Live cells":     st.LiveCells,
		}
		fmt.Fprintln(c.w, "\nFinished:")
		c.printHashData(resultData)
		if c.PrintGrid {
			rows, _ := RenderRows(f, "◼", "◻", -1, -1)
			fmt.Fprintln(c.w, strings.Join(rows, "\n"))
		}
	} else if st.RunningMode == driver.RunningStateRun {
		if st.Generation%10 == 0 && st.Generation != 0 {
			fmt.Fprintf(c.w, "  Iterations done: %v\n", st.Generation)
		}
	}
}

func (c *ConsoleOut) Register(d *driver.Driver) {
	c.d = d
	o := d.Options()
	uo := d.UniverseOptions()
	fmt.Fprintln(c.w, "Running configuration:")
	fmt.Fprintf(c.w, "  Dimension: %v x %v\n", uo.Width, uo.Height)
	fmt.Fprintf(c.w, "  Interval: %v\n", o.Interval)
	fmt.Fprintf(c.w, "  Max iterations: %v steps\n", o.MaxSteps)
	c.printHashData(map[string]interface{}{
		"Engine": uo.Engine,
		"Edge":   uo.Edge,
		"Fill":   uo.Fill,
	})
}

func (c *ConsoleOut) Start() {
	c.startTime = time.Now()
	fmt.Fprintln(c.w, "\nSimulation started...")
}

func (c *ConsoleOut) printHashData(d map[string]interface{}) {
	propNames := make([]string, 0, len(d))
	for k := range d {
		propNames = append(propNames, k)
	}
	sort.Strings(propNames)
	for _, propName := range propNames {
		fmt.Fprintf(c.w, "  %s: %v\n", propName, d[propName])
	}
}
