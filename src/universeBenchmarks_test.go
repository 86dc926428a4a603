package main

import (
	"io"
	"log/slog"
	"testing"

	"bitlife/src/driver"
	"bitlife/src/universe"
)

func newBenchDriver(b *testing.B, engine string) *driver.Driver {
	uo := universe.DefaultOptions()
	uo.Width = 200
	uo.Height = 200
	uo.Engine = engine
	u, err := universe.NewWithOptions(&uo)
	if err != nil {
		b.Fatal(err)
	}
	o := driver.DefaultOptions
	o.Interval = 0
	o.MaxSteps = 50
	o.StopWhenStable = false
	o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return driver.New(u, &o, make(chan driver.Status, 10))
}

func driverStep(d *driver.Driver, b *testing.B) {
	stateCh := d.StateCh()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		d.Clear()
		<-stateCh //wait for finish
		if err := d.SettleTemplate("sample", 0, 0); err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		d.Step()
		for {
			st := <-stateCh
			if st.RunningMode == driver.RunningStateManual {
				break
			}
		}
	}
	d.Close()
}

func driverRun(d *driver.Driver, b *testing.B) {
	stateCh := d.StateCh()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		d.Clear()
		<-stateCh //wait for finish
		if err := d.Randomize(universe.DefDensity); err != nil {
			b.Fatal(err)
		}
		<-stateCh
		b.StartTimer()
		d.Run()
		for {
			st := <-stateCh
			if st.RunningMode == driver.RunningStateFinished {
				break
			}
		}
	}
	d.Close()
}

func BenchmarkDriver_Step(b *testing.B) {
	for _, e := range universe.EngineNames() {
		b.Run(e, func(b *testing.B) {
			driverStep(newBenchDriver(b, e), b)
		})
	}
}

func BenchmarkDriver_Run(b *testing.B) {
	for _, e := range universe.EngineNames() {
		b.Run(e, func(b *testing.B) {
			driverRun(newBenchDriver(b, e), b)
		})
	}
}
