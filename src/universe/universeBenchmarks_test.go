package universe

import (
	"testing"
)

const (
	benchWidth  = 200
	benchHeight = 200
)

func newBenchUniverse(b *testing.B, engine string) *Universe {
	o := DefaultOptions()
	o.Width = benchWidth
	o.Height = benchHeight
	o.Engine = engine
	o.Seed = 1
	u, err := NewWithOptions(&o)
	if err != nil {
		b.Fatal(err)
	}
	return u
}

func Benchmark_Tick(b *testing.B) {
	for _, e := range EngineNames() {
		b.Run(e, func(b *testing.B) {
			u := newBenchUniverse(b, e)
			if err := u.SetRandom(DefDensity); err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := u.Tick(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func Benchmark_Sample(b *testing.B) {
	for _, e := range EngineNames() {
		b.Run(e, func(b *testing.B) {
			u := newBenchUniverse(b, e)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				u.SetBlank()
				if err := u.SettleTemplate("sample", 0, 0); err != nil {
					b.Fatal(err)
				}
				b.StartTimer()
				for u.Status().Generation < 10 {
					if err := u.Tick(); err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}
