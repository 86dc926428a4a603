// Package stats records per-generation statistics as CSV.
package stats

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"bitlife/src/driver"
)

// Record is one CSV row.
type Record struct {
	Generation      int    `csv:"generation"`
	LiveCells       int    `csv:"live_cells"`
	Changed         bool   `csv:"changed"`
	IterationMicros int64  `csv:"iteration_us"`
	Mode            string `csv:"mode"`
}

// FromStatus converts a driver status.
func FromStatus(st driver.Status) Record {
	return Record{
		Generation:      st.Generation,
		LiveCells:       st.LiveCells,
		Changed:         st.Changed,
		IterationMicros: st.IterationTime.Microseconds(),
		Mode:            st.RunningMode.String(),
	}
}

// Recorder appends records to a CSV file.
// A nil Recorder discards everything.
type Recorder struct {
	file          *os.File
	headerWritten bool
	last          int // last recorded generation, -1 before the first record
}

// NewRecorder creates the CSV file at path.
// Returns nil if path is empty (recording disabled).
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating stats directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &Recorder{file: f, last: -1}, nil
}

// Write appends one record.
func (r *Recorder) Write(rec Record) error {
	if r == nil {
		return nil
	}
	records := []Record{rec}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.file); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, r.file); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
	}
	r.last = rec.Generation
	return nil
}

// Observe records a status once per generation; mode switches within a generation are skipped.
func (r *Recorder) Observe(st driver.Status) error {
	if r == nil || st.RunningMode == driver.RunningStateStep {
		return nil
	}
	if st.Generation == r.last {
		return nil
	}
	return r.Write(FromStatus(st))
}

// Close flushes and closes the file.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.file.Close()
}

// ReadAll loads every record of a stats file.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	var records []Record
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return records, nil
}
