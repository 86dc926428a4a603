package universe

import (
	"runtime"
	"sync"
)

/*
	Engine with multithreaded computation algorithm
	the cell range is split into work areas each of which is computed by an individual goroutine.
	Work area bounds are multiples of 8 cells, so every worker owns whole bytes of the spare buffer
*/

//DefMinCellsPerWorker is the smallest work area, smaller grids use fewer workers
const DefMinCellsPerWorker = 512

//workArea describes the cell range [start, end) of one worker
type workArea struct {
	start     int
	end       int
	liveCells int
	changed   bool
}

//splitWork cuts n cells into at most workers byte aligned areas
func splitWork(n int, workers int, minCells int) []workArea {
	if workers < 1 {
		workers = 1
	}
	if minCells < 8 {
		minCells = 8
	}
	perWorker := (n + workers - 1) / workers
	if perWorker < minCells {
		perWorker = minCells
	}
	//round up to a whole byte
	perWorker = (perWorker + 7) &^ 7
	areas := make([]workArea, 0, workers)
	for start := 0; start < n; start += perWorker {
		end := start + perWorker
		if end > n {
			end = n
		}
		areas = append(areas, workArea{start: start, end: end})
	}
	return areas
}

func installMultithreaded(u *Universe) error {
	spare, err := createGrid(u.cells.Width, u.cells.Height, u.options.MaxCells)
	if err != nil {
		return err
	}
	workers := u.options.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workAreas := splitWork(spare.Len(), workers, DefMinCellsPerWorker)
	u.status.Details["workers"] = len(workAreas)

	u.nextIteration = func() (liveCells int, changed bool, err error) {
		var waitGroup sync.WaitGroup
		for i := range workAreas {
			wa := &workAreas[i]
			waitGroup.Add(1)
			go func() {
				defer waitGroup.Done()
				wa.liveCells, wa.changed = u.calcRange(spare, wa.start, wa.end)
			}()
		}
		waitGroup.Wait()
		for _, wa := range workAreas {
			liveCells += wa.liveCells
			changed = changed || wa.changed
		}
		u.cells, spare = spare, u.cells
		return liveCells, changed, nil
	}
	return nil
}
