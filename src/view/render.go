package view

import (
	"strings"

	"bitlife/src/driver"
)

//RenderRows draws the frame as text, one string per grid row
//at most maxCols cells per row and maxRows rows are drawn, cropped reports whether anything was cut
func RenderRows(f driver.Frame, live string, dead string, maxCols int, maxRows int) (rows []string, cropped bool) {
	h, w := f.Height, f.Width
	if maxRows >= 0 && h > maxRows {
		h = maxRows
		cropped = true
	}
	if maxCols >= 0 && w > maxCols {
		w = maxCols
		cropped = true
	}
	rows = make([]string, 0, h)
	var b strings.Builder
	for row := 0; row < h; row++ {
		b.Reset()
		for col := 0; col < w; col++ {
			if f.Alive(row, col) {
				b.WriteString(live)
			} else {
				b.WriteString(dead)
			}
		}
		rows = append(rows, b.String())
	}
	return rows, cropped
}

//CellMapper maps a screen position onto a grid cell
//every cell is CellWidth x CellHeight units followed by Border units of grid line
type CellMapper struct {
	CellWidth  int
	CellHeight int
	Border     int
}

//CellAt returns the cell under x, y clamped to a width x height grid
func (m CellMapper) CellAt(x int, y int, width int, height int) (row int, col int) {
	row = clamp(y/(m.CellHeight+m.Border), height-1)
	col = clamp(x/(m.CellWidth+m.Border), width-1)
	return
}

func clamp(v int, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
