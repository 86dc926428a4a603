package universe

/*
	Engine with two buffers
	All cells state is calculated into the spare buffer and then the buffers are swapped,
	so no allocation happens after construction
*/

func installSimple(u *Universe) error {
	spare, err := createGrid(u.cells.Width, u.cells.Height, u.options.MaxCells)
	if err != nil {
		return err
	}
	u.nextIteration = func() (int, bool, error) {
		liveCells, changed := u.calcRange(spare, 0, spare.Len())
		u.cells, spare = spare, u.cells
		return liveCells, changed, nil
	}
	return nil
}
