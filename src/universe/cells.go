package universe

//Cells is a read-only view into the packed grid of one generation
//the view is valid until the next mutating call on the Universe
type Cells struct {
	width  int
	height int
	bits   []byte
}

//Len returns the view length in bytes, ceil(width*height/8)
func (c Cells) Len() int {
	return len(c.bits)
}

//Byte returns the i-th packed byte
func (c Cells) Byte(i int) byte {
	return c.bits[i]
}

//Alive reports the state of cell row, col; coordinates outside the grid are dead
func (c Cells) Alive(row int, col int) bool {
	if row < 0 || col < 0 || row >= c.height || col >= c.width {
		return false
	}
	i := row*c.width + col
	return c.bits[i>>3]&(1<<uint(i&7)) != 0
}

//Bytes returns the underlying buffer; callers must not modify it
func (c Cells) Bytes() []byte {
	return c.bits
}

//Clone returns an owned copy of the packed bytes
func (c Cells) Clone() []byte {
	b := make([]byte, len(c.bits))
	copy(b, c.bits)
	return b
}

//Width returns the row length of the viewed grid
func (c Cells) Width() int { return c.width }

//Height returns the row count of the viewed grid
func (c Cells) Height() int { return c.height }
