package universe

import (
	"fmt"
	"math/bits"
)

//DefMaxCells is the allocation guard used when Options.MaxCells is zero
const DefMaxCells = 1 << 30

//Grid is the packed bit-buffer holding one generation
//cell i lives in byte i/8 at bit i%8, least significant bit first
type Grid struct {
	Width  int
	Height int
	bits   []byte
}

//gridBytes returns the packed length for n cells
func gridBytes(n int) int {
	return (n + 7) / 8
}

//createGrid allocates a zeroed grid
//the runtime panics on absurd lengths, that panic is turned into ErrAllocationFailure
func createGrid(width int, height int, maxCells int) (g *Grid, err error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid %dx%d: %w", width, height, ErrInvalidArgument)
	}
	if maxCells <= 0 {
		maxCells = DefMaxCells
	}
	if width > maxCells/height {
		return nil, fmt.Errorf("grid %dx%d exceeds %d cells: %w", width, height, maxCells, ErrAllocationFailure)
	}
	defer func() {
		if r := recover(); r != nil {
			g = nil
			err = fmt.Errorf("grid %dx%d: %v: %w", width, height, r, ErrAllocationFailure)
		}
	}()
	return &Grid{Width: width, Height: height, bits: make([]byte, gridBytes(width*height))}, nil
}

//Len returns the number of cells
func (g *Grid) Len() int {
	return g.Width * g.Height
}

func (g *Grid) get(i int) bool {
	return g.bits[i>>3]&(1<<uint(i&7)) != 0
}

func (g *Grid) set(i int, alive bool) {
	if alive {
		g.bits[i>>3] |= 1 << uint(i&7)
	} else {
		g.bits[i>>3] &^= 1 << uint(i&7)
	}
}

func (g *Grid) toggle(i int) {
	g.bits[i>>3] ^= 1 << uint(i&7)
}

func (g *Grid) clear() {
	for i := range g.bits {
		g.bits[i] = 0
	}
}

//fill sets every real cell alive, padding bits stay zero
func (g *Grid) fill() {
	for i := range g.bits {
		g.bits[i] = 0xff
	}
	g.clearPadding()
}

func (g *Grid) clearPadding() {
	if rem := g.Len() & 7; rem != 0 {
		g.bits[len(g.bits)-1] &= byte(1<<uint(rem)) - 1
	}
}

//count returns the number of live cells
func (g *Grid) count() int {
	n := 0
	for _, b := range g.bits {
		n += bits.OnesCount8(b)
	}
	return n
}

func (g *Grid) copyFrom(src *Grid) {
	copy(g.bits, src.bits)
}
