// Package layout maps matrix coordinates onto the wiring order of a strip
// and turns that mapping into a remap table.
package layout

import (
	"errors"
	"fmt"
)

// MaxLEDs is the largest strip a remap table can address, as each entry
// is a single byte.
const MaxLEDs = 256

var ErrTooLarge = errors.New("layout too large for a remap table")

type Dim struct{ X, Y, Z int }

type Serpentine struct {
	XFlipEveryRow   bool
	YFlipEveryPanel bool
}

type Layout struct {
	Dim   Dim
	Order Serpentine
}

// Strip is a single straight run of n LEDs.
func Strip(n int) Layout {
	return Layout{Dim: Dim{X: n, Y: 1, Z: 1}}
}

// Index maps x,y,z -> physical LED index along the wire (0..N-1).
func (l Layout) Index(x, y, z int) int {
	yy := y
	xx := x
	if (y%2 == 1) && l.Order.XFlipEveryRow {
		xx = l.Dim.X - 1 - x
	}
	if l.Order.YFlipEveryPanel && (z%2 == 1) {
		yy = l.Dim.Y - 1 - y
	}
	perPanel := l.Dim.X * l.Dim.Y
	return z*perPanel + yy*l.Dim.X + xx
}

func (l Layout) Count() int {
	return l.Dim.X * l.Dim.Y * l.Dim.Z
}

// Remap returns the table sending logical LED i, counted in raster order
// x then y then z, to its physical position on the wire.
func (l Layout) Remap() ([]byte, error) {
	n := l.Count()
	if n <= 0 {
		return nil, fmt.Errorf("layout %dx%dx%d: empty", l.Dim.X, l.Dim.Y, l.Dim.Z)
	}
	if n > MaxLEDs {
		return nil, fmt.Errorf("layout %dx%dx%d has %d LEDs: %w", l.Dim.X, l.Dim.Y, l.Dim.Z, n, ErrTooLarge)
	}
	table := make([]byte, n)
	i := 0
	for z := 0; z < l.Dim.Z; z++ {
		for y := 0; y < l.Dim.Y; y++ {
			for x := 0; x < l.Dim.X; x++ {
				table[i] = byte(l.Index(x, y, z))
				i++
			}
		}
	}
	return table, nil
}
