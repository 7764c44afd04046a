// Package pin resolves strip pin identifiers to GPIO lines and drives them.
package pin

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPin is returned when an identifier has no entry in the pin table.
	ErrInvalidPin = errors.New("invalid pin")
	// ErrUnsupported is returned by backends that cannot run on this platform.
	ErrUnsupported = errors.New("pin backend not supported on this platform")
)

// Line is a single digital output. High and Low are the raw set and clear
// writes; repeating them is how pulse widths are timed, so implementations
// must not log, allocate or block.
type Line interface {
	High()
	Low()
}

// Output is a Line owned by the driver between transmissions.
type Output interface {
	Line
	// Configure puts the line in floating output mode and drives it low.
	Configure() error
	Close() error
}

// Opener opens the output for a GPIO number.
type Opener interface {
	Open(gpio int) (Output, error)
}

// Table maps pin identifiers (the index) to GPIO numbers.
type Table []int

// NodeMCU is the D0..D12 board labelling of ESP8266 development boards.
var NodeMCU = Table{16, 5, 4, 0, 2, 14, 12, 13, 15, 3, 1, 9, 10}

// Resolve returns the GPIO number behind id.
func (t Table) Resolve(id int) (int, error) {
	if id < 0 || id >= len(t) {
		return 0, fmt.Errorf("pin %d: %w", id, ErrInvalidPin)
	}
	return t[id], nil
}
