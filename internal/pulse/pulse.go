// Package pulse emits WS2812 bit pulses on a pin.Line.
//
// A pulse is a number of consecutive high writes followed by a number of
// low writes. The width of each part is set by repeating the register
// write, so the pulse shapes below are in time units and a Calibration
// turns units into write counts for a given clock.
package pulse

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-ws2812/internal/pin"
)

// Shape is the high and low width of one bit pulse, in time units.
type Shape struct {
	High, Low int
}

var (
	// Zero is a short high followed by a long low.
	Zero = Shape{High: 4, Low: 9}
	// One is a long high followed by a shorter low.
	One = Shape{High: 8, Low: 6}
)

// Calibration relates time units to register writes.
type Calibration struct {
	// Clock is the CPU clock the write loop runs at.
	Clock physic.Frequency
	// CyclesPerWrite is the cost of one loop iteration including the write.
	CyclesPerWrite int
	// UnitNs is the length of one time unit in nanoseconds.
	UnitNs float64
}

// Default matches an 80 MHz core where one write costs 7 cycles, giving
// one write per unit.
var Default = Calibration{
	Clock:          80 * physic.MegaHertz,
	CyclesPerWrite: 7,
	UnitNs:         87.5,
}

// WritesPerUnit is how many writes span one time unit, never less than one.
func (c Calibration) WritesPerUnit() int {
	if c.CyclesPerWrite <= 0 || c.Clock <= 0 || c.UnitNs <= 0 {
		return 1
	}
	hz := float64(c.Clock) / float64(physic.Hertz)
	cycles := c.UnitNs * 1e-9 * hz
	n := int(math.Round(cycles / float64(c.CyclesPerWrite)))
	if n < 1 {
		return 1
	}
	return n
}

// Durations returns the nominal high and low time of s.
func (c Calibration) Durations(s Shape) (high, low time.Duration) {
	unit := func(n int) time.Duration {
		return time.Duration(math.Round(float64(n) * c.UnitNs))
	}
	return unit(s.High), unit(s.Low)
}

// Timing derives the write counts used by the emitters.
func (c Calibration) Timing() Timing {
	n := c.WritesPerUnit()
	return Timing{
		ZeroHigh: Zero.High * n,
		ZeroLow:  Zero.Low * n,
		OneHigh:  One.High * n,
		OneLow:   One.Low * n,
	}
}

func (c Calibration) String() string {
	return fmt.Sprintf("%s/%d cycles, unit %gns, %d writes/unit", c.Clock, c.CyclesPerWrite, c.UnitNs, c.WritesPerUnit())
}

// Timing holds the write counts for both bit shapes.
type Timing struct {
	ZeroHigh, ZeroLow int
	OneHigh, OneLow   int
}

// EmitZero writes one 0-bit pulse.
func EmitZero(l pin.Line, t Timing) {
	for i := t.ZeroHigh; i > 0; i-- {
		l.High()
	}
	for i := t.ZeroLow; i > 0; i-- {
		l.Low()
	}
}

// EmitOne writes one 1-bit pulse.
func EmitOne(l pin.Line, t Timing) {
	for i := t.OneHigh; i > 0; i-- {
		l.High()
	}
	for i := t.OneLow; i > 0; i-- {
		l.Low()
	}
}

// EncodeByte emits the 8 bits of b, most significant first.
func EncodeByte(l pin.Line, t Timing, b byte) {
	for mask := byte(0x80); mask != 0; mask >>= 1 {
		if b&mask != 0 {
			EmitOne(l, t)
		} else {
			EmitZero(l, t)
		}
	}
}

// Encode emits every byte of buf in order.
func Encode(l pin.Line, t Timing, buf []byte) {
	for _, b := range buf {
		EncodeByte(l, t, b)
	}
}

// Decode turns recorded pulses back into bytes, classifying each pulse by
// its high width. Trailing pulses that do not fill a byte are dropped.
func Decode(pulses []pin.Pulse, t Timing) []byte {
	threshold := (t.ZeroHigh + t.OneHigh) / 2
	out := make([]byte, 0, len(pulses)/8)
	var cur byte
	for i, p := range pulses {
		cur <<= 1
		if p.High > threshold {
			cur |= 1
		}
		if i%8 == 7 {
			out = append(out, cur)
			cur = 0
		}
	}
	return out
}
