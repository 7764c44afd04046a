// Package pattern generates test frames and paces them onto a strip.
package pattern

import (
	"fmt"

	"github.com/coreman2200/funtimes-ws2812/internal/layout"
	"github.com/coreman2200/funtimes-ws2812/internal/pixel"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	PlaneZ     Kind = "plane_z"
	Chase      Kind = "chase"
	Solid      Kind = "solid"
)

// ParseKind validates a pattern name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case IndexSweep, RGBTest, PlaneZ, Chase, Solid:
		return k, nil
	}
	return None, fmt.Errorf("unknown pattern %q", s)
}

type Plan struct {
	Kind   Kind
	Color  pixel.ColorVal // Chase and Solid
	Rounds int            // RGBTest and Chase; 0 means 1
}

type Runner struct {
	plan Plan
	step int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind      { return r.plan.Kind }

func (r *Runner) rounds() int {
	if r.plan.Rounds <= 0 {
		return 1
	}
	return r.plan.Rounds
}

// Step fills frame with the next LED colors in logical order; returns
// false when the pattern is complete and frame was left untouched.
func (r *Runner) Step(l layout.Layout, frame []pixel.ColorVal) bool {
	n := l.Count()
	if len(frame) < n {
		n = len(frame)
	}

	switch r.plan.Kind {
	case IndexSweep:
		if r.step >= n {
			return false
		}
		clear(frame)
		frame[r.step] = pixel.NewColor(0x00ffffff)
	case RGBTest:
		if r.step >= 3*r.rounds() {
			return false
		}
		var c pixel.ColorVal
		switch r.step % 3 {
		case 0:
			c.SetR(255)
		case 1:
			c.SetG(255)
		case 2:
			c.SetB(255)
		}
		for i := 0; i < n; i++ {
			frame[i] = c
		}
	case PlaneZ:
		perPanel := l.Dim.X * l.Dim.Y
		z := r.step
		if z >= l.Dim.Z {
			return false
		}
		clear(frame)
		var cyan pixel.ColorVal
		cyan.SetG(255)
		cyan.SetB(255)
		for i := z * perPanel; i < (z+1)*perPanel && i < n; i++ {
			frame[i] = cyan
		}
	case Chase:
		if n == 0 || r.step >= n*r.rounds() {
			return false
		}
		clear(frame)
		frame[r.step%n] = r.plan.Color
	case Solid:
		if r.step > 0 {
			return false
		}
		for i := 0; i < n; i++ {
			frame[i] = r.plan.Color
		}
	default:
		return false
	}
	r.step++
	return true
}
