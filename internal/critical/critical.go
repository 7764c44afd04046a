// Package critical keeps a transmission from being preempted while it is
// emitting pulses.
//
// Go cannot mask interrupts, so a section pins the calling goroutine to
// its OS thread and pauses the garbage collector; on Linux the Realtime
// section also runs the thread under SCHED_FIFO with its memory locked.
package critical

import (
	"errors"
	"runtime"
	"runtime/debug"
)

// ErrUnsupported is returned when realtime scheduling is not available.
var ErrUnsupported = errors.New("realtime section not supported on this platform")

// Section is entered around the pulse loop. The returned exit func must
// be called exactly once, on every path, and restores the prior state. It
// reports any failure to enter or leave the section; by then the pulses
// have already been sent.
type Section interface {
	Enter() (exit func() error)
}

// Pinned locks the goroutine to its thread and disables GC for the
// duration of the section.
type Pinned struct{}

func (Pinned) Enter() func() error {
	runtime.LockOSThread()
	gc := debug.SetGCPercent(-1)
	return func() error {
		debug.SetGCPercent(gc)
		runtime.UnlockOSThread()
		return nil
	}
}
