//go:build linux

package critical

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"

	"golang.org/x/sys/unix"
)

// Realtime raises the calling thread to SCHED_FIFO for the section.
type Realtime struct {
	priority uint32
}

// NewRealtime locks the process memory so the pulse loop never faults and
// returns a section running at priority (1..99).
func NewRealtime(priority int) (*Realtime, error) {
	if priority < 1 || priority > 99 {
		return nil, fmt.Errorf("realtime priority %d out of range 1..99", priority)
	}
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		return nil, fmt.Errorf("mlockall: %w", err)
	}
	return &Realtime{priority: uint32(priority)}, nil
}

func (r *Realtime) Enter() func() error {
	runtime.LockOSThread()
	gc := debug.SetGCPercent(-1)

	tid := unix.Gettid()
	prev, err := unix.SchedGetAttr(tid, 0)
	var enterErr error
	if err != nil {
		enterErr = fmt.Errorf("sched_getattr: %w", err)
	} else {
		attr := unix.SchedAttr{
			Policy:   unix.SCHED_FIFO,
			Priority: r.priority,
		}
		if err := unix.SchedSetAttr(tid, &attr, 0); err != nil {
			enterErr = fmt.Errorf("sched_setattr fifo: %w", err)
			prev = nil
		}
	}

	return func() error {
		var exitErr error
		if prev != nil {
			if err := unix.SchedSetAttr(tid, prev, 0); err != nil {
				exitErr = fmt.Errorf("sched_setattr restore: %w", err)
			}
		}
		debug.SetGCPercent(gc)
		runtime.UnlockOSThread()
		return errors.Join(enterErr, exitErr)
	}
}

// Close releases the memory lock.
func (r *Realtime) Close() error {
	return unix.Munlockall()
}
