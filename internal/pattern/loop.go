package pattern

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-ws2812/internal/layout"
	"github.com/coreman2200/funtimes-ws2812/internal/pixel"
	"github.com/coreman2200/funtimes-ws2812/internal/strip"
)

const DFLT_FPS = 30

// WriteFunc sends one frame and returns the bytes transmitted.
type WriteFunc func(buf []byte) ([]byte, error)

// Looper steps a Runner at a fixed rate and writes each frame, keeping at
// least strip.ResetGap of idle line between writes.
type Looper struct {
	Runner  *Runner
	Layout  layout.Layout
	Order   pixel.Order
	FPS     int
	Write   WriteFunc
	OnFrame func(frameID uint64, echo []byte)
	Log     zerolog.Logger

	frameID uint64
	lastEnd time.Time
}

func (l *Looper) interval() time.Duration {
	fps := l.FPS
	if fps <= 0 {
		fps = DFLT_FPS
	}
	delta := time.Second / time.Duration(fps)
	if delta < strip.ResetGap {
		delta = strip.ResetGap
	}
	return delta
}

// Run returns nil once the pattern completes or ctx is cancelled, and the
// write error if a frame fails.
func (l *Looper) Run(ctx context.Context) error {
	order := l.Order
	if order == "" {
		order = pixel.GRB
	}
	frame := make([]pixel.ColorVal, l.Layout.Count())

	delta := l.interval()
	ticker := time.NewTicker(delta)
	defer ticker.Stop()

	l.Log.Debug().Str("kind", string(l.Runner.Kind())).Dur("interval", delta).Msg("pattern loop start")
	for {
		if ctx.Err() != nil {
			l.Log.Debug().Uint64("frames", l.frameID).Msg("pattern loop cancelled")
			return nil
		}
		more, err := l.step(frame, order)
		if err != nil {
			return err
		}
		if !more {
			l.Log.Debug().Uint64("frames", l.frameID).Msg("pattern complete")
			return nil
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

func (l *Looper) step(frame []pixel.ColorVal, order pixel.Order) (bool, error) {
	if !l.Runner.Step(l.Layout, frame) {
		return false, nil
	}
	buf := pixel.Pack(frame, order)

	if !l.lastEnd.IsZero() {
		if idle := time.Since(l.lastEnd); idle < strip.ResetGap {
			time.Sleep(strip.ResetGap - idle)
		}
	}
	echo, err := l.Write(buf)
	l.lastEnd = time.Now()
	if err != nil {
		l.Log.Error().Err(err).Uint64("frame_id", l.frameID).Msg("write frame")
		return false, err
	}
	l.frameID++
	if l.OnFrame != nil {
		l.OnFrame(l.frameID, echo)
	}
	return true, nil
}
