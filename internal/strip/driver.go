// Package strip transmits pixel buffers to a WS2812 strip by bit-banging a
// GPIO line.
package strip

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-ws2812/internal/critical"
	"github.com/coreman2200/funtimes-ws2812/internal/pin"
	"github.com/coreman2200/funtimes-ws2812/internal/pulse"
)

const (
	// ResetGap is the minimum idle low time the strip needs between two
	// transmissions to latch the previous one.
	ResetGap = 50 * time.Microsecond
	// SettleDelay is the pause between configuring the line and the first
	// pulse.
	SettleDelay = 2 * time.Microsecond
	// BytesPerLED is the channel count of a WS2812 (G, R, B).
	BytesPerLED = 3
)

// Observer is told about every completed transmission.
type Observer interface {
	ObserveWrite(gpio int, n int, d time.Duration, degraded bool)
}

// Observers fans one observation out to several observers.
type Observers []Observer

func (obs Observers) ObserveWrite(gpio int, n int, d time.Duration, degraded bool) {
	for _, o := range obs {
		o.ObserveWrite(gpio, n, d, degraded)
	}
}

// Driver owns the outputs it opens and serialises transmissions on them.
// It embeds the State that every Write reads.
type Driver struct {
	*State

	opener      pin.Opener
	pins        pin.Table
	section     critical.Section
	timing      pulse.Timing
	bytesPerLED int
	settle      time.Duration
	log         zerolog.Logger
	observer    Observer

	mu      sync.Mutex
	outputs map[int]pin.Output
}

type Option func(*Driver)

// WithState shares s instead of a fresh State.
func WithState(s *State) Option { return func(d *Driver) { d.State = s } }

func WithPins(t pin.Table) Option { return func(d *Driver) { d.pins = t } }

func WithSection(s critical.Section) Option { return func(d *Driver) { d.section = s } }

func WithCalibration(c pulse.Calibration) Option {
	return func(d *Driver) { d.timing = c.Timing() }
}

// WithBytesPerLED sets the group size remap tables address, e.g. 4 for
// RGBW strips.
func WithBytesPerLED(n int) Option { return func(d *Driver) { d.bytesPerLED = n } }

func WithSettleDelay(t time.Duration) Option { return func(d *Driver) { d.settle = t } }

func WithLogger(l zerolog.Logger) Option { return func(d *Driver) { d.log = l } }

func WithObserver(o Observer) Option { return func(d *Driver) { d.observer = o } }

func New(opener pin.Opener, opts ...Option) *Driver {
	d := &Driver{
		State:       NewState(),
		opener:      opener,
		pins:        pin.NodeMCU,
		section:     critical.Pinned{},
		timing:      pulse.Default.Timing(),
		bytesPerLED: BytesPerLED,
		settle:      SettleDelay,
		log:         zerolog.Nop(),
		outputs:     map[int]pin.Output{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Pins returns the pin table the driver resolves identifiers with.
func (d *Driver) Pins() pin.Table { return d.pins }

// Write scales buf by the current brightness, applies the remap table if
// one is set, and emits the result on the line behind pin id with
// preemption held off. It returns the bytes actually transmitted; buf is
// never modified or retained.
//
// The caller must leave at least ResetGap between consecutive writes.
func (d *Driver) Write(id int, buf []byte) ([]byte, error) {
	gpio, err := d.pins.Resolve(id)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	out, err := d.output(gpio)
	if err != nil {
		return nil, err
	}
	if err := out.Configure(); err != nil {
		return nil, fmt.Errorf("configure gpio %d: %w", gpio, err)
	}

	brightness, table := d.snapshot()
	tx := d.prepare(buf, brightness, table)
	d.log.Debug().
		Int("pin", id).
		Int("gpio", gpio).
		Int("len", len(tx)).
		Float64("brightness", brightness).
		Bool("remap", table != nil).
		Msg("transmit")

	if len(tx) == 0 {
		return tx, nil
	}

	time.Sleep(d.settle)

	start := time.Now()
	serr := d.transmit(out, tx)
	elapsed := time.Since(start)

	if serr != nil {
		d.log.Warn().Err(serr).Int("gpio", gpio).Msg("transmitted without full preemption control")
	}
	if d.observer != nil {
		d.observer.ObserveWrite(gpio, len(tx), elapsed, serr != nil)
	}
	return tx, nil
}

// prepare builds the transmit copy outside the critical section.
func (d *Driver) prepare(buf []byte, brightness float64, table []byte) []byte {
	scaled := make([]byte, len(buf))
	Scale(scaled, buf, brightness)
	if table == nil {
		return scaled
	}
	tx := make([]byte, len(scaled))
	copy(tx, scaled)
	applyRemap(tx, scaled, table, d.bytesPerLED)
	return tx
}

func (d *Driver) transmit(l pin.Line, tx []byte) (err error) {
	exit := d.section.Enter()
	defer func() {
		if xerr := exit(); xerr != nil && err == nil {
			err = xerr
		}
	}()
	pulse.Encode(l, d.timing, tx)
	return nil
}

func (d *Driver) output(gpio int) (pin.Output, error) {
	if o, ok := d.outputs[gpio]; ok {
		return o, nil
	}
	o, err := d.opener.Open(gpio)
	if err != nil {
		return nil, fmt.Errorf("open gpio %d: %w", gpio, err)
	}
	d.outputs[gpio] = o
	return o, nil
}

// Close releases every output the driver opened.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for n, o := range d.outputs {
		if err := o.Close(); err != nil && first == nil {
			first = fmt.Errorf("close gpio %d: %w", n, err)
		}
		delete(d.outputs, n)
	}
	return first
}
