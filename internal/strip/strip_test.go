package strip_test

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-ws2812/internal/pin"
	"github.com/coreman2200/funtimes-ws2812/internal/pulse"
	. "github.com/coreman2200/funtimes-ws2812/internal/strip"
)

// countingSection records how often the section was entered and left.
type countingSection struct {
	mu      sync.Mutex
	entered int
	exited  int
	err     error
}

func (c *countingSection) Enter() func() error {
	c.mu.Lock()
	c.entered++
	c.mu.Unlock()
	return func() error {
		c.mu.Lock()
		c.exited++
		c.mu.Unlock()
		return c.err
	}
}

type refusingOpener struct{ opened int }

func (r *refusingOpener) Open(int) (pin.Output, error) {
	r.opened++
	return nil, errors.New("no hardware")
}

type panicLine struct{ pin.Trace }

func (p *panicLine) High() { panic("line fault") }

type panicOpener struct{}

func (panicOpener) Open(int) (pin.Output, error) { return &panicLine{}, nil }

type observed struct {
	gpio, n  int
	degraded bool
}

type recordingObserver struct{ calls []observed }

func (r *recordingObserver) ObserveWrite(gpio int, n int, _ time.Duration, degraded bool) {
	r.calls = append(r.calls, observed{gpio, n, degraded})
}

func newSimDriver(opts ...Option) (*Driver, *pin.Sim, *countingSection) {
	sim := pin.NewSim()
	sec := &countingSection{}
	opts = append([]Option{WithSection(sec), WithSettleDelay(0)}, opts...)
	return New(sim, opts...), sim, sec
}

func TestScale_MatchesRoundedProduct(t *testing.T) {
	for _, br := range []float64{0, 0.1, 0.25, 0.5, 0.333, 0.75, 0.999, 1} {
		t.Run(fmt.Sprint(br), func(t *testing.T) {
			src := make([]byte, 256)
			for i := range src {
				src[i] = byte(i)
			}
			dst := make([]byte, 256)
			Scale(dst, src, br)
			for i, b := range src {
				assert.Equal(t, byte(math.Round(float64(b)*br)), dst[i], "byte %d", i)
			}
		})
	}
}

func TestScale_OutOfRange(t *testing.T) {
	dst := make([]byte, 3)
	Scale(dst, []byte{200, 100, 1}, 1.5)
	assert.Equal(t, []byte{44, 150, 2}, dst, "300 wraps to 44")

	Scale(dst, []byte{10, 0, 255}, -1)
	assert.Equal(t, []byte{246, 0, 1}, dst)

	Scale(dst, []byte{10, 20, 30}, math.NaN())
	assert.Equal(t, []byte{0, 0, 0}, dst)

	Scale(dst, []byte{10, 0, 30}, math.Inf(1))
	assert.Equal(t, []byte{0, 0, 0}, dst)
}

func TestBrightness_RoundTrip(t *testing.T) {
	s := NewState()
	assert.Equal(t, 1.0, s.Brightness())
	for _, v := range []float64{0.5, 0, 1.7, -0.5, 1} {
		assert.Equal(t, v, s.SetBrightness(v))
		assert.Equal(t, v, s.Brightness())
	}
	s.SetBrightness(math.NaN())
	assert.True(t, math.IsNaN(s.Brightness()))
}

func TestRemap_Lifecycle(t *testing.T) {
	s := NewState()

	got, ok := s.Remap()
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.False(t, s.ClearRemap(), "clear on absent")

	table := []byte{2, 1, 0}
	s.SetRemap(table)
	table[0] = 9
	got, ok = s.Remap()
	assert.True(t, ok)
	assert.Equal(t, []byte{2, 1, 0}, got, "table must be copied on set")

	got[1] = 7
	again, _ := s.Remap()
	assert.Equal(t, []byte{2, 1, 0}, again, "Remap returns a copy")

	s.SetRemap([]byte{0})
	got, _ = s.Remap()
	assert.Equal(t, []byte{0}, got, "replace")

	assert.True(t, s.ClearRemap())
	assert.False(t, s.ClearRemap())
	_, ok = s.Remap()
	assert.False(t, ok)

	s.SetRemap(nil)
	got, ok = s.Remap()
	assert.True(t, ok, "an empty table is still a table")
	assert.Empty(t, got)
}

func TestWrite_EchoUnchangedAtFullBrightness(t *testing.T) {
	d, sim, sec := newSimDriver()
	in := []byte{0, 255, 0}
	echo, err := d.Write(4, in)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 255, 0}, echo)

	tr := sim.Trace(2)
	assert.Equal(t, 1, tr.Configured())
	assert.Equal(t, in, pulse.Decode(tr.Pulses(), pulse.Default.Timing()))
	assert.Equal(t, 1, sec.entered)
	assert.Equal(t, 1, sec.exited)
}

func TestWrite_ScalesCopyOnly(t *testing.T) {
	d, sim, _ := newSimDriver()
	d.SetBrightness(0.5)
	in := []byte{255, 0, 0, 255, 255, 255}
	echo, err := d.Write(3, in)
	require.NoError(t, err)

	want := []byte{128, 0, 0, 128, 128, 128}
	assert.Equal(t, want, echo)
	assert.Equal(t, []byte{255, 0, 0, 255, 255, 255}, in, "caller buffer untouched")
	assert.Equal(t, want, pulse.Decode(sim.Trace(0).Pulses(), pulse.Default.Timing()))
}

func TestWrite_Empty(t *testing.T) {
	d, sim, sec := newSimDriver()
	echo, err := d.Write(4, nil)
	require.NoError(t, err)
	assert.NotNil(t, echo)
	assert.Empty(t, echo)
	assert.Empty(t, sim.Trace(2).Runs())
	assert.Equal(t, 0, sec.entered)
}

func TestWrite_InvalidPinTouchesNothing(t *testing.T) {
	op := &refusingOpener{}
	sec := &countingSection{}
	d := New(op, WithSection(sec))
	_, err := d.Write(13, []byte{1, 2, 3})
	assert.ErrorIs(t, err, pin.ErrInvalidPin)
	assert.Equal(t, 0, op.opened)
	assert.Equal(t, 0, sec.entered)

	_, err = d.Write(-1, []byte{1})
	assert.ErrorIs(t, err, pin.ErrInvalidPin)
}

func TestWrite_OpenFailure(t *testing.T) {
	op := &refusingOpener{}
	d := New(op, WithSection(&countingSection{}))
	_, err := d.Write(0, []byte{1})
	assert.Error(t, err)
	assert.Equal(t, 1, op.opened)
}

func TestWrite_SectionExitAlwaysRuns(t *testing.T) {
	sec := &countingSection{}
	d := New(panicOpener{}, WithSection(sec), WithSettleDelay(0))
	assert.Panics(t, func() { _, _ = d.Write(0, []byte{0xff}) })
	assert.Equal(t, 1, sec.entered)
	assert.Equal(t, 1, sec.exited)

	// The driver lock must have been released by the panic path.
	d.SetBrightness(0)
	assert.Panics(t, func() { _, _ = d.Write(0, []byte{0xff}) })
	assert.Equal(t, 2, sec.exited)
}

func TestWrite_DegradedSectionStillTransmits(t *testing.T) {
	obs := &recordingObserver{}
	d, sim, sec := newSimDriver(WithObserver(obs))
	sec.err = errors.New("sched_setattr: operation not permitted")

	echo, err := d.Write(4, []byte{0x80})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80}, echo)
	assert.Len(t, sim.Trace(2).Pulses(), 8)
	assert.Equal(t, []observed{{gpio: 2, n: 1, degraded: true}}, obs.calls)
}

func TestWrite_AppliesRemap(t *testing.T) {
	d, sim, _ := newSimDriver()
	d.SetRemap([]byte{2, 0, 1})
	in := []byte{
		1, 1, 1,
		2, 2, 2,
		3, 3, 3,
		9,
	}
	echo, err := d.Write(4, in)
	require.NoError(t, err)
	want := []byte{
		2, 2, 2,
		3, 3, 3,
		1, 1, 1,
		9,
	}
	assert.Equal(t, want, echo)
	assert.Equal(t, want, pulse.Decode(sim.Trace(2).Pulses(), pulse.Default.Timing()))
}

var TestRemapEdgeCases = []struct {
	Name   string
	Table  []byte
	BPL    int
	In     []byte
	Expect []byte
}{
	{"target past end ignored", []byte{5, 0}, 3, []byte{1, 1, 1, 2, 2, 2}, []byte{2, 2, 2, 2, 2, 2}},
	{"table longer than buffer", []byte{1, 0, 0, 0}, 3, []byte{1, 1, 1, 2, 2, 2}, []byte{2, 2, 2, 1, 1, 1}},
	{"table shorter than buffer", []byte{1}, 3, []byte{1, 1, 1, 2, 2, 2, 3, 3, 3}, []byte{1, 1, 1, 1, 1, 1, 3, 3, 3}},
	{"rgbw groups", []byte{1, 0}, 4, []byte{1, 1, 1, 1, 2, 2, 2, 2}, []byte{2, 2, 2, 2, 1, 1, 1, 1}},
	{"empty table is identity", []byte{}, 3, []byte{1, 2, 3}, []byte{1, 2, 3}},
}

func TestWrite_RemapEdgeCases(t *testing.T) {
	for _, v := range TestRemapEdgeCases {
		t.Run(v.Name, func(t *testing.T) {
			d, _, _ := newSimDriver(WithBytesPerLED(v.BPL))
			d.SetRemap(v.Table)
			echo, err := d.Write(1, v.In)
			require.NoError(t, err)
			assert.Equal(t, v.Expect, echo)
		})
	}
}

func TestWrite_SharedState(t *testing.T) {
	st := NewState()
	a, _, _ := newSimDriver(WithState(st))
	b, _, _ := newSimDriver(WithState(st))
	a.SetBrightness(0)
	echo, err := b.Write(0, []byte{200})
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, echo)
}

func TestWrite_ReusesOutputAndCloses(t *testing.T) {
	d, sim, _ := newSimDriver()
	_, err := d.Write(4, []byte{1})
	require.NoError(t, err)
	_, err = d.Write(4, []byte{2})
	require.NoError(t, err)
	assert.Equal(t, 2, sim.Trace(2).Configured())

	require.NoError(t, d.Close())
	assert.True(t, sim.Trace(2).Closed())
}

func TestWrite_Concurrent(t *testing.T) {
	d, sim, _ := newSimDriver()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Write(4, []byte{0xaa})
		}()
	}
	wg.Wait()
	assert.Equal(t, []byte{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa},
		pulse.Decode(sim.Trace(2).Pulses(), pulse.Default.Timing()))
}
