package pin_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"

	. "github.com/coreman2200/funtimes-ws2812/internal/pin"
)

var TestNodeMCUResolvesToGPIO = []struct {
	ID   int
	GPIO int
}{
	{0, 16},
	{1, 5},
	{3, 0},
	{4, 2},
	{8, 15},
	{12, 10},
}

func TestResolve(t *testing.T) {
	for _, v := range TestNodeMCUResolvesToGPIO {
		t.Run("D"+strconv.Itoa(v.ID), func(t *testing.T) {
			got, err := NodeMCU.Resolve(v.ID)
			require.NoError(t, err)
			assert.Equal(t, v.GPIO, got)
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	for _, id := range []int{-1, 13, 255} {
		_, err := NodeMCU.Resolve(id)
		assert.ErrorIs(t, err, ErrInvalidPin, "id %d", id)
	}
	_, err := Table{}.Resolve(0)
	assert.ErrorIs(t, err, ErrInvalidPin)
}

func TestTrace_Pulses(t *testing.T) {
	tr := &Trace{}
	tr.Low()
	for i := 0; i < 4; i++ {
		tr.High()
	}
	for i := 0; i < 9; i++ {
		tr.Low()
	}
	for i := 0; i < 8; i++ {
		tr.High()
	}
	for i := 0; i < 6; i++ {
		tr.Low()
	}
	tr.High()

	assert.Equal(t, []Pulse{{High: 4, Low: 9}, {High: 8, Low: 6}, {High: 1}}, tr.Pulses())

	tr.Reset()
	assert.Empty(t, tr.Pulses())
}

func TestSim_SameTracePerGPIO(t *testing.T) {
	s := NewSim()
	a, err := s.Open(2)
	require.NoError(t, err)
	b, err := s.Open(2)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.NotSame(t, s.Trace(2), s.Trace(0))

	require.NoError(t, a.Configure())
	assert.Equal(t, 1, s.Trace(2).Configured())
	require.NoError(t, a.Close())
	assert.True(t, s.Trace(2).Closed())
}

func TestPeriph_Configure(t *testing.T) {
	p := &gpiotest.Pin{N: "WSTEST7", Num: 7, L: gpio.High, P: gpio.PullUp}
	require.NoError(t, gpioreg.Register(p))
	defer func() { _ = gpioreg.Unregister(p.N) }()

	out, err := Periph{Prefix: "WSTEST"}.Open(7)
	require.NoError(t, err)
	require.NoError(t, out.Configure())

	p.Lock()
	assert.Equal(t, gpio.Float, p.P)
	assert.Equal(t, gpio.Low, p.L)
	p.Unlock()

	out.High()
	p.Lock()
	assert.Equal(t, gpio.High, p.L)
	p.Unlock()

	out.Low()
	p.Lock()
	assert.Equal(t, gpio.Low, p.L)
	p.Unlock()
}

func TestPeriph_Missing(t *testing.T) {
	_, err := Periph{Prefix: "NOSUCHPIN"}.Open(99)
	assert.ErrorIs(t, err, ErrInvalidPin)
}
