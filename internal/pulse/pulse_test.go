package pulse_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-ws2812/internal/pin"
	. "github.com/coreman2200/funtimes-ws2812/internal/pulse"
)

func TestShapes(t *testing.T) {
	assert.Equal(t, Shape{High: 4, Low: 9}, Zero)
	assert.Equal(t, Shape{High: 8, Low: 6}, One)
}

var TestCalibrationWritesPerUnit = []struct {
	Cal    Calibration
	Expect int
}{
	{Default, 1},
	{Calibration{Clock: 160 * physic.MegaHertz, CyclesPerWrite: 7, UnitNs: 87.5}, 2},
	{Calibration{Clock: 1 * physic.GigaHertz, CyclesPerWrite: 4, UnitNs: 100}, 25},
	{Calibration{Clock: 8 * physic.MegaHertz, CyclesPerWrite: 7, UnitNs: 87.5}, 1},
	{Calibration{}, 1},
}

func TestCalibration_WritesPerUnit(t *testing.T) {
	for i, v := range TestCalibrationWritesPerUnit {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.Equal(t, v.Expect, v.Cal.WritesPerUnit())
		})
	}
}

func TestCalibration_Timing(t *testing.T) {
	cal := Calibration{Clock: 160 * physic.MegaHertz, CyclesPerWrite: 7, UnitNs: 87.5}
	assert.Equal(t, Timing{ZeroHigh: 8, ZeroLow: 18, OneHigh: 16, OneLow: 12}, cal.Timing())

	hi, lo := Default.Durations(Zero)
	assert.Equal(t, 350*time.Nanosecond, hi)
	assert.Equal(t, 788*time.Nanosecond, lo)
}

func TestEmit_SinglePulse(t *testing.T) {
	tm := Default.Timing()

	zero := &pin.Trace{}
	EmitZero(zero, tm)
	assert.Equal(t, []pin.Pulse{{High: 4, Low: 9}}, zero.Pulses())

	one := &pin.Trace{}
	EmitOne(one, tm)
	assert.Equal(t, []pin.Pulse{{High: 8, Low: 6}}, one.Pulses())
}

func TestEncodeByte_MSBFirst(t *testing.T) {
	tm := Default.Timing()
	tr := &pin.Trace{}
	EncodeByte(tr, tm, 0b10110000)

	z, o := pin.Pulse{High: 4, Low: 9}, pin.Pulse{High: 8, Low: 6}
	assert.Equal(t, []pin.Pulse{o, z, o, o, z, z, z, z}, tr.Pulses())
}

func TestEncode_RoundTrip(t *testing.T) {
	for _, cal := range []Calibration{Default, {Clock: 240 * physic.MegaHertz, CyclesPerWrite: 7, UnitNs: 87.5}} {
		tm := cal.Timing()
		tr := &pin.Trace{}
		buf := []byte{0x00, 0xff, 0x55, 0xaa, 0x01, 0x80}
		Encode(tr, tm, buf)

		pulses := tr.Pulses()
		assert.Len(t, pulses, len(buf)*8)
		assert.Equal(t, buf, Decode(pulses, tm))
	}
}

func TestEncode_Empty(t *testing.T) {
	tr := &pin.Trace{}
	Encode(tr, Default.Timing(), nil)
	assert.Empty(t, tr.Runs())
}
