package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-ws2812/internal/config"
	"github.com/coreman2200/funtimes-ws2812/internal/critical"
	"github.com/coreman2200/funtimes-ws2812/internal/layout"
	"github.com/coreman2200/funtimes-ws2812/internal/metrics"
	"github.com/coreman2200/funtimes-ws2812/internal/pin"
	"github.com/coreman2200/funtimes-ws2812/internal/pixel"
	"github.com/coreman2200/funtimes-ws2812/internal/pulse"
	"github.com/coreman2200/funtimes-ws2812/internal/strip"
)

// opener selects the pin backend named in the config.
func opener(c config.Config) (pin.Opener, error) {
	switch c.Driver {
	case "periph":
		if err := pin.InitHost(); err != nil {
			return nil, err
		}
		return pin.Periph{}, nil
	case "gpiocdev":
		log.Warn().
			Str("chip", c.Chip).
			Msg("gpiocdev writes cost one ioctl each; pulses will miss WS2812 timing, use the periph driver to light a strip")
		return pin.Chardev{Chip: c.Chip, Consumer: "ws2812"}, nil
	case "sim":
		return pin.NewSim(), nil
	}
	return nil, fmt.Errorf("%w: driver %q", config.ErrInvalid, c.Driver)
}

// section prefers realtime scheduling and falls back to a pinned thread.
func section(c config.Config) (critical.Section, func() error) {
	if !c.Realtime.Enabled {
		return critical.Pinned{}, func() error { return nil }
	}
	rt, err := critical.NewRealtime(c.Realtime.Priority)
	if err != nil {
		lvl := log.Warn()
		if errors.Is(err, critical.ErrUnsupported) {
			lvl = log.Info()
		}
		lvl.Err(err).Msg("realtime section unavailable; using pinned thread")
		return critical.Pinned{}, func() error { return nil }
	}
	return rt, rt.Close
}

func calibration(c config.Config) pulse.Calibration {
	return pulse.Calibration{
		Clock:          physic.Frequency(c.Calibration.ClockHz) * physic.Hertz,
		CyclesPerWrite: c.Calibration.CyclesPerWrite,
		UnitNs:         c.Calibration.UnitNs,
	}
}

// stripLayout is the configured matrix, or a straight run of Count LEDs.
func stripLayout(c config.Config) layout.Layout {
	if c.Layout == nil {
		return layout.Strip(c.Count)
	}
	panels := c.Layout.Panels
	if panels <= 0 {
		panels = 1
	}
	return layout.Layout{
		Dim:   layout.Dim{X: c.Layout.Width, Y: c.Layout.Height, Z: panels},
		Order: layout.Serpentine{XFlipEveryRow: c.Layout.Serpentine, YFlipEveryPanel: c.Layout.Serpentine},
	}
}

// applySettings pushes brightness and the layout remap into st. Used at
// startup and on every config reload.
func applySettings(st *strip.State, c config.Config) {
	metrics.SetBrightness(st.SetBrightness(c.Brightness))
	if c.Layout == nil {
		st.ClearRemap()
		return
	}
	table, err := stripLayout(c).Remap()
	if err != nil {
		log.Warn().Err(err).Msg("layout remap not applied")
		return
	}
	st.SetRemap(table)
}

type setup struct {
	drv    *strip.Driver
	order  pixel.Order
	layout layout.Layout
	close  func()
}

func buildDriver(c config.Config, observers ...strip.Observer) (*setup, error) {
	order, err := pixel.ParseOrder(c.ColorOrder)
	if err != nil {
		return nil, err
	}
	op, err := opener(c)
	if err != nil {
		return nil, err
	}
	sec, closeSec := section(c)
	cal := calibration(c)

	pins := pin.NodeMCU
	if len(c.Pins) > 0 {
		pins = pin.Table(c.Pins)
	}

	obs := append(strip.Observers{metrics.Recorder{}}, observers...)
	drv := strip.New(op,
		strip.WithPins(pins),
		strip.WithSection(sec),
		strip.WithCalibration(cal),
		strip.WithBytesPerLED(order.Channels()),
		strip.WithSettleDelay(c.Settle()),
		strip.WithLogger(log.With().Str("component", "strip").Logger()),
		strip.WithObserver(obs),
	)
	applySettings(drv.State, c)

	log.Info().
		Str("driver", c.Driver).
		Int("pin", c.Pin).
		Str("calibration", cal.String()).
		Str("order", string(order)).
		Msg("strip ready")

	return &setup{
		drv:    drv,
		order:  order,
		layout: stripLayout(c),
		close: func() {
			if err := drv.Close(); err != nil {
				log.Warn().Err(err).Msg("close strip")
			}
			if err := closeSec(); err != nil {
				log.Warn().Err(err).Msg("release realtime section")
			}
		},
	}, nil
}
