//go:build linux

package pin

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Chardev opens lines through the Linux GPIO character device. Every
// High or Low is one ioctl, a few microseconds each, so pulses come out
// far wider than WS2812 tolerates; use it for wiring checks with a logic
// analyzer, not to drive a strip.
type Chardev struct {
	Chip     string // e.g. "gpiochip0"
	Consumer string
}

func (c Chardev) Open(n int) (Output, error) {
	chip, err := gpiocdev.NewChip(c.Chip)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPIO chip %s: %w", c.Chip, err)
	}
	consumer := c.Consumer
	if consumer == "" {
		consumer = "ws2812"
	}
	line, err := chip.RequestLine(n,
		gpiocdev.AsOutput(0),
		gpiocdev.WithBiasDisabled,
		gpiocdev.WithConsumer(consumer))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("failed to request GPIO line %d: %w", n, err)
	}
	return &chardevOutput{chip: chip, line: line}, nil
}

type chardevOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// Configure drives the line low. Direction and bias are fixed when the
// line is requested.
func (o *chardevOutput) Configure() error {
	if err := o.line.SetValue(0); err != nil {
		return fmt.Errorf("failed to set line low: %w", err)
	}
	return nil
}

func (o *chardevOutput) High() { _ = o.line.SetValue(1) }
func (o *chardevOutput) Low()  { _ = o.line.SetValue(0) }

func (o *chardevOutput) Close() error {
	lerr := o.line.Close()
	cerr := o.chip.Close()
	if lerr != nil {
		return lerr
	}
	return cerr
}
