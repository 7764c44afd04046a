package pin

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Periph opens lines through the periph.io GPIO registry. Host drivers
// must be registered first, see InitHost.
type Periph struct {
	// Prefix is prepended to the GPIO number to form the registry name.
	// Defaults to "GPIO".
	Prefix string
}

// InitHost loads the periph.io host drivers.
func InitHost() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}

func (p Periph) Open(n int) (Output, error) {
	prefix := p.Prefix
	if prefix == "" {
		prefix = "GPIO"
	}
	name := fmt.Sprintf("%s%d", prefix, n)
	io := gpioreg.ByName(name)
	if io == nil {
		return nil, fmt.Errorf("periph: no pin named %s: %w", name, ErrInvalidPin)
	}
	return &periphOutput{io: io}, nil
}

type periphOutput struct {
	io gpio.PinIO
}

func (o *periphOutput) Configure() error {
	if err := o.io.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("%s: float: %w", o.io, err)
	}
	if err := o.io.Out(gpio.Low); err != nil {
		return fmt.Errorf("%s: output low: %w", o.io, err)
	}
	return nil
}

// Out only errors on the first call that switches direction, which
// Configure has already done.
func (o *periphOutput) High() { _ = o.io.Out(gpio.High) }
func (o *periphOutput) Low()  { _ = o.io.Out(gpio.Low) }

func (o *periphOutput) Close() error {
	return o.io.Halt()
}
