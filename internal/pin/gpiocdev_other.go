//go:build !linux

package pin

import "fmt"

type Chardev struct {
	Chip     string
	Consumer string
}

func (c Chardev) Open(n int) (Output, error) {
	return nil, fmt.Errorf("gpiocdev line %d: %w", n, ErrUnsupported)
}
