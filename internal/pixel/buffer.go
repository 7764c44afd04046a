package pixel

import (
	"fmt"
	"strings"
)

// Order is the channel order of one LED on the wire, e.g. "GRB".
type Order string

const (
	GRB  Order = "GRB"
	RGB  Order = "RGB"
	GRBW Order = "GRBW"
)

// ParseOrder accepts any permutation of RGB or RGBW.
func ParseOrder(s string) (Order, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return GRB, nil
	}
	if len(s) != 3 && len(s) != 4 {
		return "", fmt.Errorf("color order %q: want 3 or 4 channels", s)
	}
	seen := map[rune]bool{}
	for _, ch := range s {
		if !strings.ContainsRune("RGBW", ch) || seen[ch] {
			return "", fmt.Errorf("color order %q: bad channel %q", s, ch)
		}
		seen[ch] = true
	}
	if len(s) == 3 && seen['W'] {
		return "", fmt.Errorf("color order %q: W needs four channels", s)
	}
	return Order(s), nil
}

// Channels is the number of bytes one LED takes.
func (o Order) Channels() int { return len(o) }

// Fill returns a buffer of n LEDs all set to c.
func Fill(c ColorVal, n int, o Order) []byte {
	buf := make([]byte, 0, n*o.Channels())
	for i := 0; i < n; i++ {
		buf = c.Serialize(buf, o)
	}
	return buf
}

// Pack serialises colors in order.
func Pack(cs []ColorVal, o Order) []byte {
	buf := make([]byte, 0, len(cs)*o.Channels())
	for _, c := range cs {
		buf = c.Serialize(buf, o)
	}
	return buf
}
