// Package pixel packs colors into the byte order a strip expects.
package pixel

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Channel offsets inside a ColorVal. The top byte carries the white
// channel of RGBW parts.
const (
	WHITE_OFFSET uint8 = 0x18
	GREEN_OFFSET uint8 = 0x10
	RED_OFFSET   uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

// ColorVal is a 0xWWGGRRBB packed color.
type ColorVal uint32

func NewColor(c uint32) ColorVal {
	return ColorVal(c)
}

func (c ColorVal) Color() uint32 {
	return uint32(c)
}

func setcolor(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & (mask)) >> off)
}

func (c *ColorVal) SetR(r uint8) { *c = ColorVal(setcolor(uint32(*c), r, RED_OFFSET)) }
func (c *ColorVal) SetG(g uint8) { *c = ColorVal(setcolor(uint32(*c), g, GREEN_OFFSET)) }
func (c *ColorVal) SetB(b uint8) { *c = ColorVal(setcolor(uint32(*c), b, BLUE_OFFSET)) }
func (c *ColorVal) SetW(w uint8) { *c = ColorVal(setcolor(uint32(*c), w, WHITE_OFFSET)) }

func (c ColorVal) GetR() uint8 { return getcolor(uint32(c), RED_OFFSET) }
func (c ColorVal) GetG() uint8 { return getcolor(uint32(c), GREEN_OFFSET) }
func (c ColorVal) GetB() uint8 { return getcolor(uint32(c), BLUE_OFFSET) }
func (c ColorVal) GetW() uint8 { return getcolor(uint32(c), WHITE_OFFSET) }

// Serialize appends c to buf in the given channel order.
func (c ColorVal) Serialize(buf []byte, o Order) []byte {
	for _, ch := range o {
		switch ch {
		case 'R':
			buf = append(buf, c.GetR())
		case 'G':
			buf = append(buf, c.GetG())
		case 'B':
			buf = append(buf, c.GetB())
		case 'W':
			buf = append(buf, c.GetW())
		}
	}
	return buf
}

// ParseColor reads a hex color such as "ff8800", "#ff8800" or the RGBW
// form "ff880010".
func ParseColor(s string) (ColorVal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	b, err := hex.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	var c ColorVal
	switch len(b) {
	case 4:
		c.SetW(b[3])
		fallthrough
	case 3:
		c.SetR(b[0])
		c.SetG(b[1])
		c.SetB(b[2])
	default:
		return 0, fmt.Errorf("color %q: want 3 or 4 bytes, got %d", s, len(b))
	}
	return c, nil
}
