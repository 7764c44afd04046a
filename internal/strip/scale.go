package strip

import "math"

// Scale writes round(src[i]*brightness) into dst, which must be at least
// as long as src. Rounding is half away from zero. Brightness is not
// clamped: results outside 0..255 wrap modulo 256 and non-finite results
// become 0.
func Scale(dst, src []byte, brightness float64) {
	for i, b := range src {
		dst[i] = scaleByte(b, brightness)
	}
}

func scaleByte(b byte, brightness float64) byte {
	v := math.Round(float64(b) * brightness)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	m := math.Mod(v, 256)
	if m < 0 {
		m += 256
	}
	return byte(m)
}

// applyRemap moves each LED group i of src to group table[i] of dst. dst
// must already hold a copy of src so untouched groups keep their bytes.
// Entries beyond the buffer and targets past the last complete group are
// ignored; trailing partial bytes stay in place.
func applyRemap(dst, src, table []byte, bytesPerLED int) {
	if bytesPerLED <= 0 {
		return
	}
	groups := len(src) / bytesPerLED
	for i, target := range table {
		if i >= groups {
			break
		}
		t := int(target)
		if t >= groups {
			continue
		}
		copy(dst[t*bytesPerLED:(t+1)*bytesPerLED], src[i*bytesPerLED:(i+1)*bytesPerLED])
	}
}
