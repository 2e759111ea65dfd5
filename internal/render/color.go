package render

import (
	"image/color"
	"strconv"
	"strings"
)

// ParseColor reads a CSS hex colour (#rgb, #rgba, #rrggbb or #rrggbbaa) and
// scales its alpha by opacity. Anything unreadable comes back as fallback.
func ParseColor(s string, opacity float64, fallback color.NRGBA) color.NRGBA {
	c, ok := parseHex(s)
	if !ok {
		c = fallback
	}

	c.A = uint8(float64(c.A)*clamp01(opacity) + 0.5)

	return c
}

func parseHex(s string) (color.NRGBA, bool) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return color.NRGBA{}, false
	}

	switch len(hex) {
	case 3, 4:
		var long strings.Builder
		for _, r := range hex {
			long.WriteRune(r)
			long.WriteRune(r)
		}
		hex = long.String()
	case 6, 8:
	default:
		return color.NRGBA{}, false
	}

	if len(hex) == 6 {
		hex += "ff"
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}

	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
