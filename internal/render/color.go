package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// NamedColors maps CSS color keywords to their RGBA values.
var NamedColors = map[string]color.RGBA{
	"black":       {R: 0, G: 0, B: 0, A: 255},
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"red":         {R: 255, G: 0, B: 0, A: 255},
	"green":       {R: 0, G: 128, B: 0, A: 255},
	"blue":        {R: 0, G: 0, B: 255, A: 255},
	"yellow":      {R: 255, G: 255, B: 0, A: 255},
	"cyan":        {R: 0, G: 255, B: 255, A: 255},
	"magenta":     {R: 255, G: 0, B: 255, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
	"silver":      {R: 192, G: 192, B: 192, A: 255},
	"maroon":      {R: 128, G: 0, B: 0, A: 255},
	"olive":       {R: 128, G: 128, B: 0, A: 255},
	"lime":        {R: 0, G: 255, B: 0, A: 255},
	"aqua":        {R: 0, G: 255, B: 255, A: 255},
	"teal":        {R: 0, G: 128, B: 128, A: 255},
	"navy":        {R: 0, G: 0, B: 128, A: 255},
	"fuchsia":     {R: 255, G: 0, B: 255, A: 255},
	"purple":      {R: 128, G: 0, B: 128, A: 255},
	"orange":      {R: 255, G: 165, B: 0, A: 255},
	"pink":        {R: 255, G: 192, B: 203, A: 255},
	"brown":       {R: 165, G: 42, B: 42, A: 255},
	"gold":        {R: 255, G: 215, B: 0, A: 255},
	"crimson":     {R: 220, G: 20, B: 60, A: 255},
	"transparent": {R: 0, G: 0, B: 0, A: 0},
}

// ParseColor parses a CSS color as accepted by a canvas fillStyle:
// a keyword, "#rgb", "#rgba", "#rrggbb", "#rrggbbaa", "rgb(r, g, b)" or
// "rgba(r, g, b, a)". The alpha of rgba() is a fraction when at most 1 and a byte
// value above that.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	lower := strings.ToLower(s)
	if c, ok := NamedColors[lower]; ok {
		return c, nil
	}
	switch {
	case strings.HasPrefix(lower, "#"):
		return parseHex(lower[1:])
	case strings.HasPrefix(lower, "rgba(") && strings.HasSuffix(lower, ")"):
		return parseFunc(lower[5:len(lower)-1], true)
	case strings.HasPrefix(lower, "rgb(") && strings.HasSuffix(lower, ")"):
		return parseFunc(lower[4:len(lower)-1], false)
	}
	return color.RGBA{}, fmt.Errorf("unrecognized color format: %q", s)
}

// MustParseColor is ParseColor for literals known to be valid.
func MustParseColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(h string) (color.RGBA, error) {
	switch len(h) {
	case 3, 4:
		// Shorthand digits are doubled: "f80" is "ff8800".
		var long strings.Builder
		for _, r := range h {
			long.WriteRune(r)
			long.WriteRune(r)
		}
		h = long.String()
	case 6, 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length %d", len(h))
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", h, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func parseFunc(args string, withAlpha bool) (color.RGBA, error) {
	parts := strings.Split(args, ",")
	want := 3
	if withAlpha {
		want = 4
	}
	if len(parts) != want {
		return color.RGBA{}, fmt.Errorf("expected %d components, got %d", want, len(parts))
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return color.RGBA{}, fmt.Errorf("invalid color component %q", parts[i])
		}
		ch[i] = uint8(n)
	}
	a := uint8(255)
	if withAlpha {
		v, err := parseAlpha(strings.TrimSpace(parts[3]))
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha component %q: %w", parts[3], err)
		}
		a = v
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: a}, nil
}

// parseAlpha reads values up to 1 as a fraction of opaque, so "1" and
// "0.5" follow CSS, and larger values as a byte.
func parseAlpha(s string) (uint8, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	switch {
	case f < 0 || f > 255:
		return 0, fmt.Errorf("alpha out of range: %g", f)
	case f <= 1:
		return uint8(f*255 + 0.5), nil
	default:
		return uint8(f), nil
	}
}

// ToHex formats c as "#rrggbb", or "#rrggbbaa" when not opaque.
func ToHex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
