// Package gfx holds the foundation graphics types shared by every
// rendering producer: 32-bit RGBA colors, hex parsing, and the small
// set of color transforms the theme derivation tables are built from.
//
// Color grammar accepted by Parse:
//   - #RGB      (4-bit per channel, expanded)
//   - #RRGGBB   (alpha defaults to 0xFF)
//   - #RRGGBBAA
package gfx

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

// Color is a 32-bit RGBA tuple. The zero value is fully transparent
// black.
type Color struct {
	R, G, B, A uint8
}

// Common colors used as hard fallbacks when no theme is loaded.
var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{}
)

// Parse decodes a hex color string. It is total: every input either
// yields a color or a fault.Parse error naming the offending string.
func Parse(s string) (Color, error) {
	raw := strings.TrimSpace(s)
	if !strings.HasPrefix(raw, "#") {
		return Color{}, fault.Newf(fault.Parse, raw, "color %q: missing '#' prefix", raw)
	}
	hex := raw[1:]
	switch len(hex) {
	case 3:
		var c Color
		vals := [3]uint8{}
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
			if err != nil {
				return Color{}, fault.Newf(fault.Parse, raw, "color %q: bad hex digit", raw)
			}
			vals[i] = uint8(v*16 + v)
		}
		c = Color{vals[0], vals[1], vals[2], 255}
		return c, nil
	case 6, 8:
		var ch [4]uint8
		ch[3] = 255
		for i := 0; i*2 < len(hex); i++ {
			v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
			if err != nil {
				return Color{}, fault.Newf(fault.Parse, raw, "color %q: bad hex digit", raw)
			}
			ch[i] = uint8(v)
		}
		return Color{ch[0], ch[1], ch[2], ch[3]}, nil
	default:
		return Color{}, fault.Newf(fault.Parse, raw, "color %q: want #RGB, #RRGGBB or #RRGGBBAA", raw)
	}
}

// MustParse is Parse for trusted literals (builtin skins, tests).
// It panics on malformed input and must never see foreign data.
func MustParse(s string) Color {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex renders the color as #RRGGBB, or #RRGGBBAA when alpha is not
// fully opaque. Parse(c.Hex()) always round-trips to c.
func (c Color) Hex() string {
	if c.A != 255 {
		return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// toColorful converts to go-colorful's float RGB, ignoring alpha.
func (c Color) toColorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// fromColorful clamps and converts back, reattaching alpha a.
func fromColorful(cc colorful.Color, a uint8) Color {
	r, g, b := cc.Clamped().RGB255()
	return Color{r, g, b, a}
}

// Lighten moves the color toward white in Luv space by t in [0,1].
func (c Color) Lighten(t float64) Color {
	return fromColorful(c.toColorful().BlendLuv(colorful.Color{R: 1, G: 1, B: 1}, clamp01(t)), c.A)
}

// Darken moves the color toward black in Luv space by t in [0,1].
func (c Color) Darken(t float64) Color {
	return fromColorful(c.toColorful().BlendLuv(colorful.Color{}, clamp01(t)), c.A)
}

// Mix blends c toward other by t in [0,1] in Luv space, interpolating
// alpha linearly.
func (c Color) Mix(other Color, t float64) Color {
	t = clamp01(t)
	a := uint8(float64(c.A)*(1-t) + float64(other.A)*t)
	return fromColorful(c.toColorful().BlendLuv(other.toColorful(), t), a)
}

// WithAlpha returns the color with alpha scaled to f in [0,1] of full
// opacity. The RGB channels are untouched.
func (c Color) WithAlpha(f float64) Color {
	c.A = uint8(clamp01(f) * 255)
	return c
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
