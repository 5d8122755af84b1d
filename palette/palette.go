// Package palette holds the packed ARGB color type used by task records and
// the blending strategy used to derive affiliation group colors.
package palette

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a packed 0xAARRGGBB color.
type Color uint32

// Common colors.
const (
	Transparent Color = 0x00000000
	Black       Color = 0xFF000000
	White       Color = 0xFFFFFFFF
)

// ARGB packs the four channels into a Color.
func ARGB(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB packs an opaque color.
func RGB(r, g, b uint8) Color {
	return ARGB(0xFF, r, g, b)
}

// A returns the alpha channel.
func (c Color) A() uint8 { return uint8(c >> 24) }

// R returns the red channel.
func (c Color) R() uint8 { return uint8(c >> 16) }

// G returns the green channel.
func (c Color) G() uint8 { return uint8(c >> 8) }

// B returns the blue channel.
func (c Color) B() uint8 { return uint8(c) }

// String renders the color as #AARRGGBB.
func (c Color) String() string {
	return fmt.Sprintf("#%08X", uint32(c))
}

// Blender mixes two colors.
type Blender interface {
	// Overlay returns base weighted by ratio plus overlay weighted by
	// (1 - ratio). ratio 1 yields base, ratio 0 yields overlay.
	Overlay(base, overlay Color, ratio float64) Color
}

// BlenderFunc adapts a function to the Blender interface.
type BlenderFunc func(base, overlay Color, ratio float64) Color

// Overlay implements Blender.
func (f BlenderFunc) Overlay(base, overlay Color, ratio float64) Color {
	return f(base, overlay, ratio)
}

// ColorfulBlender blends in RGB space using go-colorful. The result is
// always opaque.
type ColorfulBlender struct{}

// Overlay implements Blender.
func (ColorfulBlender) Overlay(base, overlay Color, ratio float64) Color {
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	mixed := toColorful(overlay).BlendRgb(toColorful(base), ratio).Clamped()
	r, g, b := mixed.RGB255()
	return RGB(r, g, b)
}

func toColorful(c Color) colorful.Color {
	return colorful.Color{
		R: float64(c.R()) / 255.0,
		G: float64(c.G()) / 255.0,
		B: float64(c.B()) / 255.0,
	}
}

// ParseHex parses "#rgb" or "#rrggbb" into an opaque Color.
func ParseHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, err
	}
	r, g, b := c.RGB255()
	return RGB(r, g, b), nil
}
