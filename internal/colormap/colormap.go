// Package colormap maps a saturation scalar in [0,1] to an RGBA color.
// It is used by the height-stddev coloring strategy (see internal/coloring)
// as a deterministic, allocation-free scalar-to-color function.
package colormap

import "github.com/fenwick-gis/xray-pyramid/internal/color"

// Colormap converts a saturation value, already clamped by the caller to
// [0,1], into an opaque 8-bit color.
type Colormap interface {
	ForValue(s float32) color.Color[uint8]
}

// Jet is the classic blue -> cyan -> yellow -> red gradient.
type Jet struct{}

func (Jet) ForValue(s float32) color.Color[uint8] {
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	r := jetChannel(s - 0.75)
	g := jetChannel(s - 0.5)
	b := jetChannel(s - 0.25)
	return color.Color[uint8]{
		Red:   to8(r),
		Green: to8(g),
		Blue:  to8(b),
		Alpha: 255,
	}
}

// jetChannel evaluates one triangular lobe of the jet gradient around v=0.
func jetChannel(v float32) float32 {
	if v < 0 {
		v = -v
	}
	out := 1.5 - 4*v
	if out < 0 {
		return 0
	}
	if out > 1 {
		return 1
	}
	return out
}

func to8(v float32) uint8 {
	v *= 255
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Monochrome linearly interpolates from white at s=0 to Base at s=1.
type Monochrome struct {
	Base color.Color[uint8]
}

func (m Monochrome) ForValue(s float32) color.Color[uint8] {
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	white := color.Color[float32]{Red: 1, Green: 1, Blue: 1, Alpha: 1}
	base := color.ToF32(m.Base)
	lerp := func(a, b float32) float32 { return a + (b-a)*s }
	return color.ToU8(color.Color[float32]{
		Red:   lerp(white.Red, base.Red),
		Green: lerp(white.Green, base.Green),
		Blue:  lerp(white.Blue, base.Blue),
		Alpha: lerp(white.Alpha, base.Alpha),
	})
}

// Purplish is the fixed hue used for the "purplish" height-stddev
// colormap.
var Purplish = Monochrome{Base: color.Color[uint8]{Red: 132, Green: 39, Blue: 191, Alpha: 255}}
