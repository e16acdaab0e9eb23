package femtovg

import "image/color"

// Color represents an RGBA color with float32 components in [0, 1].
// Colors are straight (non-premultiplied) unless obtained from
// Premultiplied.
type Color struct {
	R, G, B, A float32
}

// RGB creates an opaque color from 8-bit components.
func RGB(r, g, b uint8) Color {
	return RGBA(r, g, b, 255)
}

// RGBA creates a color from 8-bit components.
func RGBA(r, g, b, a uint8) Color {
	return Color{
		R: float32(r) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
		A: float32(a) / 255,
	}
}

// RGBf creates an opaque color from float components in [0, 1].
func RGBf(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// RGBAf creates a color from float components in [0, 1].
func RGBAf(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// FromColor converts a standard color.Color.
func FromColor(c color.Color) Color {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return Color{}
	}
	// color.Color components are alpha-premultiplied 16-bit values.
	af := float32(a) / 65535
	return Color{
		R: float32(r) / float32(a),
		G: float32(g) / float32(a),
		B: float32(b) / float32(a),
		A: af,
	}
}

// Black is opaque black.
var Black = Color{A: 1}

// White is opaque white.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Premultiplied returns the color with R, G and B scaled by A.
func (c Color) Premultiplied() Color {
	return Color{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// WithAlpha returns the color with its alpha replaced.
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

// NRGBA converts to the standard non-premultiplied 8-bit representation.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
