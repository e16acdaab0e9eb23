package femtovg

// ImageID is an opaque handle identifying a texture resident on one
// Renderer. Handles are only meaningful on the Renderer that issued
// them; the zero value never identifies a live texture.
type ImageID uint64

// Valid reports whether the id could refer to a live texture.
func (id ImageID) Valid() bool {
	return id != 0
}

// ImageFlags select filtering, wrapping and upload behavior for a
// texture. Flags are fixed when the image is created and cannot be
// changed for the image's lifetime.
type ImageFlags uint32

const (
	// ImageGenerateMipmaps builds a mipmap chain during upload.
	ImageGenerateMipmaps ImageFlags = 1 << iota
	// ImageRepeatX repeats the texture in the x direction.
	ImageRepeatX
	// ImageRepeatY repeats the texture in the y direction.
	ImageRepeatY
	// ImageFlipY flips the texture vertically when sampled.
	ImageFlipY
	// ImagePremultiplied marks the pixel data as already premultiplied.
	ImagePremultiplied
	// ImageNearest samples with nearest-neighbor instead of linear
	// interpolation.
	ImageNearest
)

// Has reports whether all bits of flag are set.
func (f ImageFlags) Has(flag ImageFlags) bool {
	return f&flag == flag
}

// FillRule resolves the interior of self-overlapping polygons.
type FillRule int

const (
	// NonZero fills every region with a nonzero winding number. The default.
	NonZero FillRule = iota
	// EvenOdd fills every region crossed an odd number of times.
	EvenOdd
)

// String returns the rule name.
func (r FillRule) String() string {
	if r == EvenOdd {
		return "EvenOdd"
	}
	return "NonZero"
}
