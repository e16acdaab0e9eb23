package renderer

import (
	"errors"
	"image"

	"github.com/DasLixou/femtovg"
)

// Image creation errors. CreateImage is the only fallible operation in
// the contract; callers decide the fallback (skip the image, use a
// placeholder). All other image operations degrade to no-ops or zero
// values on invalid ids instead of erroring.
var (
	// ErrUnsupportedImageFormat is returned when the backend cannot
	// represent the source image's pixel layout.
	ErrUnsupportedImageFormat = errors.New("renderer: unsupported image format")

	// ErrImageTooLarge is returned when the image exceeds the backend's
	// maximum texture dimensions.
	ErrImageTooLarge = errors.New("renderer: image exceeds maximum texture size")

	// ErrImageAllocation is returned when backend texture storage could
	// not be allocated.
	ErrImageAllocation = errors.New("renderer: image allocation failed")
)

// TextureType is the channel layout of a backend texture.
type TextureType int

const (
	// TextureNone is reported for ids that do not name a live texture.
	TextureNone TextureType = iota
	// TextureRGB has three color channels and no alpha.
	TextureRGB
	// TextureRGBA has four channels.
	TextureRGBA
	// TextureAlpha has a single coverage channel (glyph masks).
	TextureAlpha
)

// String returns the texture type name.
func (t TextureType) String() string {
	switch t {
	case TextureRGB:
		return "Rgb"
	case TextureRGBA:
		return "Rgba"
	case TextureAlpha:
		return "Alpha"
	default:
		return "None"
	}
}

// Renderer is the backend contract. One implementation is active at a
// time, chosen by the host application; all implementations must honor
// the same command semantics so output is backend-independent.
//
// Renderers are NOT safe for concurrent use: Render and all image
// lifecycle operations must run on the thread owning the GPU context,
// serialized by the caller. Render is synchronous — it completes (or
// deterministically queues) all GPU work before returning, and has no
// failure channel: a backend that cannot execute a command degrades
// gracefully rather than erroring mid-frame.
type Renderer interface {
	// SetSize (re)configures the output surface dimensions and device
	// pixel ratio. It must be called before the first Render and on
	// every surface resize. Existing images remain valid.
	SetSize(width, height uint32, dpi float32)

	// Render executes a full command batch against the given vertex
	// buffer. Commands execute strictly in list order. After the batch,
	// the stencil buffer is clear: no command may leak stencil state
	// into the next. Vertex ranges must lie within verts; ranges from a
	// previous frame's buffer are a caller bug.
	Render(verts []Vertex, commands []Command)

	// CreateImage uploads pixel data and returns a fresh handle, or an
	// error if the backend cannot represent the image. Flags are fixed
	// for the image's lifetime.
	CreateImage(img image.Image, flags femtovg.ImageFlags) (femtovg.ImageID, error)

	// UpdateImage re-uploads pixel data at an offset. The region
	// [x, x+w) × [y, y+h) must lie within the original image's bounds;
	// behavior outside that range is undefined, but backends must not
	// corrupt unrelated memory.
	UpdateImage(id femtovg.ImageID, img image.Image, x, y uint32)

	// DeleteImage releases backend storage. Idempotent: deleting an
	// unknown or already-deleted id has no effect.
	DeleteImage(id femtovg.ImageID)

	// TextureFlags returns the creation flags, or zero for unknown ids.
	TextureFlags(id femtovg.ImageID) femtovg.ImageFlags

	// TextureSize returns the dimensions passed to CreateImage, which
	// never change over the image's lifetime, or (0, 0) for unknown ids.
	TextureSize(id femtovg.ImageID) (width, height uint32)

	// TextureType returns the channel layout, or TextureNone for
	// unknown ids.
	TextureType(id femtovg.ImageID) TextureType

	// Screenshot captures the current surface contents without
	// mutating render state, or returns nil if the backend cannot
	// produce one.
	Screenshot() image.Image
}
