// Package void provides a renderer that discards all draw commands
// while keeping the image lifecycle fully observable. It backs
// headless runs and tests that only exercise command generation.
package void

import (
	"image"

	"github.com/DasLixou/femtovg"
	"github.com/DasLixou/femtovg/renderer"
)

func init() {
	renderer.Register(renderer.BackendVoid, func() renderer.Renderer {
		return New()
	})
}

type textureInfo struct {
	width, height uint32
	flags         femtovg.ImageFlags
	texType       renderer.TextureType
}

// Renderer discards all rendering. Image handles behave exactly as on
// a real backend: creation allocates a fresh id, introspection reports
// the recorded metadata, deletion is idempotent.
type Renderer struct {
	width  uint32
	height uint32
	dpi    float32

	nextID   femtovg.ImageID
	textures map[femtovg.ImageID]textureInfo
}

// New creates a void renderer.
func New() *Renderer {
	return &Renderer{
		nextID:   1,
		textures: make(map[femtovg.ImageID]textureInfo),
	}
}

// SetSize records the surface dimensions.
func (r *Renderer) SetSize(width, height uint32, dpi float32) {
	r.width = width
	r.height = height
	r.dpi = dpi
}

// Render discards the batch.
func (r *Renderer) Render(verts []renderer.Vertex, commands []renderer.Command) {}

// CreateImage records the image metadata and returns a fresh handle.
// The pixel data is dropped.
func (r *Renderer) CreateImage(img image.Image, flags femtovg.ImageFlags) (femtovg.ImageID, error) {
	texType := renderer.TextureRGBA
	switch img.(type) {
	case *image.Alpha:
		texType = renderer.TextureAlpha
	case *image.Gray:
		texType = renderer.TextureAlpha
	}

	bounds := img.Bounds()
	id := r.nextID
	r.nextID++
	r.textures[id] = textureInfo{
		width:   uint32(bounds.Dx()),
		height:  uint32(bounds.Dy()),
		flags:   flags,
		texType: texType,
	}
	femtovg.Logger().Debug("created image", "id", uint64(id),
		"width", bounds.Dx(), "height", bounds.Dy())
	return id, nil
}

// UpdateImage discards the new pixel data.
func (r *Renderer) UpdateImage(id femtovg.ImageID, img image.Image, x, y uint32) {}

// DeleteImage forgets the handle.
func (r *Renderer) DeleteImage(id femtovg.ImageID) {
	delete(r.textures, id)
}

// TextureFlags returns the creation flags, or zero for unknown ids.
func (r *Renderer) TextureFlags(id femtovg.ImageID) femtovg.ImageFlags {
	return r.textures[id].flags
}

// TextureSize returns the recorded dimensions, or (0, 0) for unknown ids.
func (r *Renderer) TextureSize(id femtovg.ImageID) (uint32, uint32) {
	info := r.textures[id]
	return info.width, info.height
}

// TextureType returns the recorded channel layout, or TextureNone for
// unknown ids.
func (r *Renderer) TextureType(id femtovg.ImageID) renderer.TextureType {
	return r.textures[id].texType
}

// Screenshot returns nil; there is no surface to capture.
func (r *Renderer) Screenshot() image.Image {
	return nil
}
