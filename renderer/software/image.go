package software

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	xdraw "golang.org/x/image/draw"

	"github.com/DasLixou/femtovg"
	"github.com/DasLixou/femtovg/renderer"
)

// maxTextureSize is the largest dimension CreateImage accepts, matching
// the guaranteed minimum of the GPU backend.
const maxTextureSize = 16384

// texture holds image pixels in one of two storages: premultiplied
// RGBA for color images, a single coverage channel for masks.
type texture struct {
	rgba  *image.RGBA
	alpha *image.Alpha

	width   uint32
	height  uint32
	flags   femtovg.ImageFlags
	texType renderer.TextureType
}

// CreateImage converts the source into backend storage and returns a
// fresh handle. Alpha and grayscale sources become single-channel
// masks; everything else becomes premultiplied RGBA.
func (r *Renderer) CreateImage(img image.Image, flags femtovg.ImageFlags) (femtovg.ImageID, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("%w: empty image", renderer.ErrUnsupportedImageFormat)
	}
	if w > maxTextureSize || h > maxTextureSize {
		return 0, fmt.Errorf("%w: %dx%d exceeds %d", renderer.ErrImageTooLarge, w, h, maxTextureSize)
	}

	tex := &texture{
		width:  uint32(w),
		height: uint32(h),
		flags:  flags,
	}
	switch src := img.(type) {
	case *image.Alpha:
		tex.texType = renderer.TextureAlpha
		tex.alpha = image.NewAlpha(image.Rect(0, 0, w, h))
		xdraw.Draw(tex.alpha, tex.alpha.Bounds(), src, bounds.Min, xdraw.Src)
	case *image.Gray:
		// Luminance becomes coverage.
		tex.texType = renderer.TextureAlpha
		tex.alpha = image.NewAlpha(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
				tex.alpha.SetAlpha(x, y, color.Alpha{A: g})
			}
		}
	default:
		tex.texType = renderer.TextureRGBA
		if _, ok := img.(*image.YCbCr); ok {
			tex.texType = renderer.TextureRGB
		}
		tex.rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		if n, ok := img.(*image.NRGBA); ok && flags.Has(femtovg.ImagePremultiplied) {
			// Pixel data is already premultiplied despite the source
			// type; copy rows verbatim to avoid premultiplying twice.
			for y := 0; y < h; y++ {
				srcOff := n.PixOffset(bounds.Min.X, bounds.Min.Y+y)
				dstOff := tex.rgba.PixOffset(0, y)
				copy(tex.rgba.Pix[dstOff:dstOff+4*w], n.Pix[srcOff:srcOff+4*w])
			}
		} else {
			xdraw.Draw(tex.rgba, tex.rgba.Bounds(), img, bounds.Min, xdraw.Src)
		}
	}

	id := r.nextID
	r.nextID++
	r.textures[id] = tex
	return id, nil
}

// UpdateImage re-converts the source into the stored texture at the
// given offset. The update is clipped to the texture bounds.
func (r *Renderer) UpdateImage(id femtovg.ImageID, img image.Image, x, y uint32) {
	tex, ok := r.textures[id]
	if !ok {
		return
	}
	bounds := img.Bounds()
	dst := image.Rect(int(x), int(y), int(x)+bounds.Dx(), int(y)+bounds.Dy())
	if tex.rgba != nil {
		xdraw.Draw(tex.rgba, dst.Intersect(tex.rgba.Bounds()), img, bounds.Min, xdraw.Src)
	} else {
		xdraw.Draw(tex.alpha, dst.Intersect(tex.alpha.Bounds()), img, bounds.Min, xdraw.Src)
	}
}

// DeleteImage releases the texture. Unknown ids are ignored.
func (r *Renderer) DeleteImage(id femtovg.ImageID) {
	delete(r.textures, id)
}

// TextureFlags returns the creation flags, or zero for unknown ids.
func (r *Renderer) TextureFlags(id femtovg.ImageID) femtovg.ImageFlags {
	if tex, ok := r.textures[id]; ok {
		return tex.flags
	}
	return 0
}

// TextureSize returns the texture dimensions, or (0, 0) for unknown ids.
func (r *Renderer) TextureSize(id femtovg.ImageID) (uint32, uint32) {
	if tex, ok := r.textures[id]; ok {
		return tex.width, tex.height
	}
	return 0, 0
}

// TextureType returns the channel layout, or TextureNone for unknown
// ids.
func (r *Renderer) TextureType(id femtovg.ImageID) renderer.TextureType {
	if tex, ok := r.textures[id]; ok {
		return tex.texType
	}
	return renderer.TextureNone
}

// wrap maps a texel coordinate into [0, n) per the repeat flag.
func wrap(t float32, n int, repeat bool) float32 {
	fn := float32(n)
	if repeat {
		t = t - math32.Floor(t/fn)*fn
	}
	if t < 0 {
		t = 0
	}
	if t > fn-1 {
		t = fn - 1
	}
	return t
}

// texel returns the premultiplied color at integer coordinates.
func (t *texture) texel(x, y int) [4]float32 {
	if t.alpha != nil {
		a := float32(t.alpha.AlphaAt(x, y).A) / 255
		return [4]float32{a, a, a, a}
	}
	off := t.rgba.PixOffset(x, y)
	pix := t.rgba.Pix[off : off+4 : off+4]
	return [4]float32{
		float32(pix[0]) / 255,
		float32(pix[1]) / 255,
		float32(pix[2]) / 255,
		float32(pix[3]) / 255,
	}
}

// sample evaluates the texture at normalized coordinates, honoring the
// repeat, flip and filter flags. The result is premultiplied; alpha
// textures broadcast coverage to all four channels.
func (t *texture) sample(u, v float32) [4]float32 {
	if t.flags.Has(femtovg.ImageFlipY) {
		v = 1 - v
	}
	w, h := int(t.width), int(t.height)
	repeatX := t.flags.Has(femtovg.ImageRepeatX)
	repeatY := t.flags.Has(femtovg.ImageRepeatY)

	if t.flags.Has(femtovg.ImageNearest) {
		x := int(wrap(math32.Floor(u*float32(w)), w, repeatX))
		y := int(wrap(math32.Floor(v*float32(h)), h, repeatY))
		return t.texel(x, y)
	}

	// Bilinear around the sample point.
	fx := u*float32(w) - 0.5
	fy := v*float32(h) - 0.5
	x0f := math32.Floor(fx)
	y0f := math32.Floor(fy)
	tx := fx - x0f
	ty := fy - y0f

	x0 := int(wrap(x0f, w, repeatX))
	x1 := int(wrap(x0f+1, w, repeatX))
	y0 := int(wrap(y0f, h, repeatY))
	y1 := int(wrap(y0f+1, h, repeatY))

	c00 := t.texel(x0, y0)
	c10 := t.texel(x1, y0)
	c01 := t.texel(x0, y1)
	c11 := t.texel(x1, y1)
	top := lerp4(c00, c10, tx)
	bot := lerp4(c01, c11, tx)
	return lerp4(top, bot, ty)
}
