package wgpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	xdraw "golang.org/x/image/draw"

	"github.com/DasLixou/femtovg"
	"github.com/DasLixou/femtovg/renderer"
)

// maxTextureSize limits image dimensions accepted by CreateImage.
const maxTextureSize = 16384

// frameTextures holds the offscreen render targets: MSAA color,
// depth/stencil, and a single-sample resolve texture that doubles as
// the readback source for Screenshot.
type frameTextures struct {
	msaaTex     hal.Texture
	msaaView    hal.TextureView
	stencilTex  hal.Texture
	stencilView hal.TextureView
	resolveTex  hal.Texture
	resolveView hal.TextureView
	width       uint32
	height      uint32
}

// ensure creates or recreates the targets when the requested size
// differs from the current one.
func (ft *frameTextures) ensure(device hal.Device, w, h uint32) error {
	if ft.width == w && ft.height == h && ft.msaaTex != nil {
		return nil
	}
	ft.destroy(device)

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	msaaTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "vg_msaa_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create MSAA color texture: %w", err)
	}
	ft.msaaTex = msaaTex

	msaaView, err := device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
		Label: "vg_msaa_color_view",
	})
	if err != nil {
		ft.destroy(device)
		return fmt.Errorf("create MSAA color view: %w", err)
	}
	ft.msaaView = msaaView

	stencilTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "vg_depth_stencil",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatDepth24PlusStencil8,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		ft.destroy(device)
		return fmt.Errorf("create depth/stencil texture: %w", err)
	}
	ft.stencilTex = stencilTex

	stencilView, err := device.CreateTextureView(stencilTex, &hal.TextureViewDescriptor{
		Label: "vg_depth_stencil_view",
	})
	if err != nil {
		ft.destroy(device)
		return fmt.Errorf("create depth/stencil view: %w", err)
	}
	ft.stencilView = stencilView

	resolveTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "vg_resolve",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		ft.destroy(device)
		return fmt.Errorf("create resolve texture: %w", err)
	}
	ft.resolveTex = resolveTex

	resolveView, err := device.CreateTextureView(resolveTex, &hal.TextureViewDescriptor{
		Label: "vg_resolve_view",
	})
	if err != nil {
		ft.destroy(device)
		return fmt.Errorf("create resolve view: %w", err)
	}
	ft.resolveView = resolveView

	ft.width = w
	ft.height = h
	return nil
}

// destroy releases the render targets and resets dimensions.
func (ft *frameTextures) destroy(device hal.Device) {
	if ft.resolveView != nil {
		device.DestroyTextureView(ft.resolveView)
		ft.resolveView = nil
	}
	if ft.resolveTex != nil {
		device.DestroyTexture(ft.resolveTex)
		ft.resolveTex = nil
	}
	if ft.stencilView != nil {
		device.DestroyTextureView(ft.stencilView)
		ft.stencilView = nil
	}
	if ft.stencilTex != nil {
		device.DestroyTexture(ft.stencilTex)
		ft.stencilTex = nil
	}
	if ft.msaaView != nil {
		device.DestroyTextureView(ft.msaaView)
		ft.msaaView = nil
	}
	if ft.msaaTex != nil {
		device.DestroyTexture(ft.msaaTex)
		ft.msaaTex = nil
	}
	ft.width = 0
	ft.height = 0
}

// gpuTexture is a registered image. All formats are normalized to
// premultiplied RGBA8 on upload; alpha-only sources broadcast their
// coverage into every channel so the shader needs no format branches.
// The staging copy keeps the full pixel data on the CPU so partial
// updates can be patched and re-uploaded whole.
type gpuTexture struct {
	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler

	staging *image.RGBA
	width   int
	height  int
	flags   femtovg.ImageFlags
	texType renderer.TextureType
}

func (t *gpuTexture) destroy(device hal.Device) {
	if t.sampler != nil {
		device.DestroySampler(t.sampler)
		t.sampler = nil
	}
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// stageImage converts an arbitrary source image into a premultiplied
// RGBA staging buffer and classifies its texture type. FlipY sources
// are stored bottom-up so shader sampling needs no coordinate flip.
func stageImage(img image.Image, flags femtovg.ImageFlags) (*image.RGBA, renderer.TextureType) {
	dst, texType := convertImage(img, flags)
	if flags.Has(femtovg.ImageFlipY) {
		flipRows(dst)
	}
	return dst, texType
}

// patchStaging draws an update region into the staging buffer. The
// staging rows of a FlipY image are stored bottom-up, so the
// destination row offset mirrors too; stageImage already reversed the
// patch rows.
func (t *gpuTexture) patchStaging(img image.Image, x, y uint32) {
	patch, _ := stageImage(img, t.flags)
	py := int(y)
	if t.flags.Has(femtovg.ImageFlipY) {
		py = t.height - int(y) - patch.Rect.Dy()
	}
	rect := image.Rect(int(x), py, int(x)+patch.Rect.Dx(), py+patch.Rect.Dy())
	xdraw.Draw(t.staging, rect.Intersect(t.staging.Rect), patch, image.Point{}, xdraw.Src)
}

func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bot := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
}

func convertImage(img image.Image, flags femtovg.ImageFlags) (*image.RGBA, renderer.TextureType) {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.Alpha:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				a := src.AlphaAt(b.Min.X+x, b.Min.Y+y).A
				i := dst.PixOffset(x, y)
				dst.Pix[i+0] = a
				dst.Pix[i+1] = a
				dst.Pix[i+2] = a
				dst.Pix[i+3] = a
			}
		}
		return dst, renderer.TextureAlpha
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				a := src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
				i := dst.PixOffset(x, y)
				dst.Pix[i+0] = a
				dst.Pix[i+1] = a
				dst.Pix[i+2] = a
				dst.Pix[i+3] = a
			}
		}
		return dst, renderer.TextureAlpha
	case *image.NRGBA:
		if flags.Has(femtovg.ImagePremultiplied) {
			// Caller vouches the data is already premultiplied, so a
			// draw conversion would premultiply twice. Copy raw rows.
			for y := 0; y < b.Dy(); y++ {
				si := src.PixOffset(b.Min.X, b.Min.Y+y)
				di := dst.PixOffset(0, y)
				copy(dst.Pix[di:di+b.Dx()*4], src.Pix[si:si+b.Dx()*4])
			}
			return dst, renderer.TextureRGBA
		}
	case *image.YCbCr:
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
		return dst, renderer.TextureRGB
	}

	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst, renderer.TextureRGBA
}

// imageSampler builds the sampler matching an image's wrap and filter
// flags.
func (r *Renderer) imageSampler(flags femtovg.ImageFlags) (hal.Sampler, error) {
	addrU := gputypes.AddressModeClampToEdge
	if flags.Has(femtovg.ImageRepeatX) {
		addrU = gputypes.AddressModeRepeat
	}
	addrV := gputypes.AddressModeClampToEdge
	if flags.Has(femtovg.ImageRepeatY) {
		addrV = gputypes.AddressModeRepeat
	}
	filter := gputypes.FilterModeLinear
	if flags.Has(femtovg.ImageNearest) {
		filter = gputypes.FilterModeNearest
	}
	return r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "vg_image_sampler",
		AddressModeU: addrU,
		AddressModeV: addrV,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: filter,
	})
}

// upload writes the staging buffer to the device texture.
func (r *Renderer) upload(t *gpuTexture) {
	r.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		t.staging.Pix,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(t.staging.Stride),
			RowsPerImage: uint32(t.height),
		},
		&hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1},
	)
}

// CreateImage uploads an image and returns its handle.
func (r *Renderer) CreateImage(img image.Image, flags femtovg.ImageFlags) (femtovg.ImageID, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("%w: %dx%d image", renderer.ErrUnsupportedImageFormat, w, h)
	}
	if w > maxTextureSize || h > maxTextureSize {
		return 0, fmt.Errorf("%w: %dx%d exceeds %d", renderer.ErrImageTooLarge, w, h, maxTextureSize)
	}

	staging, texType := stageImage(img, flags)

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "vg_image",
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", renderer.ErrImageAllocation, err)
	}

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "vg_image_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.device.DestroyTexture(tex)
		return 0, fmt.Errorf("%w: %v", renderer.ErrImageAllocation, err)
	}

	sampler, err := r.imageSampler(flags)
	if err != nil {
		r.device.DestroyTextureView(view)
		r.device.DestroyTexture(tex)
		return 0, fmt.Errorf("%w: %v", renderer.ErrImageAllocation, err)
	}

	t := &gpuTexture{
		tex:     tex,
		view:    view,
		sampler: sampler,
		staging: staging,
		width:   w,
		height:  h,
		flags:   flags,
		texType: texType,
	}
	r.upload(t)

	id := r.nextID
	r.nextID++
	r.images[id] = t
	return id, nil
}

// UpdateImage patches a region of an existing image at (x, y) and
// re-uploads the texture.
func (r *Renderer) UpdateImage(id femtovg.ImageID, img image.Image, x, y uint32) {
	t, ok := r.images[id]
	if !ok {
		femtovg.Logger().Warn("update of unknown image", "image", id)
		return
	}
	t.patchStaging(img, x, y)
	r.upload(t)
}

// DeleteImage releases an image's device resources.
func (r *Renderer) DeleteImage(id femtovg.ImageID) {
	if t, ok := r.images[id]; ok {
		t.destroy(r.device)
		delete(r.images, id)
	}
}

// TextureFlags returns the flags an image was created with.
func (r *Renderer) TextureFlags(id femtovg.ImageID) femtovg.ImageFlags {
	if t, ok := r.images[id]; ok {
		return t.flags
	}
	return 0
}

// TextureSize returns an image's dimensions in pixels.
func (r *Renderer) TextureSize(id femtovg.ImageID) (uint32, uint32) {
	if t, ok := r.images[id]; ok {
		return uint32(t.width), uint32(t.height)
	}
	return 0, 0
}

// TextureType reports the logical format an image was classified as.
func (r *Renderer) TextureType(id femtovg.ImageID) renderer.TextureType {
	if t, ok := r.images[id]; ok {
		return t.texType
	}
	return renderer.TextureNone
}

// createWhiteTexture builds the 1x1 opaque white fallback bound when
// a command carries no image or mask.
func (r *Renderer) createWhiteTexture() (hal.Texture, hal.TextureView, error) {
	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "vg_white",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create fallback texture: %w", err)
	}
	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "vg_white_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create fallback texture view: %w", err)
	}
	r.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		[]byte{0xFF, 0xFF, 0xFF, 0xFF},
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	return tex, view, nil
}
