package software

import (
	"github.com/chewxy/math32"

	"github.com/DasLixou/femtovg"
	"github.com/DasLixou/femtovg/renderer"
)

// fragment evaluates one parameter block per pixel, mirroring the
// fragment shader of the GPU backend. Colors flow through it
// alpha-premultiplied.
type fragment struct {
	r      *Renderer
	params *renderer.Params
	state  femtovg.CompositeOperationState
	tex    *texture
	mask   *texture

	// applyStroke enables the analytic anti-aliasing term. It is off
	// for raw triangle lists, whose texture coordinates address the
	// glyph atlas instead of the stroke fringe.
	applyStroke bool
}

func (r *Renderer) newFragment(cmd *renderer.Command, params *renderer.Params) *fragment {
	return &fragment{
		r:           r,
		params:      params,
		state:       cmd.CompositeOperation,
		tex:         r.textures[cmd.Image],
		mask:        r.textures[cmd.AlphaMask],
		applyStroke: cmd.Kind != renderer.Triangles,
	}
}

// shade evaluates the paint at pixel (x, y) with interpolated texture
// coordinates (u, v) and blends the result into the target. It reports
// whether the pixel survived the stroke threshold.
func (f *fragment) shade(x, y int, u, v float32) bool {
	p := f.params
	if p.Shader == renderer.ShaderStencil {
		// Coverage only.
		return true
	}

	strokeAlpha := float32(1)
	if f.applyStroke {
		strokeAlpha = strokeMask(u, v, p.StrokeMult)
		if strokeAlpha < p.StrokeThr {
			return false
		}
	}

	px, py := p.ApplyPaintMat(float32(x)+0.5, float32(y)+0.5)

	var col [4]float32
	switch p.Shader {
	case renderer.ShaderFillGradient:
		col = gradientColor(p, px, py)
	case renderer.ShaderFillImage:
		if f.tex == nil {
			return false
		}
		col = f.tex.sample(px/p.Extent[0], py/p.Extent[1])
		col = mul4(col, colorVec(p.InnerColor))
	}

	col = scale4(col, strokeAlpha)
	if f.mask != nil {
		col = scale4(col, f.mask.sample(u, v)[3])
	}

	f.r.blendPixel(x, y, col, f.state)
	return true
}

// strokeMask is the analytic anti-aliasing term: full coverage in the
// stroke core, falling to zero across the fringe described by the
// texture coordinates.
func strokeMask(u, v, strokeMult float32) float32 {
	return math32.Min(1, (1-math32.Abs(u*2-1))*strokeMult) * math32.Min(1, v)
}

// gradientColor evaluates the rounded-rectangle gradient at a
// paint-space position.
func gradientColor(p *renderer.Params, x, y float32) [4]float32 {
	feather := math32.Max(p.Feather, 1e-6)
	d := (sdroundrect(x, y, p.Extent[0], p.Extent[1], p.Radius) + feather*0.5) / feather
	d = clamp01(d)
	return lerp4(colorVec(p.InnerColor), colorVec(p.OuterColor), d)
}

// sdroundrect is the signed distance to a rounded rectangle centered
// at the origin with half-extents (ex, ey) and corner radius rad.
func sdroundrect(x, y, ex, ey, rad float32) float32 {
	ex2 := ex - rad
	ey2 := ey - rad
	dx := math32.Abs(x) - ex2
	dy := math32.Abs(y) - ey2
	mx := math32.Max(dx, 0)
	my := math32.Max(dy, 0)
	return math32.Min(math32.Max(dx, dy), 0) + math32.Sqrt(mx*mx+my*my) - rad
}

func colorVec(c femtovg.Color) [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

func mul4(a, b [4]float32) [4]float32 {
	return [4]float32{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

func scale4(a [4]float32, s float32) [4]float32 {
	return [4]float32{a[0] * s, a[1] * s, a[2] * s, a[3] * s}
}

func lerp4(a, b [4]float32, t float32) [4]float32 {
	return [4]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	}
}

// factorVec expands a blend factor into per-channel multipliers. The
// alpha lane of SrcAlphaSaturate is 1, matching GPU blend units.
func factorVec(f femtovg.BlendFactor, src, dst [4]float32) [4]float32 {
	switch f {
	case femtovg.BlendZero:
		return [4]float32{}
	case femtovg.BlendOne:
		return [4]float32{1, 1, 1, 1}
	case femtovg.BlendSrcColor:
		return src
	case femtovg.BlendOneMinusSrcColor:
		return [4]float32{1 - src[0], 1 - src[1], 1 - src[2], 1 - src[3]}
	case femtovg.BlendDstColor:
		return dst
	case femtovg.BlendOneMinusDstColor:
		return [4]float32{1 - dst[0], 1 - dst[1], 1 - dst[2], 1 - dst[3]}
	case femtovg.BlendSrcAlpha:
		return [4]float32{src[3], src[3], src[3], src[3]}
	case femtovg.BlendOneMinusSrcAlpha:
		a := 1 - src[3]
		return [4]float32{a, a, a, a}
	case femtovg.BlendDstAlpha:
		return [4]float32{dst[3], dst[3], dst[3], dst[3]}
	case femtovg.BlendOneMinusDstAlpha:
		a := 1 - dst[3]
		return [4]float32{a, a, a, a}
	case femtovg.BlendSrcAlphaSaturate:
		s := math32.Min(src[3], 1-dst[3])
		return [4]float32{s, s, s, 1}
	default:
		return [4]float32{1, 1, 1, 1}
	}
}

// blendPixel combines a premultiplied source color with the target
// pixel using the command's blend state.
func (r *Renderer) blendPixel(x, y int, src [4]float32, st femtovg.CompositeOperationState) {
	off := r.target.PixOffset(x, y)
	pix := r.target.Pix[off : off+4 : off+4]
	dst := [4]float32{
		float32(pix[0]) / 255,
		float32(pix[1]) / 255,
		float32(pix[2]) / 255,
		float32(pix[3]) / 255,
	}

	sf := factorVec(st.SrcRGB, src, dst)
	df := factorVec(st.DstRGB, src, dst)
	sfa := factorVec(st.SrcAlpha, src, dst)[3]
	dfa := factorVec(st.DstAlpha, src, dst)[3]

	pix[0] = uint8(clamp01(src[0]*sf[0]+dst[0]*df[0])*255 + 0.5)
	pix[1] = uint8(clamp01(src[1]*sf[1]+dst[1]*df[1])*255 + 0.5)
	pix[2] = uint8(clamp01(src[2]*sf[2]+dst[2]*df[2])*255 + 0.5)
	pix[3] = uint8(clamp01(src[3]*sfa+dst[3]*dfa)*255 + 0.5)
}
