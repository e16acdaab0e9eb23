package renderer

import "github.com/DasLixou/femtovg"

// ShaderType selects the fragment shader variant a backend binds for
// one pass.
type ShaderType int

const (
	// ShaderFillGradient evaluates a (possibly degenerate) gradient paint.
	ShaderFillGradient ShaderType = iota
	// ShaderFillImage samples the command's bound image.
	ShaderFillImage
	// ShaderStencil writes coverage only; color output is discarded.
	ShaderStencil
)

// ToFloat32 returns the variant index as uploaded into the shader
// parameter uniform.
func (s ShaderType) ToFloat32() float32 {
	return float32(s)
}

// String returns the variant name.
func (s ShaderType) String() string {
	switch s {
	case ShaderFillGradient:
		return "FillGradient"
	case ShaderFillImage:
		return "FillImage"
	case ShaderStencil:
		return "Stencil"
	default:
		return "Unknown"
	}
}

// Params is the shader parameter block for one fill or stroke pass.
// The contract layer treats it as an opaque payload: it is produced by
// the paint/transform logic upstream and consumed only by the backend,
// which uses it to select a shader variant and fill its uniforms.
//
// PaintMat is the inverse paint transform as a 2x3 affine matrix in
// column-major order [a b c d e f]; mapping a render-target position p
// through it yields the paint-space position used for gradient and
// image evaluation. Extent, Radius and Feather describe the gradient
// geometry in paint space. StrokeMult and StrokeThr carry the
// anti-aliasing parameters for stroke passes.
type Params struct {
	Shader     ShaderType
	InnerColor femtovg.Color
	OuterColor femtovg.Color
	PaintMat   [6]float32
	Extent     [2]float32
	Radius     float32
	Feather    float32
	StrokeMult float32
	StrokeThr  float32
	TexType    TextureType
}

// IdentityPaintMat is the identity paint transform.
var IdentityPaintMat = [6]float32{1, 0, 0, 1, 0, 0}

// SolidParams builds the parameter block for a flat-color pass: a
// degenerate gradient whose inner and outer colors match. StrokeMult
// is 1 and StrokeThr -1 so the anti-aliasing term passes fill vertices
// (which carry uv = (0.5, 1)) at full coverage.
func SolidParams(color femtovg.Color) Params {
	return Params{
		Shader:     ShaderFillGradient,
		InnerColor: color.Premultiplied(),
		OuterColor: color.Premultiplied(),
		PaintMat:   IdentityPaintMat,
		Extent:     [2]float32{1, 1},
		Radius:     0,
		Feather:    1,
		StrokeMult: 1,
		StrokeThr:  -1,
	}
}

// StencilParams builds the parameter block for a coverage-only pass.
func StencilParams() Params {
	return Params{
		Shader:     ShaderStencil,
		PaintMat:   IdentityPaintMat,
		Extent:     [2]float32{1, 1},
		Feather:    1,
		StrokeMult: 1,
		StrokeThr:  -1,
	}
}

// ApplyPaintMat maps a render-target position into paint space.
func (p *Params) ApplyPaintMat(x, y float32) (float32, float32) {
	m := &p.PaintMat
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}
