package femtovg

// BlendFactor is a source or destination multiplier in the blend
// equation, matching the factor set shared by OpenGL and WebGPU.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendDstColor
	BlendOneMinusDstColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendSrcAlphaSaturate
)

// String returns the factor name as used in blend equation notation.
func (f BlendFactor) String() string {
	switch f {
	case BlendZero:
		return "Zero"
	case BlendOne:
		return "One"
	case BlendSrcColor:
		return "SrcColor"
	case BlendOneMinusSrcColor:
		return "OneMinusSrcColor"
	case BlendDstColor:
		return "DstColor"
	case BlendOneMinusDstColor:
		return "OneMinusDstColor"
	case BlendSrcAlpha:
		return "SrcAlpha"
	case BlendOneMinusSrcAlpha:
		return "OneMinusSrcAlpha"
	case BlendDstAlpha:
		return "DstAlpha"
	case BlendOneMinusDstAlpha:
		return "OneMinusDstAlpha"
	case BlendSrcAlphaSaturate:
		return "SrcAlphaSaturate"
	default:
		return "Unknown"
	}
}

// CompositeOperation is a canvas-level compositing mode. Each operation
// expands to a fixed (source factor, destination factor) pair via State.
type CompositeOperation int

const (
	// SourceOver draws new content over existing content. The default.
	SourceOver CompositeOperation = iota
	// SourceIn keeps new content only where it overlaps existing content.
	SourceIn
	// SourceOut keeps new content only where it does not overlap.
	SourceOut
	// Atop draws new content only where it overlaps existing content.
	Atop
	// DestinationOver draws new content behind existing content.
	DestinationOver
	// DestinationIn keeps existing content only where it overlaps new content.
	DestinationIn
	// DestinationOut keeps existing content only where it does not overlap.
	DestinationOut
	// DestinationAtop keeps existing content only where it overlaps new
	// content, drawn behind the new content.
	DestinationAtop
	// Lighter adds the new and existing content.
	Lighter
	// Copy replaces existing content with new content.
	Copy
	// Xor makes overlapping content transparent.
	Xor
)

// CompositeOperationState is the expanded blend-factor form of a
// composite operation, with separate RGB and alpha factors. Commands
// carry this state; a backend applies it for exactly one command.
type CompositeOperationState struct {
	SrcRGB   BlendFactor
	DstRGB   BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
}

// State expands the operation into its blend-factor pairs. The factors
// assume premultiplied-alpha content, mirroring the HTML canvas
// compositing model.
func (op CompositeOperation) State() CompositeOperationState {
	var src, dst BlendFactor
	switch op {
	case SourceOver:
		src, dst = BlendOne, BlendOneMinusSrcAlpha
	case SourceIn:
		src, dst = BlendDstAlpha, BlendZero
	case SourceOut:
		src, dst = BlendOneMinusDstAlpha, BlendZero
	case Atop:
		src, dst = BlendDstAlpha, BlendOneMinusSrcAlpha
	case DestinationOver:
		src, dst = BlendOneMinusDstAlpha, BlendOne
	case DestinationIn:
		src, dst = BlendZero, BlendSrcAlpha
	case DestinationOut:
		src, dst = BlendZero, BlendOneMinusSrcAlpha
	case DestinationAtop:
		src, dst = BlendOneMinusDstAlpha, BlendSrcAlpha
	case Lighter:
		src, dst = BlendOne, BlendOne
	case Copy:
		src, dst = BlendOne, BlendZero
	case Xor:
		src, dst = BlendOneMinusDstAlpha, BlendOneMinusSrcAlpha
	default:
		src, dst = BlendOne, BlendOneMinusSrcAlpha
	}
	return CompositeOperationState{
		SrcRGB:   src,
		DstRGB:   dst,
		SrcAlpha: src,
		DstAlpha: dst,
	}
}

// WithAlpha returns the state with both alpha factors overridden.
func (s CompositeOperationState) WithAlpha(src, dst BlendFactor) CompositeOperationState {
	s.SrcAlpha = src
	s.DstAlpha = dst
	return s
}

// DefaultCompositeOperationState is the state every new command starts
// with: SourceOver with matching alpha factors.
func DefaultCompositeOperationState() CompositeOperationState {
	return SourceOver.State()
}
