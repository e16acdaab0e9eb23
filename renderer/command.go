package renderer

import "github.com/DasLixou/femtovg"

// CommandKind is the tag of a draw command. The set is closed: every
// backend dispatches on it with a single switch, and the compiler's
// exhaustiveness over this enum is the extension contract.
type CommandKind int

const (
	// ClearRect fills an integer-pixel rectangle with a flat color,
	// bypassing the vertex pipeline.
	ClearRect CommandKind = iota

	// ConvexFill draws the fill ranges directly in one pass. Valid only
	// for paths known to be convex.
	ConvexFill

	// ConcaveFill fills an arbitrary path in two passes: a stencil pass
	// over the fill ranges using Params2, then a cover pass over
	// TrianglesVerts using Params, masked by the stencil.
	ConcaveFill

	// Stroke draws the stroke ranges in one pass. Stroke geometry from
	// the tessellator does not self-overlap.
	Stroke

	// StencilStroke draws strokes that may self-overlap (e.g. at joins)
	// without double-blending: coverage is written to the stencil so
	// each pixel is shaded at most once, then the stencil is cleared.
	// Params is the shading pass block, Params2 the second pass block.
	StencilStroke

	// Triangles draws the TrianglesVerts range as a raw textured
	// triangle list (glyph quads and other flat geometry).
	Triangles
)

// String returns the command kind name.
func (k CommandKind) String() string {
	switch k {
	case ClearRect:
		return "ClearRect"
	case ConvexFill:
		return "ConvexFill"
	case ConcaveFill:
		return "ConcaveFill"
	case Stroke:
		return "Stroke"
	case StencilStroke:
		return "StencilStroke"
	case Triangles:
		return "Triangles"
	default:
		return "Unknown"
	}
}

// Rect is an integer-pixel rectangle in render-target coordinates.
type Rect struct {
	X, Y          uint32
	Width, Height uint32
}

// Command is one draw operation in a frame batch. Commands are value
// objects: constructed once, handed to Render, never mutated by the
// backend. Every vertex range a command references must lie within the
// vertex slice passed to the same Render call, and every image id must
// be live on that Renderer.
type Command struct {
	Kind CommandKind

	// Drawables holds the per-path fill/stroke ranges this command draws.
	Drawables []Drawable

	// TrianglesVerts is the raw triangle-list range for Triangles
	// commands and the bounding cover quad for ConcaveFill.
	TrianglesVerts VertexRange
	HasTriangles   bool

	// Image is the bound source texture, if any.
	Image femtovg.ImageID

	// AlphaMask is the bound alpha-mask texture, if any.
	AlphaMask femtovg.ImageID

	// FillRule resolves self-overlap for ConcaveFill.
	FillRule femtovg.FillRule

	// CompositeOperation is the blend state for this command only; it
	// must not leak into subsequent commands.
	CompositeOperation femtovg.CompositeOperationState

	// Params is the primary parameter block; Params2 is the secondary
	// block for two-pass kinds (the stencil block for ConcaveFill, the
	// second-pass block for StencilStroke).
	Params  Params
	Params2 Params

	// ClearColor and ClearRect carry the ClearRect payload.
	ClearColor femtovg.Color
	Rect       Rect
}

// NewCommand creates a command of the given kind with default state:
// no drawables, no images, nonzero fill rule, source-over compositing.
func NewCommand(kind CommandKind) Command {
	return Command{
		Kind:               kind,
		CompositeOperation: femtovg.DefaultCompositeOperationState(),
	}
}

// NewClearRect creates a ClearRect command.
func NewClearRect(x, y, width, height uint32, color femtovg.Color) Command {
	cmd := NewCommand(ClearRect)
	cmd.Rect = Rect{X: x, Y: y, Width: width, Height: height}
	cmd.ClearColor = color
	return cmd
}

// SetTriangles sets the raw triangle-list range.
func (c *Command) SetTriangles(start, count int) {
	c.TrianglesVerts = VertexRange{Start: start, Count: count}
	c.HasTriangles = true
}

// MaxVertex returns the largest vertex index one past the end of any
// range the command references, for validation against the shared
// buffer.
func (c *Command) MaxVertex() int {
	maxEnd := 0
	if c.HasTriangles && c.TrianglesVerts.End() > maxEnd {
		maxEnd = c.TrianglesVerts.End()
	}
	for _, d := range c.Drawables {
		if d.HasFill && d.FillVerts.End() > maxEnd {
			maxEnd = d.FillVerts.End()
		}
		if d.HasStroke && d.StrokeVerts.End() > maxEnd {
			maxEnd = d.StrokeVerts.End()
		}
	}
	return maxEnd
}
