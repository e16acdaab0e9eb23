// Package software provides a CPU renderer that executes the full
// command set against an in-memory pixmap. It emulates the stencil
// buffer with a per-pixel counter, so concave fills and overlapping
// strokes produce the same coverage as the GPU backend. It is the
// reference implementation for command semantics and the backend of
// choice for headless image generation and golden tests.
package software

import (
	"image"

	"github.com/DasLixou/femtovg"
	"github.com/DasLixou/femtovg/renderer"
)

func init() {
	renderer.Register(renderer.BackendSoftware, func() renderer.Renderer {
		return New()
	})
}

// Renderer rasterizes commands into an RGBA pixmap. Pixel data is kept
// alpha-premultiplied; Screenshot converts back on the way out.
type Renderer struct {
	width  uint32
	height uint32
	dpi    float32

	target  *image.RGBA
	stencil []uint8

	nextID   femtovg.ImageID
	textures map[femtovg.ImageID]*texture
}

// New creates a software renderer with no target; SetSize allocates it.
func New() *Renderer {
	return &Renderer{
		nextID:   1,
		textures: make(map[femtovg.ImageID]*texture),
	}
}

// SetSize allocates the render target. The previous contents are
// discarded; images survive.
func (r *Renderer) SetSize(width, height uint32, dpi float32) {
	r.width = width
	r.height = height
	r.dpi = dpi
	r.target = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	r.stencil = make([]uint8, int(width)*int(height))
}

// Render executes the command batch in order. The stencil buffer is
// clear when Render returns.
func (r *Renderer) Render(verts []renderer.Vertex, commands []renderer.Command) {
	if r.target == nil {
		femtovg.Logger().Warn("render before SetSize, dropping batch")
		return
	}
	for i := range commands {
		cmd := &commands[i]
		if cmd.MaxVertex() > len(verts) {
			femtovg.Logger().Error("command references out-of-range vertices",
				"kind", cmd.Kind.String(), "max", cmd.MaxVertex(), "have", len(verts))
			continue
		}
		switch cmd.Kind {
		case renderer.ClearRect:
			r.clearRect(cmd)
		case renderer.ConvexFill:
			r.convexFill(verts, cmd)
		case renderer.ConcaveFill:
			r.concaveFill(verts, cmd)
		case renderer.Stroke:
			r.stroke(verts, cmd)
		case renderer.StencilStroke:
			r.stencilStroke(verts, cmd)
		case renderer.Triangles:
			r.triangles(verts, cmd)
		}
	}
}

func (r *Renderer) clearRect(cmd *renderer.Command) {
	bounds := image.Rect(
		int(cmd.Rect.X), int(cmd.Rect.Y),
		int(cmd.Rect.X+cmd.Rect.Width), int(cmd.Rect.Y+cmd.Rect.Height),
	).Intersect(r.target.Bounds())

	c := cmd.ClearColor.Premultiplied()
	px := [4]uint8{
		uint8(clamp01(c.R)*255 + 0.5),
		uint8(clamp01(c.G)*255 + 0.5),
		uint8(clamp01(c.B)*255 + 0.5),
		uint8(clamp01(c.A)*255 + 0.5),
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := r.target.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			copy(r.target.Pix[row:row+4], px[:])
			row += 4
		}
	}
}

func (r *Renderer) convexFill(verts []renderer.Vertex, cmd *renderer.Command) {
	frag := r.newFragment(cmd, &cmd.Params)
	for _, d := range cmd.Drawables {
		if d.HasFill {
			r.shadeFan(verts, d.FillVerts, frag)
		}
	}
	// Fringe strips for anti-aliased edges.
	for _, d := range cmd.Drawables {
		if d.HasStroke {
			r.shadeStrip(verts, d.StrokeVerts, frag)
		}
	}
}

func (r *Renderer) concaveFill(verts []renderer.Vertex, cmd *renderer.Command) {
	// Pass 1: accumulate winding into the stencil, no color output.
	for _, d := range cmd.Drawables {
		if d.HasFill {
			r.windFan(verts, d.FillVerts, cmd.FillRule)
		}
	}

	frag := r.newFragment(cmd, &cmd.Params)

	// Pass 2: anti-aliased fringes where the stencil is untouched.
	for _, d := range cmd.Drawables {
		if d.HasStroke {
			r.shadeStripWhere(verts, d.StrokeVerts, frag, stencilZero)
		}
	}

	// Pass 3: cover the stencilled interior and clear it.
	if cmd.HasTriangles {
		r.coverStrip(verts, cmd.TrianglesVerts, frag)
	}
}

func (r *Renderer) stroke(verts []renderer.Vertex, cmd *renderer.Command) {
	frag := r.newFragment(cmd, &cmd.Params)
	for _, d := range cmd.Drawables {
		if d.HasStroke {
			r.shadeStrip(verts, d.StrokeVerts, frag)
		}
	}
}

func (r *Renderer) stencilStroke(verts []renderer.Vertex, cmd *renderer.Command) {
	// Pass 1: shade the stroke core where the stencil is clear, marking
	// each shaded pixel so overlaps blend once.
	core := r.newFragment(cmd, &cmd.Params)
	for _, d := range cmd.Drawables {
		if d.HasStroke {
			r.shadeStripStencilled(verts, d.StrokeVerts, core)
		}
	}

	// Pass 2: shade the anti-aliased fringe skipped by the threshold.
	fringe := r.newFragment(cmd, &cmd.Params2)
	for _, d := range cmd.Drawables {
		if d.HasStroke {
			r.shadeStripWhere(verts, d.StrokeVerts, fringe, stencilZero)
		}
	}

	// Pass 3: reset the stencil.
	for _, d := range cmd.Drawables {
		if d.HasStroke {
			r.clearStripStencil(verts, d.StrokeVerts)
		}
	}
}

func (r *Renderer) triangles(verts []renderer.Vertex, cmd *renderer.Command) {
	if !cmd.HasTriangles {
		return
	}
	frag := r.newFragment(cmd, &cmd.Params)
	rng := cmd.TrianglesVerts
	for i := rng.Start; i+2 < rng.End(); i += 3 {
		r.shadeTriangle(verts[i], verts[i+1], verts[i+2], frag)
	}
}

// Screenshot returns a copy of the target with straight alpha.
func (r *Renderer) Screenshot() image.Image {
	if r.target == nil {
		return nil
	}
	out := image.NewNRGBA(r.target.Bounds())
	src, dst := r.target.Pix, out.Pix
	for i := 0; i < len(src); i += 4 {
		a := src[i+3]
		dst[i+3] = a
		if a == 0 {
			continue
		}
		dst[i+0] = uint8(uint32(src[i+0]) * 255 / uint32(a))
		dst[i+1] = uint8(uint32(src[i+1]) * 255 / uint32(a))
		dst[i+2] = uint8(uint32(src[i+2]) * 255 / uint32(a))
	}
	return out
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
