package software

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/DasLixou/femtovg"
	"github.com/DasLixou/femtovg/renderer"
)

// stencilTest gates shading against the per-pixel coverage counter.
type stencilTest int

const (
	stencilAlways stencilTest = iota
	stencilZero
)

// edgeFn is twice the signed area of triangle (p, q, (px, py)).
func edgeFn(p, q renderer.Vertex, px, py float32) float32 {
	return (q.X-p.X)*(py-p.Y) - (q.Y-p.Y)*(px-p.X)
}

// covers applies the top-left fill convention so pixels on an edge
// shared by two triangles are rasterized exactly once.
func covers(e float32, p, q renderer.Vertex) bool {
	if e > 0 {
		return true
	}
	if e < 0 {
		return false
	}
	dy := q.Y - p.Y
	return dy > 0 || (dy == 0 && q.X > p.X)
}

// rasterizeTriangle visits every pixel whose center lies inside the
// triangle, passing interpolated texture coordinates and the original
// orientation (front = counter-clockwise on screen).
func rasterizeTriangle(a, b, c renderer.Vertex, clip image.Rectangle, fn func(x, y int, u, v float32, front bool)) {
	area := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	if area == 0 {
		return
	}
	front := area > 0
	if !front {
		b, c = c, b
		area = -area
	}

	minX := int(math32.Floor(math32.Min(a.X, math32.Min(b.X, c.X))))
	maxX := int(math32.Ceil(math32.Max(a.X, math32.Max(b.X, c.X))))
	minY := int(math32.Floor(math32.Min(a.Y, math32.Min(b.Y, c.Y))))
	maxY := int(math32.Ceil(math32.Max(a.Y, math32.Max(b.Y, c.Y))))
	if minX < clip.Min.X {
		minX = clip.Min.X
	}
	if maxX > clip.Max.X {
		maxX = clip.Max.X
	}
	if minY < clip.Min.Y {
		minY = clip.Min.Y
	}
	if maxY > clip.Max.Y {
		maxY = clip.Max.Y
	}

	inv := 1 / area
	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5
			w0 := edgeFn(b, c, px, py)
			w1 := edgeFn(c, a, px, py)
			w2 := edgeFn(a, b, px, py)
			if !covers(w0, b, c) || !covers(w1, c, a) || !covers(w2, a, b) {
				continue
			}
			u := (w0*a.U + w1*b.U + w2*c.U) * inv
			v := (w0*a.V + w1*b.V + w2*c.V) * inv
			fn(x, y, u, v, front)
		}
	}
}

// forEachFan emits the triangle fan anchored at the range's first
// vertex.
func forEachFan(verts []renderer.Vertex, rng renderer.VertexRange, fn func(a, b, c renderer.Vertex)) {
	for i := rng.Start + 2; i < rng.End(); i++ {
		fn(verts[rng.Start], verts[i-1], verts[i])
	}
}

// forEachStrip emits the triangle strip over the range.
func forEachStrip(verts []renderer.Vertex, rng renderer.VertexRange, fn func(a, b, c renderer.Vertex)) {
	for i := rng.Start + 2; i < rng.End(); i++ {
		fn(verts[i-2], verts[i-1], verts[i])
	}
}

func (r *Renderer) stencilAt(x, y int) *uint8 {
	return &r.stencil[y*int(r.width)+x]
}

func (r *Renderer) shadeTriangle(a, b, c renderer.Vertex, frag *fragment) {
	rasterizeTriangle(a, b, c, r.target.Bounds(), func(x, y int, u, v float32, front bool) {
		frag.shade(x, y, u, v)
	})
}

func (r *Renderer) shadeFan(verts []renderer.Vertex, rng renderer.VertexRange, frag *fragment) {
	forEachFan(verts, rng, func(a, b, c renderer.Vertex) {
		r.shadeTriangle(a, b, c, frag)
	})
}

func (r *Renderer) shadeStrip(verts []renderer.Vertex, rng renderer.VertexRange, frag *fragment) {
	forEachStrip(verts, rng, func(a, b, c renderer.Vertex) {
		r.shadeTriangle(a, b, c, frag)
	})
}

// shadeStripWhere shades strip pixels that pass the stencil test,
// leaving the stencil untouched.
func (r *Renderer) shadeStripWhere(verts []renderer.Vertex, rng renderer.VertexRange, frag *fragment, test stencilTest) {
	forEachStrip(verts, rng, func(a, b, c renderer.Vertex) {
		rasterizeTriangle(a, b, c, r.target.Bounds(), func(x, y int, u, v float32, front bool) {
			if test == stencilZero && *r.stencilAt(x, y) != 0 {
				return
			}
			frag.shade(x, y, u, v)
		})
	})
}

// shadeStripStencilled shades strip pixels with a clear stencil and
// marks every pixel it shades, so overlapping strip geometry blends a
// pixel at most once.
func (r *Renderer) shadeStripStencilled(verts []renderer.Vertex, rng renderer.VertexRange, frag *fragment) {
	forEachStrip(verts, rng, func(a, b, c renderer.Vertex) {
		rasterizeTriangle(a, b, c, r.target.Bounds(), func(x, y int, u, v float32, front bool) {
			s := r.stencilAt(x, y)
			if *s != 0 {
				return
			}
			if frag.shade(x, y, u, v) {
				*s++
			}
		})
	})
}

func (r *Renderer) clearStripStencil(verts []renderer.Vertex, rng renderer.VertexRange) {
	forEachStrip(verts, rng, func(a, b, c renderer.Vertex) {
		rasterizeTriangle(a, b, c, r.target.Bounds(), func(x, y int, u, v float32, front bool) {
			*r.stencilAt(x, y) = 0
		})
	})
}

// windFan accumulates path winding into the stencil. Under the nonzero
// rule front-facing triangles increment and back-facing triangles
// decrement, with wraparound; under the even-odd rule every triangle
// inverts, so regions covered an odd number of times end up nonzero.
func (r *Renderer) windFan(verts []renderer.Vertex, rng renderer.VertexRange, rule femtovg.FillRule) {
	forEachFan(verts, rng, func(a, b, c renderer.Vertex) {
		rasterizeTriangle(a, b, c, r.target.Bounds(), func(x, y int, u, v float32, front bool) {
			s := r.stencilAt(x, y)
			switch {
			case rule == femtovg.EvenOdd:
				*s = ^*s
			case front:
				*s++
			default:
				*s--
			}
		})
	})
}

// coverStrip shades pixels the winding passes marked as interior and
// resets their stencil, restoring the clear-stencil invariant.
func (r *Renderer) coverStrip(verts []renderer.Vertex, rng renderer.VertexRange, frag *fragment) {
	forEachStrip(verts, rng, func(a, b, c renderer.Vertex) {
		rasterizeTriangle(a, b, c, r.target.Bounds(), func(x, y int, u, v float32, front bool) {
			s := r.stencilAt(x, y)
			if *s == 0 {
				return
			}
			frag.shade(x, y, u, v)
			*s = 0
		})
	})
}
