package renderer

// Vertex is one element of the shared vertex buffer: a post-transform
// position in render-target coordinates and a texture-space (or
// paint-space) coordinate pair. The layout matches the GPU vertex
// format: four float32 values, 16 bytes per vertex.
type Vertex struct {
	X, Y float32
	U, V float32
}

// NewVertex creates a vertex.
func NewVertex(x, y, u, v float32) Vertex {
	return Vertex{X: x, Y: y, U: u, V: v}
}

// Set overwrites all four components.
func (v *Vertex) Set(x, y, u, vv float32) {
	*v = Vertex{X: x, Y: y, U: u, V: vv}
}

// VertexRange is a half-open window [Start, Start+Count) into the
// vertex buffer of one Render call.
type VertexRange struct {
	Start, Count int
}

// Empty reports whether the range selects no vertices.
func (r VertexRange) Empty() bool {
	return r.Count == 0
}

// End returns the index one past the last vertex.
func (r VertexRange) End() int {
	return r.Start + r.Count
}

// Drawable identifies the triangles of one path within the shared
// vertex buffer: an optional fill range (a triangle fan anchored at the
// range's first vertex) and an optional stroke range (a triangle
// strip). A path may contribute either, both, or neither.
type Drawable struct {
	FillVerts   VertexRange
	StrokeVerts VertexRange
	HasFill     bool
	HasStroke   bool
}

// WithFill sets the fill range.
func (d Drawable) WithFill(start, count int) Drawable {
	d.FillVerts = VertexRange{Start: start, Count: count}
	d.HasFill = true
	return d
}

// WithStroke sets the stroke range.
func (d Drawable) WithStroke(start, count int) Drawable {
	d.StrokeVerts = VertexRange{Start: start, Count: count}
	d.HasStroke = true
	return d
}
