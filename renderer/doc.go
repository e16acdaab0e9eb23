// Package renderer defines the contract between the path-building front
// end and the GPU backends: the shared vertex buffer, the draw command
// model, and the Renderer interface every backend implements.
//
// A frame is produced by appending vertices and commands for the whole
// frame, then handing both to the active Renderer in a single Render
// call. Commands execute strictly in list order; later commands blend
// over earlier ones.
//
// Concave and self-intersecting paths are filled with a two-pass
// stencil technique rather than CPU-side triangulation: a stencil pass
// accumulates per-pixel winding (or parity) from the fill triangles,
// then a cover pass shades the path's bounding triangles wherever the
// stencil marks the pixel as inside, clearing the stencil on the way
// out. Backends must leave the stencil buffer clean after every batch.
package renderer
