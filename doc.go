// Package femtovg provides the shared value types of a GPU-agnostic 2D
// vector graphics rendering contract: colors, fill rules, composite
// (blend) operations, and image handles/flags.
//
// The rendering contract itself — vertices, draw commands, and the
// Renderer interface that backends implement — lives in the renderer
// subpackage. Concrete backends live below it:
//
//   - renderer/void: discards all drawing, for headless use and tests
//   - renderer/software: CPU reference backend with an emulated stencil buffer
//   - renderer/wgpu: hardware backend on top of gogpu/wgpu
package femtovg
