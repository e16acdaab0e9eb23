package software

import (
	"image"
	"image/color"
	"testing"

	"github.com/DasLixou/femtovg"
	"github.com/DasLixou/femtovg/renderer"
)

// quadFan returns an axis-aligned rectangle as a triangle fan with the
// fill texture coordinates (0.5, 1).
func quadFan(x0, y0, x1, y1 float32) []renderer.Vertex {
	return []renderer.Vertex{
		{X: x0, Y: y0, U: 0.5, V: 1},
		{X: x1, Y: y0, U: 0.5, V: 1},
		{X: x1, Y: y1, U: 0.5, V: 1},
		{X: x0, Y: y1, U: 0.5, V: 1},
	}
}

// quadFanReversed returns the rectangle with opposite orientation, for
// carving holes under the nonzero rule.
func quadFanReversed(x0, y0, x1, y1 float32) []renderer.Vertex {
	return []renderer.Vertex{
		{X: x0, Y: y0, U: 0.5, V: 1},
		{X: x0, Y: y1, U: 0.5, V: 1},
		{X: x1, Y: y1, U: 0.5, V: 1},
		{X: x1, Y: y0, U: 0.5, V: 1},
	}
}

// quadStrip returns the rectangle as a two-triangle strip.
func quadStrip(x0, y0, x1, y1 float32) []renderer.Vertex {
	return []renderer.Vertex{
		{X: x0, Y: y0, U: 0.5, V: 1},
		{X: x0, Y: y1, U: 0.5, V: 1},
		{X: x1, Y: y0, U: 0.5, V: 1},
		{X: x1, Y: y1, U: 0.5, V: 1},
	}
}

func pixelAt(r *Renderer, x, y int) [4]uint8 {
	off := r.target.PixOffset(x, y)
	return [4]uint8{r.target.Pix[off], r.target.Pix[off+1], r.target.Pix[off+2], r.target.Pix[off+3]}
}

func near8(got, want [4]uint8, tol int) bool {
	for i := range got {
		d := int(got[i]) - int(want[i])
		if d < -tol || d > tol {
			return false
		}
	}
	return true
}

var (
	red   = [4]uint8{255, 0, 0, 255}
	black = [4]uint8{0, 0, 0, 255}
	clear = [4]uint8{0, 0, 0, 0}
)

func TestClearRect(t *testing.T) {
	r := New()
	r.SetSize(16, 16, 1)

	r.Render(nil, []renderer.Command{
		renderer.NewClearRect(2, 3, 4, 5, femtovg.RGB(255, 0, 0)),
	})

	if got := pixelAt(r, 3, 4); got != red {
		t.Errorf("inside pixel = %v, want %v", got, red)
	}
	if got := pixelAt(r, 2, 3); got != red {
		t.Errorf("corner pixel = %v, want %v", got, red)
	}
	if got := pixelAt(r, 6, 8); got != clear {
		t.Errorf("pixel past the rect = %v, want untouched", got)
	}
	if got := pixelAt(r, 1, 4); got != clear {
		t.Errorf("pixel left of the rect = %v, want untouched", got)
	}
}

func TestClearRectClipped(t *testing.T) {
	r := New()
	r.SetSize(8, 8, 1)
	// Partially off-target clear must not panic and must fill the
	// intersection.
	r.Render(nil, []renderer.Command{
		renderer.NewClearRect(6, 6, 10, 10, femtovg.White),
	})
	if got := pixelAt(r, 7, 7); got != ([4]uint8{255, 255, 255, 255}) {
		t.Errorf("clipped clear pixel = %v", got)
	}
}

func TestConvexFill(t *testing.T) {
	r := New()
	r.SetSize(16, 16, 1)

	verts := quadFan(2, 2, 10, 10)
	cmd := renderer.NewCommand(renderer.ConvexFill)
	cmd.Drawables = []renderer.Drawable{renderer.Drawable{}.WithFill(0, 4)}
	cmd.Params = renderer.SolidParams(femtovg.RGB(255, 0, 0))

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 16, 16, femtovg.Black),
		cmd,
	})

	if got := pixelAt(r, 5, 5); got != red {
		t.Errorf("interior pixel = %v, want %v", got, red)
	}
	if got := pixelAt(r, 12, 12); got != black {
		t.Errorf("exterior pixel = %v, want %v", got, black)
	}
}

func TestConcaveFillNonZeroHole(t *testing.T) {
	r := New()
	r.SetSize(16, 16, 1)

	// Outer rectangle with an opposite-winding inner rectangle: the
	// ring fills, the hole stays.
	var verts []renderer.Vertex
	verts = append(verts, quadFan(1, 1, 13, 13)...)
	verts = append(verts, quadFanReversed(5, 5, 9, 9)...)
	verts = append(verts, quadStrip(0, 0, 14, 14)...)

	cmd := renderer.NewCommand(renderer.ConcaveFill)
	cmd.Drawables = []renderer.Drawable{
		renderer.Drawable{}.WithFill(0, 4),
		renderer.Drawable{}.WithFill(4, 4),
	}
	cmd.SetTriangles(8, 4)
	cmd.FillRule = femtovg.NonZero
	cmd.Params = renderer.SolidParams(femtovg.RGB(255, 0, 0))
	cmd.Params2 = renderer.StencilParams()

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 16, 16, femtovg.Black),
		cmd,
	})

	if got := pixelAt(r, 2, 7); got != red {
		t.Errorf("ring pixel = %v, want %v", got, red)
	}
	if got := pixelAt(r, 7, 7); got != black {
		t.Errorf("hole pixel = %v, want %v", got, black)
	}
	if got := pixelAt(r, 14, 14); got != black {
		t.Errorf("exterior pixel = %v, want %v", got, black)
	}
}

func TestConcaveFillEvenOdd(t *testing.T) {
	r := New()
	r.SetSize(16, 16, 1)

	// Two same-winding overlapping rectangles: under even-odd the
	// overlap is crossed twice and stays empty.
	var verts []renderer.Vertex
	verts = append(verts, quadFan(1, 1, 8, 8)...)
	verts = append(verts, quadFan(5, 5, 12, 12)...)
	verts = append(verts, quadStrip(0, 0, 13, 13)...)

	cmd := renderer.NewCommand(renderer.ConcaveFill)
	cmd.Drawables = []renderer.Drawable{
		renderer.Drawable{}.WithFill(0, 4),
		renderer.Drawable{}.WithFill(4, 4),
	}
	cmd.SetTriangles(8, 4)
	cmd.FillRule = femtovg.EvenOdd
	cmd.Params = renderer.SolidParams(femtovg.RGB(255, 0, 0))
	cmd.Params2 = renderer.StencilParams()

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 16, 16, femtovg.Black),
		cmd,
	})

	if got := pixelAt(r, 2, 2); got != red {
		t.Errorf("first rect pixel = %v, want %v", got, red)
	}
	if got := pixelAt(r, 10, 10); got != red {
		t.Errorf("second rect pixel = %v, want %v", got, red)
	}
	if got := pixelAt(r, 6, 6); got != black {
		t.Errorf("overlap pixel = %v, want %v", got, black)
	}
}

func TestConcaveFillNonZeroOverlap(t *testing.T) {
	r := New()
	r.SetSize(16, 16, 1)

	// Same geometry as the even-odd test: under nonzero the overlap
	// counts to two and fills like the rest.
	var verts []renderer.Vertex
	verts = append(verts, quadFan(1, 1, 8, 8)...)
	verts = append(verts, quadFan(5, 5, 12, 12)...)
	verts = append(verts, quadStrip(0, 0, 13, 13)...)

	cmd := renderer.NewCommand(renderer.ConcaveFill)
	cmd.Drawables = []renderer.Drawable{
		renderer.Drawable{}.WithFill(0, 4),
		renderer.Drawable{}.WithFill(4, 4),
	}
	cmd.SetTriangles(8, 4)
	cmd.FillRule = femtovg.NonZero
	cmd.Params = renderer.SolidParams(femtovg.RGB(255, 0, 0))
	cmd.Params2 = renderer.StencilParams()

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 16, 16, femtovg.Black),
		cmd,
	})

	if got := pixelAt(r, 2, 2); got != red {
		t.Errorf("first rect pixel = %v, want %v", got, red)
	}
	if got := pixelAt(r, 10, 10); got != red {
		t.Errorf("second rect pixel = %v, want %v", got, red)
	}
	if got := pixelAt(r, 6, 6); got != red {
		t.Errorf("overlap pixel = %v, want %v", got, red)
	}
}

func TestConvexConcaveFillAgree(t *testing.T) {
	verts := quadFan(2, 2, 10, 10)
	cover := quadStrip(1, 1, 11, 11)

	convex := New()
	convex.SetSize(16, 16, 1)
	cmd := renderer.NewCommand(renderer.ConvexFill)
	cmd.Drawables = []renderer.Drawable{renderer.Drawable{}.WithFill(0, 4)}
	cmd.Params = renderer.SolidParams(femtovg.RGB(255, 0, 0))
	convex.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 16, 16, femtovg.Black),
		cmd,
	})

	concave := New()
	concave.SetSize(16, 16, 1)
	cmd = renderer.NewCommand(renderer.ConcaveFill)
	cmd.Drawables = []renderer.Drawable{renderer.Drawable{}.WithFill(0, 4)}
	cmd.SetTriangles(4, 4)
	cmd.FillRule = femtovg.NonZero
	cmd.Params = renderer.SolidParams(femtovg.RGB(255, 0, 0))
	cmd.Params2 = renderer.StencilParams()
	concave.Render(append(verts, cover...), []renderer.Command{
		renderer.NewClearRect(0, 0, 16, 16, femtovg.Black),
		cmd,
	})

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if a, b := pixelAt(convex, x, y), pixelAt(concave, x, y); a != b {
				t.Fatalf("pixel (%d,%d): convex %v, concave %v", x, y, a, b)
			}
		}
	}
}

func TestStencilClearAfterRender(t *testing.T) {
	r := New()
	r.SetSize(16, 16, 1)

	var verts []renderer.Vertex
	verts = append(verts, quadFan(1, 1, 13, 13)...)
	verts = append(verts, quadStrip(0, 0, 14, 14)...)

	cmd := renderer.NewCommand(renderer.ConcaveFill)
	cmd.Drawables = []renderer.Drawable{renderer.Drawable{}.WithFill(0, 4)}
	cmd.SetTriangles(4, 4)
	cmd.Params = renderer.SolidParams(femtovg.White)
	cmd.Params2 = renderer.StencilParams()

	r.Render(verts, []renderer.Command{cmd})

	for i, s := range r.stencil {
		if s != 0 {
			t.Fatalf("stencil[%d] = %d after batch, want 0", i, s)
		}
	}
}

func TestStroke(t *testing.T) {
	r := New()
	r.SetSize(16, 16, 1)

	verts := quadStrip(3, 3, 9, 6)
	cmd := renderer.NewCommand(renderer.Stroke)
	cmd.Drawables = []renderer.Drawable{renderer.Drawable{}.WithStroke(0, 4)}
	cmd.Params = renderer.SolidParams(femtovg.RGB(255, 0, 0))

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 16, 16, femtovg.Black),
		cmd,
	})

	if got := pixelAt(r, 5, 4); got != red {
		t.Errorf("stroke pixel = %v, want %v", got, red)
	}
	if got := pixelAt(r, 11, 4); got != black {
		t.Errorf("pixel past stroke = %v, want %v", got, black)
	}
}

func TestStencilStrokeOverlapBlendsOnce(t *testing.T) {
	r := New()
	r.SetSize(16, 16, 1)

	// Two overlapping strips from one stroke. With a half-transparent
	// color the overlap must match a single blend, not two.
	var verts []renderer.Vertex
	verts = append(verts, quadStrip(2, 2, 10, 6)...)
	verts = append(verts, quadStrip(6, 2, 14, 6)...)

	cmd := renderer.NewCommand(renderer.StencilStroke)
	cmd.Drawables = []renderer.Drawable{
		renderer.Drawable{}.WithStroke(0, 4),
		renderer.Drawable{}.WithStroke(4, 4),
	}
	cmd.Params = renderer.SolidParams(femtovg.RGBAf(1, 0, 0, 0.5))
	cmd.Params2 = cmd.Params

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 16, 16, femtovg.Black),
		cmd,
	})

	want := [4]uint8{128, 0, 0, 255}
	if got := pixelAt(r, 8, 4); !near8(got, want, 2) {
		t.Errorf("overlap pixel = %v, want about %v", got, want)
	}
	if got := pixelAt(r, 3, 4); !near8(got, want, 2) {
		t.Errorf("single-coverage pixel = %v, want about %v", got, want)
	}

	for i, s := range r.stencil {
		if s != 0 {
			t.Fatalf("stencil[%d] = %d after stroke, want 0", i, s)
		}
	}
}

func TestTrianglesImage(t *testing.T) {
	r := New()
	r.SetSize(8, 8, 1)

	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
		src.Pix[i+3] = 255
	}
	id, err := r.CreateImage(src, 0)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}

	verts := []renderer.Vertex{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4},
		{X: 0, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4},
	}
	cmd := renderer.NewCommand(renderer.Triangles)
	cmd.SetTriangles(0, 6)
	cmd.Image = id
	cmd.Params = renderer.Params{
		Shader:     renderer.ShaderFillImage,
		InnerColor: femtovg.White,
		PaintMat:   renderer.IdentityPaintMat,
		Extent:     [2]float32{4, 4},
	}

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 8, 8, femtovg.Black),
		cmd,
	})

	if got := pixelAt(r, 2, 2); !near8(got, red, 1) {
		t.Errorf("sampled pixel = %v, want %v", got, red)
	}
	if got := pixelAt(r, 6, 6); got != black {
		t.Errorf("pixel outside quad = %v, want %v", got, black)
	}
}

func TestTrianglesAlphaMask(t *testing.T) {
	r := New()
	r.SetSize(8, 8, 1)

	// Mask: left texel opaque, right texel empty.
	mask := image.NewAlpha(image.Rect(0, 0, 2, 1))
	mask.Pix[0] = 255
	mask.Pix[1] = 0
	maskID, err := r.CreateImage(mask, femtovg.ImageNearest)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}

	// Quad over (0,0)-(8,8) with u sweeping 0..1.
	verts := []renderer.Vertex{
		{X: 0, Y: 0, U: 0, V: 0}, {X: 8, Y: 0, U: 1, V: 0}, {X: 8, Y: 8, U: 1, V: 1},
		{X: 0, Y: 0, U: 0, V: 0}, {X: 8, Y: 8, U: 1, V: 1}, {X: 0, Y: 8, U: 0, V: 1},
	}
	cmd := renderer.NewCommand(renderer.Triangles)
	cmd.SetTriangles(0, 6)
	cmd.AlphaMask = maskID
	cmd.Params = renderer.SolidParams(femtovg.White)

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 8, 8, femtovg.Black),
		cmd,
	})

	white := [4]uint8{255, 255, 255, 255}
	if got := pixelAt(r, 1, 4); !near8(got, white, 1) {
		t.Errorf("masked-in pixel = %v, want %v", got, white)
	}
	if got := pixelAt(r, 6, 4); !near8(got, black, 1) {
		t.Errorf("masked-out pixel = %v, want %v", got, black)
	}
}

func TestCompositeCopy(t *testing.T) {
	r := New()
	r.SetSize(8, 8, 1)

	verts := quadFan(0, 0, 8, 8)
	cmd := renderer.NewCommand(renderer.ConvexFill)
	cmd.Drawables = []renderer.Drawable{renderer.Drawable{}.WithFill(0, 4)}
	cmd.Params = renderer.SolidParams(femtovg.RGBAf(1, 0, 0, 0.5))
	cmd.CompositeOperation = femtovg.Copy.State()

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 8, 8, femtovg.White),
		cmd,
	})

	// Copy replaces the destination with the premultiplied source.
	want := [4]uint8{128, 0, 0, 128}
	if got := pixelAt(r, 4, 4); !near8(got, want, 2) {
		t.Errorf("copy pixel = %v, want about %v", got, want)
	}
}

func TestCompositeLighter(t *testing.T) {
	r := New()
	r.SetSize(8, 8, 1)

	verts := quadFan(0, 0, 8, 8)
	cmd := renderer.NewCommand(renderer.ConvexFill)
	cmd.Drawables = []renderer.Drawable{renderer.Drawable{}.WithFill(0, 4)}
	cmd.Params = renderer.SolidParams(femtovg.RGB(255, 0, 0))
	cmd.CompositeOperation = femtovg.Lighter.State()

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 8, 8, femtovg.RGB(0, 255, 0)),
		cmd,
	})

	want := [4]uint8{255, 255, 0, 255}
	if got := pixelAt(r, 4, 4); !near8(got, want, 1) {
		t.Errorf("lighter pixel = %v, want %v", got, want)
	}
}

func TestCompositeStateDoesNotLeak(t *testing.T) {
	r := New()
	r.SetSize(8, 8, 1)

	verts := quadFan(0, 0, 8, 8)

	lighter := renderer.NewCommand(renderer.ConvexFill)
	lighter.Drawables = []renderer.Drawable{renderer.Drawable{}.WithFill(0, 4)}
	lighter.Params = renderer.SolidParams(femtovg.RGB(0, 0, 255))
	lighter.CompositeOperation = femtovg.Lighter.State()

	// A later command with default state must blend source-over.
	over := renderer.NewCommand(renderer.ConvexFill)
	over.Drawables = []renderer.Drawable{renderer.Drawable{}.WithFill(0, 4)}
	over.Params = renderer.SolidParams(femtovg.RGB(255, 0, 0))

	r.Render(verts, []renderer.Command{
		renderer.NewClearRect(0, 0, 8, 8, femtovg.RGB(0, 255, 0)),
		lighter,
		over,
	})

	if got := pixelAt(r, 4, 4); got != red {
		t.Errorf("final pixel = %v, want %v", got, red)
	}
}

func TestRenderSkipsOutOfRangeCommand(t *testing.T) {
	r := New()
	r.SetSize(8, 8, 1)

	verts := quadFan(0, 0, 8, 8)
	bad := renderer.NewCommand(renderer.ConvexFill)
	bad.Drawables = []renderer.Drawable{renderer.Drawable{}.WithFill(0, 100)}
	bad.Params = renderer.SolidParams(femtovg.White)

	good := renderer.NewCommand(renderer.ConvexFill)
	good.Drawables = []renderer.Drawable{renderer.Drawable{}.WithFill(0, 4)}
	good.Params = renderer.SolidParams(femtovg.RGB(255, 0, 0))

	r.Render(verts, []renderer.Command{bad, good})

	if got := pixelAt(r, 4, 4); got != red {
		t.Errorf("pixel = %v, want %v from the valid command", got, red)
	}
}

func TestRenderBeforeSetSize(t *testing.T) {
	r := New()
	r.Render(nil, []renderer.Command{renderer.NewClearRect(0, 0, 4, 4, femtovg.White)})
	if shot := r.Screenshot(); shot != nil {
		t.Errorf("Screenshot before SetSize = %v, want nil", shot)
	}
}

func TestScreenshot(t *testing.T) {
	r := New()
	r.SetSize(4, 4, 1)
	r.Render(nil, []renderer.Command{renderer.NewClearRect(0, 0, 4, 4, femtovg.RGB(255, 0, 0))})

	shot := r.Screenshot()
	img, ok := shot.(*image.NRGBA)
	if !ok {
		t.Fatalf("Screenshot() = %T, want *image.NRGBA", shot)
	}
	if got := img.NRGBAAt(2, 2); got.R != 255 || got.A != 255 {
		t.Errorf("screenshot pixel = %v, want opaque red", got)
	}

	// Half-alpha premultiplied red unmultiplies to straight alpha.
	r.target.SetRGBA(0, 0, color.RGBA{R: 128, A: 128})
	shot = r.Screenshot()
	if got := shot.(*image.NRGBA).NRGBAAt(0, 0); got.R != 255 || got.A != 128 {
		t.Errorf("translucent pixel = %v, want {255 0 0 128}", got)
	}
}

func TestImageLifecycle(t *testing.T) {
	r := New()

	id, err := r.CreateImage(image.NewNRGBA(image.Rect(0, 0, 6, 3)), femtovg.ImageRepeatX)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	if w, h := r.TextureSize(id); w != 6 || h != 3 {
		t.Errorf("TextureSize = (%v, %v), want (6, 3)", w, h)
	}
	if got := r.TextureType(id); got != renderer.TextureRGBA {
		t.Errorf("TextureType = %v, want Rgba", got)
	}
	if got := r.TextureFlags(id); got != femtovg.ImageRepeatX {
		t.Errorf("TextureFlags = %v, want ImageRepeatX", got)
	}

	r.DeleteImage(id)
	if got := r.TextureType(id); got != renderer.TextureNone {
		t.Errorf("TextureType after delete = %v, want None", got)
	}
	if w, h := r.TextureSize(id); w != 0 || h != 0 {
		t.Errorf("TextureSize after delete = (%v, %v), want (0, 0)", w, h)
	}
	r.DeleteImage(id)
}

func TestCreateImageTooLarge(t *testing.T) {
	r := New()
	_, err := r.CreateImage(image.NewAlpha(image.Rect(0, 0, maxTextureSize+1, 1)), 0)
	if err == nil {
		t.Fatal("CreateImage accepted an oversized image")
	}
}

func TestUpdateImageRegion(t *testing.T) {
	r := New()
	id, err := r.CreateImage(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 0)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}

	patch := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(patch.Pix); i += 4 {
		patch.Pix[i] = 255
		patch.Pix[i+3] = 255
	}
	r.UpdateImage(id, patch, 1, 1)

	if w, h := r.TextureSize(id); w != 4 || h != 4 {
		t.Errorf("TextureSize after update = (%v, %v), want (4, 4)", w, h)
	}
	tex := r.textures[id]
	if got := tex.rgba.RGBAAt(1, 1); got.R != 255 {
		t.Errorf("updated texel = %v, want red", got)
	}
	if got := tex.rgba.RGBAAt(0, 0); got.R != 0 || got.A != 0 {
		t.Errorf("texel outside region = %v, want untouched", got)
	}
}

func TestRegistered(t *testing.T) {
	if !renderer.IsRegistered(renderer.BackendSoftware) {
		t.Fatal("software backend not registered")
	}
	if _, ok := renderer.Get(renderer.BackendSoftware).(*Renderer); !ok {
		t.Error("Get(software) returned wrong type")
	}
}
