// Command vgdemo renders a frame through the software backend and
// saves it as a PNG. It drives the renderer contract directly with
// hand-built geometry, which makes it a handy smoke test for backend
// changes.
package main

import (
	"flag"
	"image/png"
	"log"
	"math"
	"os"

	"github.com/DasLixou/femtovg"
	"github.com/DasLixou/femtovg/renderer"
	"github.com/DasLixou/femtovg/renderer/software"
)

func main() {
	var (
		width  = flag.Uint("width", 800, "image width")
		height = flag.Uint("height", 600, "image height")
		output = flag.String("output", "demo.png", "output file")
	)
	flag.Parse()

	r := software.New()
	r.SetSize(uint32(*width), uint32(*height), 1)

	var verts []renderer.Vertex
	var commands []renderer.Command

	commands = append(commands,
		renderer.NewClearRect(0, 0, uint32(*width), uint32(*height), femtovg.RGB(24, 26, 32)))

	// Convex hexagon, flat fill.
	hexStart := len(verts)
	verts = append(verts, polygonFan(200, 200, 120, 6)...)
	hex := renderer.NewCommand(renderer.ConvexFill)
	hex.Drawables = []renderer.Drawable{
		renderer.Drawable{}.WithFill(hexStart, len(verts)-hexStart),
	}
	hex.Params = renderer.SolidParams(femtovg.RGBAf(0.95, 0.45, 0.2, 0.9))
	commands = append(commands, hex)

	// Five-point star, concave fill via the stencil path.
	starStart := len(verts)
	verts = append(verts, starFan(560, 220, 140, 55, 5)...)
	starCount := len(verts) - starStart
	coverStart := len(verts)
	verts = append(verts, coverQuad(400, 60, 720, 380)...)

	star := renderer.NewCommand(renderer.ConcaveFill)
	star.Drawables = []renderer.Drawable{
		renderer.Drawable{}.WithFill(starStart, starCount),
	}
	star.SetTriangles(coverStart, 4)
	star.Params = renderer.SolidParams(femtovg.RGBAf(0.3, 0.7, 1, 0.9))
	star.Params2 = renderer.StencilParams()
	commands = append(commands, star)

	// Sine wave stroke.
	strokeStart := len(verts)
	verts = append(verts, waveStrip(60, 460, 680, 60, 8)...)
	wave := renderer.NewCommand(renderer.Stroke)
	wave.Drawables = []renderer.Drawable{
		renderer.Drawable{}.WithStroke(strokeStart, len(verts)-strokeStart),
	}
	wave.Params = renderer.SolidParams(femtovg.RGBAf(0.5, 1, 0.6, 1))
	commands = append(commands, wave)

	r.Render(verts, commands)

	shot := r.Screenshot()
	if shot == nil {
		log.Fatal("screenshot unavailable")
	}
	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer f.Close()
	if err := png.Encode(f, shot); err != nil {
		log.Fatalf("encode png: %v", err)
	}
	log.Printf("demo saved to %s (%dx%d)", *output, *width, *height)
}

// polygonFan builds a regular polygon as a triangle fan anchored at
// its first perimeter vertex.
func polygonFan(cx, cy, radius float32, sides int) []renderer.Vertex {
	out := make([]renderer.Vertex, 0, sides)
	for i := 0; i < sides; i++ {
		a := 2 * math.Pi * float64(i) / float64(sides)
		out = append(out, renderer.Vertex{
			X: cx + radius*float32(math.Cos(a)),
			Y: cy + radius*float32(math.Sin(a)),
			U: 0.5, V: 1,
		})
	}
	return out
}

// starFan builds a self-intersecting star outline as a fan; the
// winding stencil resolves its interior.
func starFan(cx, cy, outer, inner float32, points int) []renderer.Vertex {
	out := make([]renderer.Vertex, 0, points*2)
	for i := 0; i < points*2; i++ {
		radius := outer
		if i%2 == 1 {
			radius = inner
		}
		a := math.Pi*float64(i)/float64(points) - math.Pi/2
		out = append(out, renderer.Vertex{
			X: cx + radius*float32(math.Cos(a)),
			Y: cy + radius*float32(math.Sin(a)),
			U: 0.5, V: 1,
		})
	}
	return out
}

// coverQuad builds the 4-vertex strip covering a bounding box.
func coverQuad(x0, y0, x1, y1 float32) []renderer.Vertex {
	return []renderer.Vertex{
		{X: x1, Y: y1, U: 0.5, V: 1},
		{X: x1, Y: y0, U: 0.5, V: 1},
		{X: x0, Y: y1, U: 0.5, V: 1},
		{X: x0, Y: y0, U: 0.5, V: 1},
	}
}

// waveStrip builds a stroked sine wave as a triangle strip with
// fringe coordinates on the edges.
func waveStrip(x, y, width, amplitude float32, halfWidth float32) []renderer.Vertex {
	const segments = 64
	out := make([]renderer.Vertex, 0, (segments+1)*2)
	for i := 0; i <= segments; i++ {
		t := float32(i) / segments
		px := x + t*width
		py := y + amplitude*float32(math.Sin(float64(t)*4*math.Pi))
		// Normal of the wave, for offsetting the strip edges.
		slope := amplitude * 4 * math.Pi * float32(math.Cos(float64(t)*4*math.Pi)) / width
		inv := 1 / float32(math.Sqrt(float64(1+slope*slope)))
		nx, ny := -slope*inv, inv
		out = append(out,
			renderer.Vertex{X: px + nx*halfWidth, Y: py + ny*halfWidth, U: 0, V: 1},
			renderer.Vertex{X: px - nx*halfWidth, Y: py - ny*halfWidth, U: 1, V: 1},
		)
	}
	return out
}
