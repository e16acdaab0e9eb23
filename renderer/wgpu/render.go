package wgpu

import (
	"encoding/binary"
	"image"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/DasLixou/femtovg"
	"github.com/DasLixou/femtovg/renderer"
)

// copyPitchAlignment is the row alignment texture-to-buffer copies
// require on WebGPU and DX12.
const copyPitchAlignment = 256

// frameDraw is one pipeline invocation within the frame's render
// pass: a contiguous run of triangle-list vertices with its own
// stencil mode, blend state and uniform block.
type frameDraw struct {
	mode  stencilMode
	blend femtovg.CompositeOperationState

	uniform [uniformSize]byte

	image femtovg.ImageID
	mask  femtovg.ImageID

	first uint32
	count uint32
}

// frameBuilder accumulates the expanded vertex stream and draw list
// for one Render call.
type frameBuilder struct {
	verts []renderer.Vertex
	data  []byte
	draws []frameDraw
}

func (fb *frameBuilder) push(v renderer.Vertex) {
	var b [vertexStride]byte
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.U))
	binary.LittleEndian.PutUint32(b[12:], math.Float32bits(v.V))
	fb.data = append(fb.data, b[:]...)
}

func (fb *frameBuilder) vertexCount() uint32 {
	return uint32(len(fb.data) / vertexStride)
}

// fan expands a triangle fan range into the list stream.
func (fb *frameBuilder) fan(rng renderer.VertexRange) {
	for i := rng.Start + 2; i < rng.End(); i++ {
		fb.push(fb.verts[rng.Start])
		fb.push(fb.verts[i-1])
		fb.push(fb.verts[i])
	}
}

// strip expands a triangle strip range, flipping every other triangle
// so winding stays consistent.
func (fb *frameBuilder) strip(rng renderer.VertexRange) {
	for i := rng.Start + 2; i < rng.End(); i++ {
		if (i-rng.Start)%2 == 0 {
			fb.push(fb.verts[i-2])
			fb.push(fb.verts[i-1])
			fb.push(fb.verts[i])
		} else {
			fb.push(fb.verts[i-1])
			fb.push(fb.verts[i-2])
			fb.push(fb.verts[i])
		}
	}
}

// list copies a raw triangle-list range, dropping any trailing
// partial triangle.
func (fb *frameBuilder) list(rng renderer.VertexRange) {
	n := rng.Count - rng.Count%3
	for i := rng.Start; i < rng.Start+n; i++ {
		fb.push(fb.verts[i])
	}
}

// draw closes a vertex run started at first into a frameDraw.
func (fb *frameBuilder) draw(first uint32, cmd *renderer.Command, mode stencilMode, params *renderer.Params, viewW, viewH float32) {
	count := fb.vertexCount() - first
	if count == 0 {
		return
	}
	d := frameDraw{
		mode:  mode,
		blend: cmd.CompositeOperation,
		image: cmd.Image,
		mask:  cmd.AlphaMask,
		first: first,
		count: count,
	}
	hasMask := float32(0)
	if cmd.AlphaMask.Valid() {
		hasMask = 1
	}
	strokeMult := params.StrokeMult
	if cmd.Kind == renderer.Triangles {
		// Glyph quads carry atlas coordinates in uv, not coverage.
		strokeMult = 0
	}
	encodeUniforms(d.uniform[:], params, viewW, viewH, strokeMult, hasMask)
	fb.draws = append(fb.draws, d)
}

// encodeUniforms packs a parameter block into the 7-vec4 uniform
// layout the shader expects.
func encodeUniforms(dst []byte, p *renderer.Params, viewW, viewH, strokeMult, hasMask float32) {
	put := func(i int, v float32) {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
	put(0, viewW)
	put(1, viewH)
	put(2, 0)
	put(3, 0)
	for i, m := range p.PaintMat {
		put(4+i, m)
	}
	put(10, 0)
	put(11, 0)
	put(12, p.InnerColor.R)
	put(13, p.InnerColor.G)
	put(14, p.InnerColor.B)
	put(15, p.InnerColor.A)
	put(16, p.OuterColor.R)
	put(17, p.OuterColor.G)
	put(18, p.OuterColor.B)
	put(19, p.OuterColor.A)
	put(20, p.Extent[0])
	put(21, p.Extent[1])
	put(22, p.Radius)
	put(23, p.Feather)
	put(24, strokeMult)
	put(25, p.StrokeThr)
	put(26, hasMask)
	put(27, p.Shader.ToFloat32())
}

// clearRectVerts synthesizes the two triangles covering a ClearRect
// region, with fill-style uv so the shader shades at full coverage.
func (fb *frameBuilder) clearRect(rc renderer.Rect) {
	x0, y0 := float32(rc.X), float32(rc.Y)
	x1, y1 := x0+float32(rc.Width), y0+float32(rc.Height)
	quad := [4]renderer.Vertex{
		{X: x0, Y: y0, U: 0.5, V: 1},
		{X: x1, Y: y0, U: 0.5, V: 1},
		{X: x0, Y: y1, U: 0.5, V: 1},
		{X: x1, Y: y1, U: 0.5, V: 1},
	}
	fb.push(quad[0])
	fb.push(quad[1])
	fb.push(quad[2])
	fb.push(quad[2])
	fb.push(quad[1])
	fb.push(quad[3])
}

// buildFrame translates the command batch into the vertex stream and
// draw list. Commands referencing vertices outside the buffer are
// logged and skipped.
func (r *Renderer) buildFrame(verts []renderer.Vertex, commands []renderer.Command) *frameBuilder {
	fb := &frameBuilder{verts: verts}
	w, h := float32(r.width), float32(r.height)

	copyBlend := femtovg.Copy.State()

	for i := range commands {
		cmd := &commands[i]
		if cmd.MaxVertex() > len(verts) {
			femtovg.Logger().Error("command references vertices out of range",
				"kind", cmd.Kind.String(), "needed", cmd.MaxVertex(), "have", len(verts))
			continue
		}

		switch cmd.Kind {
		case renderer.ClearRect:
			first := fb.vertexCount()
			fb.clearRect(cmd.Rect)
			params := renderer.SolidParams(cmd.ClearColor)
			clear := *cmd
			clear.CompositeOperation = copyBlend
			fb.draw(first, &clear, stencilNone, &params, w, h)

		case renderer.ConvexFill:
			for _, d := range cmd.Drawables {
				first := fb.vertexCount()
				if d.HasFill {
					fb.fan(d.FillVerts)
				}
				if d.HasStroke {
					fb.strip(d.StrokeVerts)
				}
				fb.draw(first, cmd, stencilNone, &cmd.Params, w, h)
			}

		case renderer.ConcaveFill:
			mode := stencilFillNonZero
			if cmd.FillRule == femtovg.EvenOdd {
				mode = stencilFillEvenOdd
			}
			first := fb.vertexCount()
			for _, d := range cmd.Drawables {
				if d.HasFill {
					fb.fan(d.FillVerts)
				}
			}
			fb.draw(first, cmd, mode, &cmd.Params2, w, h)

			first = fb.vertexCount()
			for _, d := range cmd.Drawables {
				if d.HasStroke {
					fb.strip(d.StrokeVerts)
				}
			}
			fb.draw(first, cmd, stencilFringe, &cmd.Params, w, h)

			if cmd.HasTriangles {
				first = fb.vertexCount()
				fb.strip(cmd.TrianglesVerts)
				fb.draw(first, cmd, stencilCover, &cmd.Params, w, h)
			}

		case renderer.Stroke:
			for _, d := range cmd.Drawables {
				if !d.HasStroke {
					continue
				}
				first := fb.vertexCount()
				fb.strip(d.StrokeVerts)
				fb.draw(first, cmd, stencilNone, &cmd.Params, w, h)
			}

		case renderer.StencilStroke:
			first := fb.vertexCount()
			for _, d := range cmd.Drawables {
				if d.HasStroke {
					fb.strip(d.StrokeVerts)
				}
			}
			count := fb.vertexCount() - first
			if count == 0 {
				continue
			}
			fb.draw(first, cmd, stencilStrokeCore, &cmd.Params, w, h)

			// The fringe and clear passes reuse the same vertex run.
			fringe := *fb.drawAt(len(fb.draws) - 1)
			fringe.mode = stencilFringe
			encodeUniforms(fringe.uniform[:], &cmd.Params2, w, h, cmd.Params2.StrokeMult, maskFlag(cmd))
			fb.draws = append(fb.draws, fringe)

			clear := fringe
			clear.mode = stencilClear
			stencilParams := renderer.StencilParams()
			encodeUniforms(clear.uniform[:], &stencilParams, w, h, stencilParams.StrokeMult, 0)
			fb.draws = append(fb.draws, clear)

		case renderer.Triangles:
			if !cmd.HasTriangles {
				continue
			}
			first := fb.vertexCount()
			fb.list(cmd.TrianglesVerts)
			fb.draw(first, cmd, stencilNone, &cmd.Params, w, h)
		}
	}
	return fb
}

func (fb *frameBuilder) drawAt(i int) *frameDraw {
	return &fb.draws[i]
}

func maskFlag(cmd *renderer.Command) float32 {
	if cmd.AlphaMask.Valid() {
		return 1
	}
	return 0
}

// frameResources are the transient device objects of one submitted
// frame, destroyed after the fence signals.
type frameResources struct {
	vertBuf     hal.Buffer
	uniformBufs []hal.Buffer
	bindGroups  []hal.BindGroup
}

func (fr *frameResources) destroy(device hal.Device) {
	for _, bg := range fr.bindGroups {
		device.DestroyBindGroup(bg)
	}
	for _, ub := range fr.uniformBufs {
		device.DestroyBuffer(ub)
	}
	if fr.vertBuf != nil {
		device.DestroyBuffer(fr.vertBuf)
	}
}

// imageBindings resolves a draw's texture and sampler bindings,
// substituting the fallback white texture where no image is bound.
func (r *Renderer) imageBindings(id femtovg.ImageID) (hal.TextureView, hal.Sampler) {
	if t, ok := r.images[id]; ok && id.Valid() {
		return t.view, t.sampler
	}
	return r.res.whiteView, r.res.linearSampler
}

// buildResources uploads the frame's vertex stream and creates the
// per-draw uniform buffers and bind groups.
func (r *Renderer) buildResources(fb *frameBuilder) (*frameResources, error) {
	fr := &frameResources{}

	if len(fb.data) > 0 {
		vertBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "vg_frame_verts",
			Size:  uint64(len(fb.data)),
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, err
		}
		r.queue.WriteBuffer(vertBuf, 0, fb.data)
		fr.vertBuf = vertBuf
	}

	for i := range fb.draws {
		d := &fb.draws[i]
		ub, err := r.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "vg_draw_uniforms",
			Size:  uniformSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			fr.destroy(r.device)
			return nil, err
		}
		fr.uniformBufs = append(fr.uniformBufs, ub)
		r.queue.WriteBuffer(ub, 0, d.uniform[:])

		imgView, imgSampler := r.imageBindings(d.image)
		maskView, maskSampler := r.imageBindings(d.mask)

		bg, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "vg_draw_bind",
			Layout: r.res.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: ub.NativeHandle(), Offset: 0, Size: uniformSize,
				}},
				{Binding: 1, Resource: gputypes.TextureViewBinding{
					TextureView: imgView.NativeHandle(),
				}},
				{Binding: 2, Resource: gputypes.SamplerBinding{
					Sampler: imgSampler.NativeHandle(),
				}},
				{Binding: 3, Resource: gputypes.TextureViewBinding{
					TextureView: maskView.NativeHandle(),
				}},
				{Binding: 4, Resource: gputypes.SamplerBinding{
					Sampler: maskSampler.NativeHandle(),
				}},
			},
		})
		if err != nil {
			fr.destroy(r.device)
			return nil, err
		}
		fr.bindGroups = append(fr.bindGroups, bg)
	}
	return fr, nil
}

// Render executes the command batch. The frame renders into the MSAA
// target in one pass and resolves into the single-sample texture that
// Screenshot reads. Failures are logged and the frame dropped; the
// contract has no error channel.
func (r *Renderer) Render(verts []renderer.Vertex, commands []renderer.Command) {
	if r.device == nil {
		femtovg.Logger().Warn("render on closed renderer")
		return
	}
	if r.width == 0 || r.height == 0 {
		femtovg.Logger().Warn("render before SetSize, dropping frame")
		return
	}
	if err := r.ensureResources(); err != nil {
		femtovg.Logger().Error("pipeline setup failed", "error", err)
		return
	}
	if err := r.textures.ensure(r.device, r.width, r.height); err != nil {
		femtovg.Logger().Error("render target setup failed", "error", err)
		return
	}

	fb := r.buildFrame(verts, commands)

	// Create all pipelines up front so the pass records without
	// fallible calls.
	pipelines := make([]hal.RenderPipeline, len(fb.draws))
	for i := range fb.draws {
		pl, err := r.pipeline(fb.draws[i].mode, fb.draws[i].blend)
		if err != nil {
			femtovg.Logger().Error("pipeline creation failed", "error", err)
			return
		}
		pipelines[i] = pl
	}

	fr, err := r.buildResources(fb)
	if err != nil {
		femtovg.Logger().Error("frame resource setup failed", "error", err)
		return
	}
	defer fr.destroy(r.device)

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "vg_encoder",
	})
	if err != nil {
		femtovg.Logger().Error("create command encoder failed", "error", err)
		return
	}
	if err := encoder.BeginEncoding("vg_frame"); err != nil {
		femtovg.Logger().Error("begin encoding failed", "error", err)
		return
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "vg_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:          r.textures.msaaView,
			ResolveTarget: r.textures.resolveView,
			LoadOp:        gputypes.LoadOpClear,
			StoreOp:       gputypes.StoreOpStore,
			ClearValue:    gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              r.textures.stencilView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})

	for i := range fb.draws {
		d := &fb.draws[i]
		rp.SetPipeline(pipelines[i])
		rp.SetBindGroup(0, fr.bindGroups[i], nil)
		rp.SetVertexBuffer(0, fr.vertBuf, 0)
		rp.Draw(d.count, 1, d.first, 0)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		femtovg.Logger().Error("end encoding failed", "error", err)
		return
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		femtovg.Logger().Error("create fence failed", "error", err)
		return
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		femtovg.Logger().Error("submit failed", "error", err)
		return
	}
	if ok, err := r.device.Wait(fence, 1, 5*time.Second); err != nil || !ok {
		femtovg.Logger().Error("wait for frame failed", "ok", ok, "error", err)
	}
}

// Screenshot copies the resolve texture back to the CPU and returns
// it as a premultiplied RGBA image, or nil before the first frame.
func (r *Renderer) Screenshot() image.Image {
	if r.device == nil || r.textures.resolveTex == nil {
		return nil
	}
	w, h := r.textures.width, r.textures.height

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "vg_readback_encoder",
	})
	if err != nil {
		femtovg.Logger().Error("create readback encoder failed", "error", err)
		return nil
	}
	if err := encoder.BeginEncoding("vg_readback"); err != nil {
		femtovg.Logger().Error("begin readback encoding failed", "error", err)
		return nil
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.textures.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "vg_readback_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		femtovg.Logger().Error("create staging buffer failed", "error", err)
		return nil
	}
	defer r.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(r.textures.resolveTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: r.textures.resolveTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.textures.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		femtovg.Logger().Error("end readback encoding failed", "error", err)
		return nil
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		femtovg.Logger().Error("create fence failed", "error", err)
		return nil
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		femtovg.Logger().Error("readback submit failed", "error", err)
		return nil
	}
	if ok, err := r.device.Wait(fence, 1, 5*time.Second); err != nil || !ok {
		femtovg.Logger().Error("wait for readback failed", "ok", ok, "error", err)
		return nil
	}

	readback := make([]byte, stagingSize)
	if err := r.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		femtovg.Logger().Error("readback failed", "error", err)
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := uint32(0); row < h; row++ {
		src := readback[row*alignedBytesPerRow:]
		dst := img.Pix[int(row)*img.Stride:]
		for x := uint32(0); x < w; x++ {
			// BGRA to RGBA.
			dst[x*4+0] = src[x*4+2]
			dst[x*4+1] = src[x*4+1]
			dst[x*4+2] = src[x*4+0]
			dst[x*4+3] = src[x*4+3]
		}
	}
	return img
}
