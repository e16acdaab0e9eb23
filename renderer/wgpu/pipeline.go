package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/DasLixou/femtovg"
)

//go:embed shaders/fill.wgsl
var fillShaderSource string

// sampleCount is the MSAA sample count for the offscreen color target.
const sampleCount = 4

// uniformSize is the byte size of the shader uniform block:
// 7 x vec4<f32> = 112 bytes.
const uniformSize = 112

// vertexStride is the byte stride per vertex: x, y, u, v float32.
const vertexStride = 16

// stencilMode selects the depth/stencil state of a pipeline variant.
type stencilMode int

const (
	// stencilNone ignores the stencil buffer and writes color.
	stencilNone stencilMode = iota
	// stencilFillNonZero accumulates winding: front faces increment,
	// back faces decrement, color writes off.
	stencilFillNonZero
	// stencilFillEvenOdd inverts on every face, color writes off.
	stencilFillEvenOdd
	// stencilCover shades where the stencil is nonzero and resets it
	// to zero, restoring the clean-stencil invariant.
	stencilCover
	// stencilFringe shades only untouched pixels, leaving the stencil
	// as is. Used for anti-aliased fringes next to stencilled areas.
	stencilFringe
	// stencilStrokeCore shades untouched pixels and marks them, so
	// overlapping stroke geometry blends each pixel once.
	stencilStrokeCore
	// stencilClear zeroes the stencil without touching color.
	stencilClear
)

// pipelineKey identifies one cached pipeline variant. Modes that do
// not write color normalize the blend state so they share one entry.
type pipelineKey struct {
	mode  stencilMode
	blend femtovg.CompositeOperationState
}

// pipelineResources holds the device objects shared by every frame:
// the compiled shader, layouts, samplers, fallback textures and the
// pipeline cache.
type pipelineResources struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	pipelines map[pipelineKey]hal.RenderPipeline

	// whiteTex is a 1x1 opaque texture bound wherever a command has no
	// image or mask, keeping the bind group layout uniform.
	whiteTex  hal.Texture
	whiteView hal.TextureView

	nearestSampler hal.Sampler
	linearSampler  hal.Sampler
}

// compileShader translates the WGSL source to SPIR-V words and builds
// the shader module from them.
func compileShader(device hal.Device, label, source string) (hal.ShaderModule, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", label, err)
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
}

// ensureResources builds the frame-independent device objects on first
// use.
func (r *Renderer) ensureResources() error {
	if r.res != nil {
		return nil
	}
	res := &pipelineResources{
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}

	shader, err := compileShader(r.device, "fill_shader", fillShaderSource)
	if err != nil {
		return err
	}
	res.shader = shader

	// Binding 0: uniforms (vertex + fragment).
	// Binding 1/2: paint texture and sampler.
	// Binding 3/4: alpha mask texture and sampler.
	bindLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "fill_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    4,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		res.destroy(r.device)
		return fmt.Errorf("create bind group layout: %w", err)
	}
	res.bindLayout = bindLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "fill_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		res.destroy(r.device)
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	res.pipeLayout = pipeLayout

	nearest, err := r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "fill_nearest_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
	})
	if err != nil {
		res.destroy(r.device)
		return fmt.Errorf("create nearest sampler: %w", err)
	}
	res.nearestSampler = nearest

	linear, err := r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "fill_linear_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
	})
	if err != nil {
		res.destroy(r.device)
		return fmt.Errorf("create linear sampler: %w", err)
	}
	res.linearSampler = linear

	whiteTex, whiteView, err := r.createWhiteTexture()
	if err != nil {
		res.destroy(r.device)
		return err
	}
	res.whiteTex = whiteTex
	res.whiteView = whiteView

	r.res = res
	return nil
}

func (p *pipelineResources) destroy(device hal.Device) {
	for _, pl := range p.pipelines {
		device.DestroyRenderPipeline(pl)
	}
	p.pipelines = nil
	if p.whiteView != nil {
		device.DestroyTextureView(p.whiteView)
		p.whiteView = nil
	}
	if p.whiteTex != nil {
		device.DestroyTexture(p.whiteTex)
		p.whiteTex = nil
	}
	if p.linearSampler != nil {
		device.DestroySampler(p.linearSampler)
		p.linearSampler = nil
	}
	if p.nearestSampler != nil {
		device.DestroySampler(p.nearestSampler)
		p.nearestSampler = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// writesColor reports whether a stencil mode writes to the color
// attachment.
func (m stencilMode) writesColor() bool {
	switch m {
	case stencilFillNonZero, stencilFillEvenOdd, stencilClear:
		return false
	default:
		return true
	}
}

// translateBlendFactor maps a contract blend factor to the device
// enum.
func translateBlendFactor(f femtovg.BlendFactor) gputypes.BlendFactor {
	switch f {
	case femtovg.BlendZero:
		return gputypes.BlendFactorZero
	case femtovg.BlendOne:
		return gputypes.BlendFactorOne
	case femtovg.BlendSrcColor:
		return gputypes.BlendFactorSrc
	case femtovg.BlendOneMinusSrcColor:
		return gputypes.BlendFactorOneMinusSrc
	case femtovg.BlendDstColor:
		return gputypes.BlendFactorDst
	case femtovg.BlendOneMinusDstColor:
		return gputypes.BlendFactorOneMinusDst
	case femtovg.BlendSrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case femtovg.BlendOneMinusSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case femtovg.BlendDstAlpha:
		return gputypes.BlendFactorDstAlpha
	case femtovg.BlendOneMinusDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha
	case femtovg.BlendSrcAlphaSaturate:
		return gputypes.BlendFactorSrcAlphaSaturated
	default:
		return gputypes.BlendFactorOne
	}
}

func translateBlendState(st femtovg.CompositeOperationState) gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			Operation: gputypes.BlendOperationAdd,
			SrcFactor: translateBlendFactor(st.SrcRGB),
			DstFactor: translateBlendFactor(st.DstRGB),
		},
		Alpha: gputypes.BlendComponent{
			Operation: gputypes.BlendOperationAdd,
			SrcFactor: translateBlendFactor(st.SrcAlpha),
			DstFactor: translateBlendFactor(st.DstAlpha),
		},
	}
}

// stencilState builds the depth/stencil descriptor for a mode. The
// depth component is unused but the format requires it.
func stencilState(mode stencilMode) *hal.DepthStencilState {
	keepAll := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}

	st := &hal.DepthStencilState{
		Format:            gputypes.TextureFormatDepth24PlusStencil8,
		DepthWriteEnabled: false,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      keepAll,
		StencilBack:       keepAll,
		StencilReadMask:   0xFF,
		StencilWriteMask:  0xFF,
	}

	switch mode {
	case stencilFillNonZero:
		st.StencilFront.PassOp = hal.StencilOperationIncrementWrap
		st.StencilBack.PassOp = hal.StencilOperationDecrementWrap
	case stencilFillEvenOdd:
		st.StencilFront.PassOp = hal.StencilOperationInvert
		st.StencilBack.PassOp = hal.StencilOperationInvert
	case stencilCover:
		st.StencilFront.Compare = gputypes.CompareFunctionNotEqual
		st.StencilFront.PassOp = hal.StencilOperationZero
		st.StencilBack = st.StencilFront
	case stencilFringe:
		st.StencilFront.Compare = gputypes.CompareFunctionEqual
		st.StencilBack = st.StencilFront
	case stencilStrokeCore:
		st.StencilFront.Compare = gputypes.CompareFunctionEqual
		st.StencilFront.PassOp = hal.StencilOperationIncrementWrap
		st.StencilBack = st.StencilFront
	case stencilClear:
		st.StencilFront.PassOp = hal.StencilOperationZero
		st.StencilBack = st.StencilFront
	}
	return st
}

// pipeline returns the cached pipeline for a key, creating it on
// first use.
func (r *Renderer) pipeline(mode stencilMode, blend femtovg.CompositeOperationState) (hal.RenderPipeline, error) {
	if !mode.writesColor() {
		blend = femtovg.DefaultCompositeOperationState()
	}
	key := pipelineKey{mode: mode, blend: blend}
	if pl, ok := r.res.pipelines[key]; ok {
		return pl, nil
	}

	writeMask := gputypes.ColorWriteMaskAll
	var blendPtr *gputypes.BlendState
	if mode.writesColor() {
		bs := translateBlendState(blend)
		blendPtr = &bs
	} else {
		writeMask = gputypes.ColorWriteMaskNone
	}

	pl, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("fill_pipeline_%d", mode),
		Layout: r.res.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.res.shader,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: vertexStride,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
						{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					},
				},
			},
		},
		Fragment: &hal.FragmentState{
			Module:     r.res.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					Blend:     blendPtr,
					WriteMask: writeMask,
				},
			},
		},
		DepthStencil: stencilState(mode),
		Multisample: gputypes.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline mode %d: %w", mode, err)
	}
	r.res.pipelines[key] = pl
	return pl, nil
}
