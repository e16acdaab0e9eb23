// Package wgpu provides the hardware-accelerated renderer on top of
// the wgpu hardware abstraction layer. Frames render into an offscreen
// 4x MSAA color target with a combined depth/stencil attachment; the
// stencil component carries path winding for concave fills and the
// overlap guard for stencilled strokes. The MSAA target resolves into
// a single-sample texture that Screenshot reads back.
//
// The renderer either shares a device with a host application through
// a device provider or opens its own Vulkan device.
package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/DasLixou/femtovg"
	"github.com/DasLixou/femtovg/renderer"
)

func init() {
	renderer.Register(renderer.BackendWGPU, func() renderer.Renderer {
		r, err := New()
		if err != nil {
			femtovg.Logger().Debug("wgpu backend unavailable", "error", err)
			return nil
		}
		return r
	})
}

// ErrNoAdapter is returned when no GPU adapter can be opened.
var ErrNoAdapter = errors.New("wgpu: no GPU adapter available")

// Renderer executes the command set on a GPU device.
type Renderer struct {
	device hal.Device
	queue  hal.Queue

	// instance is set only when the renderer opened its own device.
	instance  hal.Instance
	ownDevice bool

	width  uint32
	height uint32
	dpi    float32

	textures frameTextures
	res      *pipelineResources

	nextID femtovg.ImageID
	images map[femtovg.ImageID]*gpuTexture
}

// New opens a standalone Vulkan device and creates a renderer on it.
// Hosts that already own a device should use NewWithProvider or
// NewWithDevice instead.
func New() (*Renderer, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not compiled in", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}

	r := NewWithDevice(openDev.Device, openDev.Queue)
	r.instance = instance
	r.ownDevice = true
	femtovg.Logger().Info("wgpu renderer initialized", "adapter", selected.Info.Name)
	return r, nil
}

// NewWithProvider creates a renderer on a host-owned device. The
// provider must expose HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func NewWithProvider(provider any) (*Renderer, error) {
	hp, ok := provider.(interface {
		HalDevice() any
		HalQueue() any
	})
	if !ok {
		return nil, errors.New("wgpu: provider does not expose a hal device")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, errors.New("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, errors.New("wgpu: provider HalQueue is not hal.Queue")
	}
	return NewWithDevice(device, queue), nil
}

// NewWithDevice creates a renderer on the given device and queue. The
// caller retains ownership of both.
func NewWithDevice(device hal.Device, queue hal.Queue) *Renderer {
	return &Renderer{
		device: device,
		queue:  queue,
		nextID: 1,
		images: make(map[femtovg.ImageID]*gpuTexture),
	}
}

// SetSize records the surface dimensions. GPU targets are (re)created
// lazily on the next Render.
func (r *Renderer) SetSize(width, height uint32, dpi float32) {
	r.width = width
	r.height = height
	r.dpi = dpi
}

// Close releases all GPU resources. Images become invalid. If the
// renderer opened its own device it is destroyed as well.
func (r *Renderer) Close() {
	for id := range r.images {
		r.DeleteImage(id)
	}
	r.textures.destroy(r.device)
	if r.res != nil {
		r.res.destroy(r.device)
		r.res = nil
	}
	if r.ownDevice && r.device != nil {
		r.device.Destroy()
	}
	r.device = nil
	r.queue = nil
	r.instance = nil
}
