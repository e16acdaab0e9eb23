package wgpu

import "github.com/gogpu/gpucontext"

// DeviceProvider is the host integration point for applications that
// already own a GPU device. It aliases the gpucontext provider
// interface so any gpucontext-compatible host (a gogpu App, for
// example) plugs in directly.
//
// The renderer needs the wgpu hardware abstraction layer underneath,
// so the provider's concrete type must additionally expose HalDevice()
// and HalQueue(); providers backed by other GPU stacks are rejected.
type DeviceProvider = gpucontext.DeviceProvider

// NewFromContext creates a renderer on a host-owned device obtained
// through the gpucontext provider contract. The host retains device
// ownership; Close leaves the device alive.
func NewFromContext(provider DeviceProvider) (*Renderer, error) {
	return NewWithProvider(provider)
}
