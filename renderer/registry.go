package renderer

import "sync"

// Well-known backend names.
const (
	// BackendWGPU is the hardware-accelerated backend.
	BackendWGPU = "wgpu"
	// BackendSoftware is the CPU reference backend.
	BackendSoftware = "software"
	// BackendVoid is the discard backend.
	BackendVoid = "void"
)

// Factory creates a new Renderer instance.
type Factory func() Renderer

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for Default (first available wins).
	priority = []string{BackendWGPU, BackendSoftware, BackendVoid}
)

// Register registers a renderer factory under the given name. This is
// typically called from init() functions in backend packages. A factory
// registered under an existing name replaces it.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether a backend with the given name exists.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns a new renderer by backend name, or nil if the name is not
// registered.
func Get(name string) Renderer {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// Default returns a renderer from the best available backend, preferring
// hardware acceleration, or nil if nothing is registered.
func Default() Renderer {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range priority {
		if factory, ok := factories[name]; ok {
			if r := factory(); r != nil {
				return r
			}
		}
	}
	// Fall back to any registered backend.
	for _, factory := range factories {
		if r := factory(); r != nil {
			return r
		}
	}
	return nil
}
