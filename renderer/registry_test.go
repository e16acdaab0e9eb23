package renderer

import (
	"image"
	"testing"

	"github.com/DasLixou/femtovg"
)

// stubRenderer is a minimal Renderer used only to exercise the registry.
type stubRenderer struct{ name string }

func (s *stubRenderer) SetSize(width, height uint32, dpi float32) {}
func (s *stubRenderer) Render(verts []Vertex, commands []Command)  {}
func (s *stubRenderer) CreateImage(img image.Image, flags femtovg.ImageFlags) (femtovg.ImageID, error) {
	return 0, ErrUnsupportedImageFormat
}
func (s *stubRenderer) UpdateImage(id femtovg.ImageID, img image.Image, x, y uint32) {}
func (s *stubRenderer) DeleteImage(id femtovg.ImageID)                               {}
func (s *stubRenderer) TextureFlags(id femtovg.ImageID) femtovg.ImageFlags           { return 0 }
func (s *stubRenderer) TextureSize(id femtovg.ImageID) (uint32, uint32)              { return 0, 0 }
func (s *stubRenderer) TextureType(id femtovg.ImageID) TextureType                   { return TextureNone }
func (s *stubRenderer) Screenshot() image.Image                                      { return nil }

func TestRegistry(t *testing.T) {
	Register("stub", func() Renderer { return &stubRenderer{name: "stub"} })
	defer Unregister("stub")

	if !IsRegistered("stub") {
		t.Fatal("stub backend not registered")
	}

	r := Get("stub")
	if r == nil {
		t.Fatal("Get(stub) = nil")
	}
	if _, ok := r.(*stubRenderer); !ok {
		t.Errorf("Get(stub) = %T, want *stubRenderer", r)
	}

	if Get("missing") != nil {
		t.Error("Get(missing) != nil")
	}

	found := false
	for _, name := range Available() {
		if name == "stub" {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, missing stub", Available())
	}
}

func TestRegistryUnregister(t *testing.T) {
	Register("temp", func() Renderer { return &stubRenderer{} })
	Unregister("temp")
	if IsRegistered("temp") {
		t.Error("temp backend still registered after Unregister")
	}
}

func TestDefaultPriority(t *testing.T) {
	// With both software and void registered, software wins.
	Register(BackendSoftware, func() Renderer { return &stubRenderer{name: BackendSoftware} })
	Register(BackendVoid, func() Renderer { return &stubRenderer{name: BackendVoid} })
	defer Unregister(BackendSoftware)
	defer Unregister(BackendVoid)

	r := Default()
	if r == nil {
		t.Fatal("Default() = nil with registered backends")
	}
	stub, ok := r.(*stubRenderer)
	if !ok {
		t.Fatalf("Default() = %T, want *stubRenderer", r)
	}
	if stub.name != BackendSoftware {
		t.Errorf("Default() picked %q, want %q", stub.name, BackendSoftware)
	}
}
