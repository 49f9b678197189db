//go:build gpuintegration

package backend

import (
	"runtime"
	"testing"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/glyphatlas/glyphatlas/backend/shader"
	"github.com/glyphatlas/glyphatlas/render"
)

// This file mirrors glsymbol_test.go's GLFW-window-driven smoke test: it
// only runs where a GL context is available, gated behind the
// gpuintegration build tag so the default `go test ./...` never needs one.

func init() {
	runtime.LockOSThread()
}

func TestGPUUploadAndDrawAgainstRealContext(t *testing.T) {
	if err := glfw.Init(); err != nil {
		t.Fatalf("glfw init: %v", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(64, 64, "gpu-integration", nil, nil)
	if err != nil {
		t.Fatalf("create window: %v", err)
	}
	defer window.Destroy()
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		t.Fatalf("gl init: %v", err)
	}

	g, err := NewGPU(&shader.SingleColorFontManager{})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	// Drive it through the render.Backend interface, not the concrete type,
	// so a signature drift between GPU and the interface fails here too.
	var be render.Backend = g

	coverage := make([]byte, 8*8)
	for i := range coverage {
		coverage[i] = 0xFF
	}
	if err := be.UploadAtlas(coverage, 8, 8, false); err != nil {
		t.Fatalf("atlas upload: %v", err)
	}

	be.BeginEmit()
	if err := be.FinishEmit(); err != nil {
		t.Fatalf("finish emit with 0 quads: %v", err)
	}
	if err := be.Draw(be.QuadCount(), nil, nil); err != nil {
		t.Fatalf("draw with 0 quads: %v", err)
	}
}
