// Command glyphatlasdemo opens a GLFW window and renders a handful of
// strings through the full pipeline: fontbuilder rasterizes on demand,
// atlas packs into one texture, layout lays out the strings, and the GPU
// backend draws them every frame (glsymbol_test.go's GLFW loop, adapted).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/glyphatlas/glyphatlas/atlas"
	"github.com/glyphatlas/glyphatlas/backend"
	"github.com/glyphatlas/glyphatlas/backend/shader"
	"github.com/glyphatlas/glyphatlas/fontbuilder"
	"github.com/glyphatlas/glyphatlas/fontcache"
	"github.com/glyphatlas/glyphatlas/layout"
	"github.com/glyphatlas/glyphatlas/render"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	fontPath := flag.String("font", "ProggyClean.ttf", "path to a TrueType/OpenType font")
	text := flag.String("text", "Hello, glyph atlas", "string to render")
	flag.Parse()

	if err := run(*fontPath, *text); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fontPath, text string) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(800, 600, "glyphatlasdemo", nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}
	glfw.SwapInterval(1)

	logger := log.New(os.Stderr, "glyphatlasdemo: ", 0)
	builder := fontbuilder.New(fontbuilder.Settings{
		Fonts: []fontbuilder.FontSpec{
			{Name: "main", Path: fontPath, Size: fontbuilder.FontSize{Unit: fontbuilder.UnitPx, Value: 18}},
		},
		TexW:   512,
		TexH:   512,
		Border: 1,
		Method: atlas.Tight,
	}, fontcache.New(), logger)
	if builder.FontCount() == 0 {
		return fmt.Errorf("no fonts loaded from %q", fontPath)
	}

	program, err := compileProgram(defaultFontVertexShader, defaultFontFragmentShader)
	if err != nil {
		return fmt.Errorf("compile shader: %w", err)
	}
	screenSizeLoc := gl.GetUniformLocation(program, gl.Str("screenSize\x00"))
	gl.UseProgram(program)
	gl.Uniform1i(gl.GetUniformLocation(program, gl.Str("atlasTex\x00")), 0)

	mgr := &shader.DefaultFontManager{Program: program}

	gpu, err := backend.NewGPU(mgr)
	if err != nil {
		return fmt.Errorf("new gpu backend: %w", err)
	}
	defer gpu.Close()

	strRenderer := layout.NewStringRenderer(builder, 0, 800, 600, layout.AxisDown)
	strRenderer.AddString(text, 20, 40, layout.RenderParams{Color: layout.RGBA{R: 1, G: 1, B: 1, A: 1}, Scale: 1}, layout.AnchorLeftTop, layout.AlignLeft, layout.TypeText)

	renderer := render.New(strRenderer, gpu, builder, 800, 600, layout.AxisDown)

	for !window.ShouldClose() {
		glfw.PollEvents()

		w, h := window.GetSize()
		if w < 10 || h < 10 {
			continue
		}
		if float32(w) != 800 || float32(h) != 600 {
			renderer.SetCanvasSize(float32(w), float32(h))
		}

		gl.Viewport(0, 0, int32(w), int32(h))
		gl.ClearColor(0.1, 0.1, 0.12, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		setScreenSize := func() { gl.Uniform2f(screenSizeLoc, float32(w), float32(h)) }
		if _, err := renderer.RenderWithCallbacks(setScreenSize, nil); err != nil {
			logger.Printf("render: %v", err)
		}

		window.SwapBuffers()
	}
	return nil
}

const defaultFontVertexShader = `
#version 330 core
layout (location = 0) in vec2 inPos;
layout (location = 1) in vec2 inUV;
layout (location = 2) in vec4 inColor;
uniform vec2 screenSize;
out vec2 fragUV;
out vec4 fragColor;
void main() {
	vec2 ndc = vec2(inPos.x / screenSize.x * 2.0 - 1.0, 1.0 - inPos.y / screenSize.y * 2.0);
	gl_Position = vec4(ndc, 0.0, 1.0);
	fragUV = inUV;
	fragColor = inColor;
}
` + "\x00"

const defaultFontFragmentShader = `
#version 330 core
in vec2 fragUV;
in vec4 fragColor;
out vec4 outColor;
uniform sampler2D atlasTex;
void main() {
	float coverage = texture(atlasTex, fragUV).r;
	outColor = vec4(fragColor.rgb, fragColor.a * coverage);
}
` + "\x00"

// compileProgram builds and links a vertex+fragment program (adapted from
// the style used across the pack's OpenGL examples).
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(infoLog))
		return 0, fmt.Errorf("link program: %s", infoLog)
	}
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(sh, logLength, nil, gl.Str(infoLog))
		return 0, fmt.Errorf("compile shader: %s", infoLog)
	}
	return sh, nil
}
