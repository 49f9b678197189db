// Package backend implements the two concrete sinks a render.AbstractRenderer
// can draw into: GPU (OpenGL) and Image (CPU compositing), both satisfying
// the render.Backend interface.
package backend

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/glyphatlas/glyphatlas/backend/shader"
	"github.com/glyphatlas/glyphatlas/layout"
)

// checkGLError returns an opengl error if one exists (glsymbol.checkGLError).
func checkGLError() error {
	errno := gl.GetError()
	if errno == gl.NO_ERROR {
		return nil
	}
	return fmt.Errorf("GL error: %d", errno)
}

// GPU is the OpenGL backend: texture upload, VBO/VAO upload, draw. It owns
// one atlas texture and one dynamic vertex buffer, reused across frames
// (spec.md §4.4).
type GPU struct {
	Manager shader.Manager

	texture uint32
	vao     uint32
	vbo     uint32

	texW, texH int32
	vboCap     int // current VBO capacity, in floats

	vertexBuf []float32
	quadCount int
}

// NewGPU allocates the texture, VAO and VBO names. Must be called with a
// current GL context.
func NewGPU(m shader.Manager) (*GPU, error) {
	g := &GPU{Manager: m}

	gl.GenTextures(1, &g.texture)
	gl.BindTexture(gl.TEXTURE_2D, g.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenVertexArrays(1, &g.vao)
	gl.GenBuffers(1, &g.vbo)

	if err := checkGLError(); err != nil {
		return nil, fmt.Errorf("backend: NewGPU: %w", err)
	}
	return g, nil
}

// UploadAtlas re-uploads the packed atlas bitmap. bytes is a tightly packed
// w*h 8-bit grayscale (coverage) buffer; linearFilter selects LINEAR over
// NEAREST sampling (spec.md §4.4, atlas_upload).
func (g *GPU) UploadAtlas(bytes []byte, w, h int, linearFilter bool) error {
	filter := int32(gl.NEAREST)
	if linearFilter {
		filter = gl.LINEAR
	}

	gl.BindTexture(gl.TEXTURE_2D, g.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)

	var pix unsafe.Pointer
	if len(bytes) > 0 {
		pix = gl.Ptr(bytes)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RED, int32(w), int32(h), 0, gl.RED, gl.UNSIGNED_BYTE, pix)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	g.texW, g.texH = int32(w), int32(h)
	return checkGLError()
}

// BeginEmit resets the per-frame vertex accumulator (render.Backend).
func (g *GPU) BeginEmit() {
	g.vertexBuf = g.vertexBuf[:0]
	g.quadCount = 0
}

// EmitQuad appends one glyph quad's vertex data, computing its atlas UV
// corners from the glyph's current packed position (render.Backend).
func (g *GPU) EmitQuad(q layout.Quad, texW, texH int) {
	if texW == 0 || texH == 0 {
		return
	}
	fw, fh := float32(texW), float32(texH)
	uvMin := [2]float32{float32(q.Glyph.Tx) / fw, float32(q.Glyph.Ty) / fh}
	uvMax := [2]float32{float32(q.Glyph.Tx+q.Glyph.BmpW) / fw, float32(q.Glyph.Ty+q.Glyph.BmpH) / fh}
	screenMin := [2]float32{q.X, q.Y}
	screenMax := [2]float32{q.X + q.W, q.Y + q.H}
	g.vertexBuf = g.Manager.FillQuadData(screenMin, screenMax, uvMin, uvMax, q.Params, g.vertexBuf)
	g.quadCount++
}

// FinishEmit uploads the accumulated vertex buffer (render.Backend).
func (g *GPU) FinishEmit() error { return g.GeometryUpload(g.vertexBuf) }

// QuadCount returns the number of quads accumulated since BeginEmit
// (render.Backend).
func (g *GPU) QuadCount() int { return g.quadCount }

// GeometryUpload re-uploads the layout engine's emitted vertex stream
// (spec.md §4.4, geometry_upload). Grows the VBO's backing store only when
// the new stream is larger than the current allocation.
func (g *GPU) GeometryUpload(floats []float32) error {
	gl.BindVertexArray(g.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)

	if len(floats) > g.vboCap {
		gl.BufferData(gl.ARRAY_BUFFER, len(floats)*4, gl.Ptr(floats), gl.DYNAMIC_DRAW)
		g.vboCap = len(floats)
	} else if len(floats) > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(floats)*4, gl.Ptr(floats))
	}

	g.bindAttribs()
	gl.BindVertexArray(0)
	return checkGLError()
}

// bindAttribs wires the vertex attribute layout for the active shader
// manager's stride. Attribute 0 is always position (vec2); attribute 1 is
// texcoord (vec2) for textured variants, or color (vec4) for the untextured
// per-vertex-color background (stride 6); attribute 2 is color (vec4) for
// the per-vertex-color font variant (stride 8), matching each Manager's
// Stride().
func (g *GPU) bindAttribs() {
	stride := int32(g.Manager.Stride()) * 4
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)

	if g.Manager.Stride() == 6 {
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointerWithOffset(1, 4, gl.FLOAT, false, stride, 2*4)
		return
	}
	if g.Manager.Stride() > 2 {
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 2*4)
	}
	if g.Manager.Stride() > 4 {
		gl.EnableVertexAttribArray(2)
		gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, stride, 4*4)
	}
}

// Draw binds the VAO/texture, runs preCb (caller hook, e.g. uniform
// updates), then the active shader manager's PreRender/Draw (spec.md §4.4,
// draw(quads_count, pre_cb, post_cb)). postCb runs after the draw call;
// either callback may be nil.
func (g *GPU) Draw(quadCount int, preCb, postCb func()) error {
	gl.BindVertexArray(g.vao)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, g.texture)

	if preCb != nil {
		preCb()
	}
	g.Manager.PreRender()
	g.Manager.Draw(quadCount)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindVertexArray(0)
	if postCb != nil {
		postCb()
	}
	return checkGLError()
}

// NeedsRawData is false: GPU samples the packed atlas texture by Tx/Ty and
// never reads glyph.Info.RawData directly (render.Backend).
func (g *GPU) NeedsRawData() bool { return false }

// Close releases the GL objects this backend owns.
func (g *GPU) Close() {
	gl.DeleteTextures(1, &g.texture)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteVertexArrays(1, &g.vao)
}
