package shader

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/glyphatlas/glyphatlas/layout"
)

// SingleColorFontManager draws textured glyph quads where the whole batch
// shares one color uniform instead of a per-vertex attribute — cheaper
// for monochrome HUD text (spec.md §9).
type SingleColorFontManager struct {
	Program  uint32
	ColorLoc int32
	Color    layout.RGBA
}

func (m *SingleColorFontManager) VertsPerQuad() int { return 6 }

// Stride: position(2) + texcoord(2), no per-vertex color.
func (m *SingleColorFontManager) Stride() int { return 4 }

func (m *SingleColorFontManager) FillQuadData(screenMin, screenMax, uvMin, uvMax [2]float32, params layout.RenderParams, out []float32) []float32 {
	corners := [4][2]float32{
		{screenMin[0], screenMin[1]},
		{screenMax[0], screenMin[1]},
		{screenMax[0], screenMax[1]},
		{screenMin[0], screenMax[1]},
	}
	uvs := [4][2]float32{
		{uvMin[0], uvMin[1]},
		{uvMax[0], uvMin[1]},
		{uvMax[0], uvMax[1]},
		{uvMin[0], uvMax[1]},
	}
	order := [6]int{0, 1, 2, 0, 2, 3}
	for _, i := range order {
		out = append(out, corners[i][0], corners[i][1], uvs[i][0], uvs[i][1])
	}
	return out
}

func (m *SingleColorFontManager) PreRender() {
	gl.UseProgram(m.Program)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Uniform4f(m.ColorLoc, m.Color.R, m.Color.G, m.Color.B, m.Color.A)
}

func (m *SingleColorFontManager) Draw(quadCount int) {
	gl.DrawArrays(gl.TRIANGLES, 0, int32(quadCount*m.VertsPerQuad()))
}
