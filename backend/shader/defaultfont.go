package shader

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/glyphatlas/glyphatlas/layout"
)

// DefaultFontManager draws textured glyph quads with a per-vertex tint,
// the common case for text (spec.md §9, "DefaultFont" variant).
type DefaultFontManager struct {
	Program uint32
}

func (m *DefaultFontManager) VertsPerQuad() int { return 6 }

// Stride: position(2) + texcoord(2) + color(4).
func (m *DefaultFontManager) Stride() int { return 8 }

func (m *DefaultFontManager) FillQuadData(screenMin, screenMax, uvMin, uvMax [2]float32, params layout.RenderParams, out []float32) []float32 {
	c := params.Color
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
	// Two triangles: (0,1,2) and (0,2,3).
	order := [6]int{0, 1, 2, 0, 2, 3}
	for _, i := range order {
		out = append(out, corners[i][0], corners[i][1], uvs[i][0], uvs[i][1], c.R, c.G, c.B, c.A)
	}
	return out
}

func (m *DefaultFontManager) PreRender() {
	gl.UseProgram(m.Program)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

func (m *DefaultFontManager) Draw(quadCount int) {
	gl.DrawArrays(gl.TRIANGLES, 0, int32(quadCount*m.VertsPerQuad()))
}
