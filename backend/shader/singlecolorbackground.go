package shader

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/glyphatlas/glyphatlas/layout"
)

// SingleColorBackgroundManager is BackgroundManager's uniform-color
// sibling: one Color/ColorLoc uniform shared by the whole batch instead of
// a per-vertex attribute, matching original_source's
// SingleColorBackgroundShaderManager.
type SingleColorBackgroundManager struct {
	Program      uint32
	ColorLoc     int32
	Settings     BackgroundSettings
	firstScratch []int32
	countScratch []int32
}

func (m *SingleColorBackgroundManager) VertsPerQuad() int { return fanVertexCount }

// Stride: position(2) only; color comes from the uniform.
func (m *SingleColorBackgroundManager) Stride() int { return 2 }

func (m *SingleColorBackgroundManager) FillQuadData(screenMin, screenMax, _, _ [2]float32, _ layout.RenderParams, out []float32) []float32 {
	cx := (screenMin[0] + screenMax[0]) / 2
	cy := (screenMin[1] + screenMax[1]) / 2
	out = append(out, cx, cy)

	pts := roundedRectPoints(screenMin, screenMax, m.Settings.CornerRadius)
	for _, p := range pts {
		out = append(out, p[0], p[1])
	}
	out = append(out, pts[0][0], pts[0][1])
	return out
}

func (m *SingleColorBackgroundManager) PreRender() {
	gl.UseProgram(m.Program)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	c := layout.RGBA{R: 0, G: 0, B: 0, A: 1}
	if m.Settings.Color != nil {
		c = *m.Settings.Color
	}
	gl.Uniform4f(m.ColorLoc, c.R, c.G, c.B, c.A)
}

func (m *SingleColorBackgroundManager) Draw(quadCount int) {
	if quadCount <= 0 {
		return
	}
	if cap(m.firstScratch) < quadCount {
		m.firstScratch = make([]int32, quadCount)
		m.countScratch = make([]int32, quadCount)
	}
	m.firstScratch = m.firstScratch[:quadCount]
	m.countScratch = m.countScratch[:quadCount]
	for i := 0; i < quadCount; i++ {
		m.firstScratch[i] = int32(i * fanVertexCount)
		m.countScratch[i] = int32(fanVertexCount)
	}
	gl.MultiDrawArrays(gl.TRIANGLE_FAN, &m.firstScratch[0], &m.countScratch[0], int32(quadCount))
}
