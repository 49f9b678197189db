package shader

import (
	"math"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/glyphatlas/glyphatlas/layout"
)

// cornerSegments is the tessellation used to approximate a rounded
// corner; 8 segments per corner keeps HUD-scale backgrounds smooth
// without blowing up vertex counts.
const cornerSegments = 8

// fanVertexCount is 1 center vertex, 4*(cornerSegments+1) perimeter
// vertices, plus a closing vertex back to the first perimeter point.
const fanVertexCount = 1 + 4*(cornerSegments+1) + 1

// BackgroundManager draws a rounded-corner quad as a TRIANGLE_FAN, one
// draw call per background batched via multi_draw_arrays (original_source
// FontCreator/Backends BackendBackgroundOpenGL; spec.md §9 design note).
type BackgroundManager struct {
	Program      uint32
	Settings     shaderBackgroundSettings
	firstScratch []int32
	countScratch []int32
}

// shaderBackgroundSettings mirrors BackgroundSettings to avoid an import
// cycle concern; constructed from shader.BackgroundSettings by the caller.
type shaderBackgroundSettings = BackgroundSettings

func (m *BackgroundManager) VertsPerQuad() int { return fanVertexCount }

// Stride: position(2) + color(4); no texcoord (backgrounds are untextured).
func (m *BackgroundManager) Stride() int { return 6 }

func (m *BackgroundManager) FillQuadData(screenMin, screenMax, _, _ [2]float32, params layout.RenderParams, out []float32) []float32 {
	c := params.Color
	if m.Settings.Color != nil {
		c = *m.Settings.Color
	}
	cx := (screenMin[0] + screenMax[0]) / 2
	cy := (screenMin[1] + screenMax[1]) / 2
	out = append(out, cx, cy, c.R, c.G, c.B, c.A)

	pts := roundedRectPoints(screenMin, screenMax, m.Settings.CornerRadius)
	for _, p := range pts {
		out = append(out, p[0], p[1], c.R, c.G, c.B, c.A)
	}
	out = append(out, pts[0][0], pts[0][1], c.R, c.G, c.B, c.A)
	return out
}

// roundedRectPoints walks the four corners of [min,max], replacing each
// sharp corner with cornerSegments+1 points along its arc (both arc ends
// included; the straight edges join one corner's end to the next one's
// start).
func roundedRectPoints(min, max [2]float32, radius float32) [][2]float32 {
	w := max[0] - min[0]
	h := max[1] - min[1]
	r := radius
	if maxR := float32(math.Min(float64(w), float64(h))) / 2; r > maxR {
		r = maxR
	}
	if r < 0 {
		r = 0
	}

	type centerAngles struct {
		cx, cy     float32
		startAngle float64
	}
	corners := []centerAngles{
		{min[0] + r, min[1] + r, math.Pi},            // top-left
		{max[0] - r, min[1] + r, 1.5 * math.Pi},       // top-right
		{max[0] - r, max[1] - r, 0},                   // bottom-right
		{min[0] + r, max[1] - r, 0.5 * math.Pi},       // bottom-left
	}

	var pts [][2]float32
	for _, c := range corners {
		for i := 0; i <= cornerSegments; i++ {
			angle := c.startAngle + float64(i)/float64(cornerSegments)*(math.Pi/2)
			x := c.cx + r*float32(math.Cos(angle))
			y := c.cy + r*float32(math.Sin(angle))
			pts = append(pts, [2]float32{x, y})
		}
	}
	return pts
}

func (m *BackgroundManager) PreRender() {
	gl.UseProgram(m.Program)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

// Draw issues one TRIANGLE_FAN per background, batched through
// MultiDrawArrays since every fan has the same fixed vertex count.
func (m *BackgroundManager) Draw(quadCount int) {
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
