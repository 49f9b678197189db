// Package shader implements the tagged-variant ShaderManager design: the
// teacher's original per-shader virtual-inheritance hierarchy replaced by
// one Manager interface with four concrete variants (DefaultFont,
// SingleColorFont, Background, SingleColorBackground).
package shader

import "github.com/glyphatlas/glyphatlas/layout"

// Variant names one of the four ShaderManager kinds.
type Variant int

const (
	DefaultFont Variant = iota
	SingleColorFont
	Background
	SingleColorBackground
)

// Manager is the narrow interface every variant implements: enough for a
// backend to fill vertex data and issue the right draw call without
// knowing which variant is active.
type Manager interface {
	// VertsPerQuad is the number of vertices draw() issues per quad: 6 for
	// the two-triangle font quads, more for a rounded-corner background
	// fan.
	VertsPerQuad() int

	// Stride is the per-vertex float count this variant writes.
	Stride() int

	// FillQuadData appends one quad's vertex floats to out: screenMin/Max
	// are the quad's on-screen corners, uvMin/Max its atlas texture-space
	// corners (ignored by the background variants, which have no
	// texture). Returns the grown slice, matching append's convention.
	FillQuadData(screenMin, screenMax, uvMin, uvMax [2]float32, params layout.RenderParams, out []float32) []float32

	// PreRender is called once before the draw call batch: binds the
	// program, enables blending and, for the single-color variants, sets
	// the color uniform.
	PreRender()

	// Draw issues the variant's draw call for quadCount quads.
	Draw(quadCount int)
}

// BackgroundSettings configures the two background variants (spec.md §3).
type BackgroundSettings struct {
	PaddingPx     float32
	CornerRadius  float32
	Shadow        bool
	Color         *layout.RGBA
}
