// Package render ties a layout engine (StringRenderer/NumberRenderer) to a
// backend sink (backend.GPU/backend.Image), implementing the
// AbstractRenderer composition described in spec.md §4.7.
package render

import (
	"github.com/glyphatlas/glyphatlas/fontbuilder"
	"github.com/glyphatlas/glyphatlas/glyph"
	"github.com/glyphatlas/glyphatlas/layout"
)

// Engine is the narrow slice of layout.StringRenderer/layout.NumberRenderer
// that AbstractRenderer drives: both satisfy this without modification.
type Engine interface {
	GenerateGeometry() []layout.Quad
	Clear()
	SetCanvasSize(w, h float32)
}

// Backend is the narrow slice of backend.GPU/backend.Image that
// AbstractRenderer drives, matching spec.md §4.4's produced interface.
type Backend interface {
	// UploadAtlas is called only when the packer reports a change since
	// the last frame.
	UploadAtlas(bytes []byte, w, h int, linearFilter bool) error

	// BeginEmit resets any per-frame accumulation state.
	BeginEmit()
	// EmitQuad appends one glyph quad; texW/texH give the atlas's current
	// dimensions for UV computation (ignored by backends with no texture).
	EmitQuad(q layout.Quad, texW, texH int)
	// FinishEmit uploads whatever EmitQuad accumulated (a GPU VBO upload;
	// a no-op for the Image backend, which blends eagerly).
	FinishEmit() error
	// QuadCount is the number of quads accumulated since BeginEmit.
	QuadCount() int

	// Draw issues the backend's draw call for the quads emitted this frame.
	Draw(quadCount int, preCb, postCb func()) error

	// NeedsRawData reports whether this backend reads glyph.Info.RawData
	// directly (the Image backend) rather than sampling a packed atlas
	// texture by Tx/Ty (the GPU backend). AbstractRenderer uses this to
	// decide whether a glyph whose bytes the atlas has already absorbed
	// needs forcing back through the rasterizer before this frame's emit.
	NeedsRawData() bool
}

// AbstractRenderer composes one Engine with one Backend and one
// fontbuilder.Builder, driving the rendering sequence from spec.md §4.7.
type AbstractRenderer struct {
	engine  Engine
	backend Backend
	builder *fontbuilder.Builder

	canvasW, canvasH float32
	axis             layout.AxisYOrigin
	caption          layout.CaptionConfig

	linearFilter bool
}

// New builds an AbstractRenderer over the given engine/backend/builder
// triple, with the initial canvas size and Y-axis origin convention.
func New(engine Engine, backend Backend, builder *fontbuilder.Builder, canvasW, canvasH float32, axis layout.AxisYOrigin) *AbstractRenderer {
	return &AbstractRenderer{
		engine:       engine,
		backend:      backend,
		builder:      builder,
		canvasW:      canvasW,
		canvasH:      canvasH,
		axis:         axis,
		linearFilter: true,
	}
}

// SetCaption stores the caption-mark glyph/offset so callers can inspect
// it through Caption (spec.md §4.7). It is not passed to the engine; a
// StringRenderer takes its own through StringRenderer.SetCaption.
func (ar *AbstractRenderer) SetCaption(c layout.CaptionConfig) { ar.caption = c }

// Caption returns the active caption configuration.
func (ar *AbstractRenderer) Caption() layout.CaptionConfig { return ar.caption }

// SetLinearFilter toggles LINEAR vs NEAREST atlas sampling on the next
// atlas upload.
func (ar *AbstractRenderer) SetLinearFilter(on bool) { ar.linearFilter = on }

// Clear discards the engine's accepted strings/numbers.
func (ar *AbstractRenderer) Clear() { ar.engine.Clear() }

// SwapCanvasWH swaps width and height, e.g. on a display rotation.
func (ar *AbstractRenderer) SwapCanvasWH() {
	ar.canvasW, ar.canvasH = ar.canvasH, ar.canvasW
	ar.engine.SetCanvasSize(ar.canvasW, ar.canvasH)
}

// SetCanvasSize updates the canvas dimensions used for coordinate
// normalization, visibility culling and axis flip. Invalidates cached
// anchored positions but not the accepted StringInfo/NumberInfo values
// themselves (spec.md §4.7, "Canvas changes").
func (ar *AbstractRenderer) SetCanvasSize(w, h float32) {
	ar.canvasW, ar.canvasH = w, h
	ar.engine.SetCanvasSize(w, h)
}

// Render runs the full sequence with no pre/post draw hooks.
func (ar *AbstractRenderer) Render() (bool, error) {
	return ar.RenderWithCallbacks(nil, nil)
}

// RenderWithCallbacks runs spec.md §4.7's rendering sequence:
//  1. generate_geometry() — early return if nothing changed; every
//     referenced glyph is rasterized as GenerateGeometry walks the
//     accepted strings/numbers (each walk calls GlyphSource.Request).
//  2. Pack the atlas; upload it if it changed.
//  3. Emit the vertex stream and upload it.
//  4. Backend draw().
//
// Returns whether every glyph was placed (false => AtlasFull for at least
// one glyph this frame, per spec.md §7); the frame still draws whatever
// was packed successfully.
func (ar *AbstractRenderer) RenderWithCallbacks(preCb, postCb func()) (allPlaced bool, err error) {
	quads := ar.engine.GenerateGeometry()

	atlasDirty, allPlaced := ar.builder.Pack()
	packer := ar.builder.Packer()

	if atlasDirty {
		if err := ar.backend.UploadAtlas(packer.TextureBytes(), packer.Width(), packer.Height(), ar.linearFilter); err != nil {
			return allPlaced, err
		}
	}

	needsRaw := ar.backend.NeedsRawData()
	packed := packer.PackedInfos()
	ar.backend.BeginEmit()
	for _, q := range quads {
		if q.Glyph == nil || glyph.IsWhitespace(q.Glyph.Code) {
			continue
		}

		if needsRaw && q.Glyph.RawData == nil {
			// The atlas already absorbed these bytes into its texture
			// (spec.md §3 lifecycle); a CPU backend that never reads the
			// texture needs them rasterized again.
			if g, err := ar.builder.Request(q.FontIndex, q.Glyph.Code); err == nil {
				q.Glyph = g
			}
		} else if !needsRaw {
			key := glyph.Key{FontIndex: q.FontIndex, Code: q.Glyph.Code}
			if _, ok := packed[key]; !ok {
				// AtlasFull or not-yet-packed this frame; Tx/Ty would be stale.
				continue
			}
		}
		ar.backend.EmitQuad(q, packer.Width(), packer.Height())
	}
	if err := ar.backend.FinishEmit(); err != nil {
		return allPlaced, err
	}

	if err := ar.backend.Draw(ar.backend.QuadCount(), preCb, postCb); err != nil {
		return allPlaced, err
	}
	return allPlaced, nil
}
