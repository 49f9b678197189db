package render

import (
	"testing"

	"github.com/glyphatlas/glyphatlas/atlas"
	"github.com/glyphatlas/glyphatlas/fontbuilder"
	"github.com/glyphatlas/glyphatlas/fontcache"
	"github.com/glyphatlas/glyphatlas/glyph"
	"github.com/glyphatlas/glyphatlas/layout"
)

// fakeEngine returns a fixed quad stream and tracks Clear/SetCanvasSize calls.
type fakeEngine struct {
	quads        []layout.Quad
	cleared      bool
	lastW, lastH float32
}

func (e *fakeEngine) GenerateGeometry() []layout.Quad { return e.quads }
func (e *fakeEngine) Clear()                          { e.cleared = true }
func (e *fakeEngine) SetCanvasSize(w, h float32)       { e.lastW, e.lastH = w, h }

// fakeBackend records every call AbstractRenderer makes, standing in for
// either backend.GPU (needsRaw=false) or backend.Image (needsRaw=true).
type fakeBackend struct {
	needsRaw bool

	uploadCalls int
	emitted     []layout.Quad
	finishCalls int
	drawCalls   int
	lastQuadArg int
}

func (b *fakeBackend) UploadAtlas(bytes []byte, w, h int, linearFilter bool) error {
	b.uploadCalls++
	return nil
}
func (b *fakeBackend) BeginEmit()                               { b.emitted = nil }
func (b *fakeBackend) EmitQuad(q layout.Quad, texW, texH int)    { b.emitted = append(b.emitted, q) }
func (b *fakeBackend) FinishEmit() error                         { b.finishCalls++; return nil }
func (b *fakeBackend) QuadCount() int                            { return len(b.emitted) }
func (b *fakeBackend) Draw(n int, preCb, postCb func()) error {
	b.drawCalls++
	b.lastQuadArg = n
	if preCb != nil {
		preCb()
	}
	if postCb != nil {
		postCb()
	}
	return nil
}
func (b *fakeBackend) NeedsRawData() bool { return b.needsRaw }

func newTestBuilder(t *testing.T) *fontbuilder.Builder {
	t.Helper()
	return fontbuilder.New(fontbuilder.Settings{
		TexW: 64, TexH: 64, Method: atlas.Tight,
	}, fontcache.New(), nil)
}

func TestRenderWithNoQuadsStillDraws(t *testing.T) {
	engine := &fakeEngine{}
	be := &fakeBackend{}
	ar := New(engine, be, newTestBuilder(t), 800, 600, layout.AxisTop)

	ok, err := ar.Render()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected allPlaced=true with nothing to pack")
	}
	if be.drawCalls != 1 {
		t.Fatalf("expected exactly one Draw call, got %d", be.drawCalls)
	}
	if be.uploadCalls != 0 {
		t.Fatalf("expected no atlas upload when nothing changed, got %d", be.uploadCalls)
	}
	if be.finishCalls != 1 {
		t.Fatalf("expected FinishEmit called once, got %d", be.finishCalls)
	}
}

func TestRenderSkipsUnpackedGlyphForGPUBackend(t *testing.T) {
	// A glyph that was never Request()-ed through this builder's packer has
	// no PackedInfo; a GPU-style backend (needsRaw=false) must skip it
	// rather than emit with stale/zero Tx,Ty.
	g := &glyph.Info{Code: 'Z', BmpW: 4, BmpH: 4}
	engine := &fakeEngine{quads: []layout.Quad{{FontIndex: 0, Glyph: g, W: 4, H: 4}}}
	be := &fakeBackend{needsRaw: false}
	ar := New(engine, be, newTestBuilder(t), 800, 600, layout.AxisTop)

	if _, err := ar.Render(); err != nil {
		t.Fatal(err)
	}
	if len(be.emitted) != 0 {
		t.Fatalf("expected unpacked glyph to be skipped, got %d emitted", len(be.emitted))
	}
}

func TestRenderEmitsWhitespaceNever(t *testing.T) {
	g := &glyph.Info{Code: ' ', BmpW: 0, BmpH: 0}
	engine := &fakeEngine{quads: []layout.Quad{{FontIndex: 0, Glyph: g}}}
	be := &fakeBackend{needsRaw: true}
	ar := New(engine, be, newTestBuilder(t), 800, 600, layout.AxisTop)

	if _, err := ar.Render(); err != nil {
		t.Fatal(err)
	}
	if len(be.emitted) != 0 {
		t.Fatalf("expected whitespace glyph never emitted, got %d", len(be.emitted))
	}
}

func TestSetCanvasSizeForwardsToEngine(t *testing.T) {
	engine := &fakeEngine{}
	be := &fakeBackend{}
	ar := New(engine, be, newTestBuilder(t), 800, 600, layout.AxisTop)

	ar.SetCanvasSize(1024, 768)
	if engine.lastW != 1024 || engine.lastH != 768 {
		t.Fatalf("expected engine to receive new canvas size, got %v,%v", engine.lastW, engine.lastH)
	}

	ar.SwapCanvasWH()
	if engine.lastW != 768 || engine.lastH != 1024 {
		t.Fatalf("expected SwapCanvasWH to flip dims, got %v,%v", engine.lastW, engine.lastH)
	}
}

func TestClearForwardsToEngine(t *testing.T) {
	engine := &fakeEngine{}
	be := &fakeBackend{}
	ar := New(engine, be, newTestBuilder(t), 800, 600, layout.AxisTop)

	ar.Clear()
	if !engine.cleared {
		t.Fatal("expected Clear to forward to the engine")
	}
}
