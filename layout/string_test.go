package layout

import (
	"fmt"
	"testing"

	"github.com/glyphatlas/glyphatlas/glyph"
)

// fakeSource is a minimal GlyphSource: every code point is a 6x8 box with
// a fixed advance, rasterized on first Request and cached like the real
// fontbuilder.Builder.
type fakeSource struct {
	glyphs  map[rune]*glyph.Info
	nlOff   int
	maxPx   int
	reqErr  map[rune]bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{glyphs: make(map[rune]*glyph.Info), nlOff: 20, maxPx: 16}
}

func (f *fakeSource) Request(fontIndex int, code rune) (*glyph.Info, error) {
	if f.reqErr[code] {
		return nil, fmt.Errorf("fake: no glyph for %q", code)
	}
	if g, ok := f.glyphs[code]; ok {
		return g, nil
	}
	g := &glyph.Info{Code: code, BmpW: 6, BmpH: 8, BmpX: 0, BmpY: -8, Adv: 10 * 64, FontIndex: fontIndex}
	f.glyphs[code] = g
	return g, nil
}

func (f *fakeSource) NewLineOffset() int { return f.nlOff }
func (f *fakeSource) MaxFontPx() int     { return f.maxPx }

func TestAddStringDedup(t *testing.T) {
	src := newFakeSource()
	r := NewStringRenderer(src, 0, 800, 600, AxisTop)

	if !r.AddString("hello", 10, 10, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText) {
		t.Fatal("expected first add to succeed")
	}
	if r.AddString("hello", 10, 10, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText) {
		t.Fatal("expected identical add to be rejected as duplicate")
	}
	if r.Count() != 1 {
		t.Fatalf("expected 1 accepted string, got %d", r.Count())
	}
}

func TestAddStringVisibilityCulling(t *testing.T) {
	src := newFakeSource()
	r := NewStringRenderer(src, 0, 100, 100, AxisTop)

	if r.AddString("offscreen", 10000, 10000, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText) {
		t.Fatal("expected far-offscreen string to be culled")
	}
	if !r.AddString("onscreen", 10, 10, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText) {
		t.Fatal("expected onscreen string to be accepted")
	}
}

func TestAddStringDeadzone(t *testing.T) {
	src := newFakeSource()
	r := NewStringRenderer(src, 0, 800, 600, AxisTop)
	r.SetDeadzoneRadius(50)

	if !r.AddString("a", 100, 100, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText) {
		t.Fatal("expected first point to be accepted")
	}
	if r.AddString("b", 110, 110, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText) {
		t.Fatal("expected nearby point to be rejected by deadzone")
	}
	if !r.AddString("c", 500, 500, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText) {
		t.Fatal("expected far point to be accepted")
	}
}

func TestGenerateGeometryIdempotent(t *testing.T) {
	src := newFakeSource()
	r := NewStringRenderer(src, 0, 800, 600, AxisTop)
	r.AddString("hi", 10, 10, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText)

	first := r.GenerateGeometry()
	second := r.GenerateGeometry()
	if len(first) != len(second) {
		t.Fatalf("expected stable quad count, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("quad %d differs between calls: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestGenerateGeometryMultiLine(t *testing.T) {
	src := newFakeSource()
	r := NewStringRenderer(src, 0, 800, 600, AxisTop)
	r.AddString("ab\ncd", 10, 10, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText)

	quads := r.GenerateGeometry()
	if len(quads) != 4 {
		t.Fatalf("expected 4 quads (a,b,c,d), got %d", len(quads))
	}
	if quads[2].Y <= quads[0].Y {
		t.Fatalf("expected second line to sit below the first: %v vs %v", quads[2].Y, quads[0].Y)
	}
}

func TestGenerateGeometrySkipsMissingGlyph(t *testing.T) {
	src := newFakeSource()
	src.reqErr = map[rune]bool{'x': true}
	r := NewStringRenderer(src, 0, 800, 600, AxisTop)
	r.AddString("axb", 10, 10, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText)

	quads := r.GenerateGeometry()
	if len(quads) != 2 {
		t.Fatalf("expected 2 quads (a,b), got %d", len(quads))
	}
}

func TestClearResetsState(t *testing.T) {
	src := newFakeSource()
	r := NewStringRenderer(src, 0, 800, 600, AxisTop)
	r.AddString("hi", 10, 10, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText)
	r.GenerateGeometry()
	r.Clear()

	if r.Count() != 0 {
		t.Fatalf("expected 0 accepted strings after clear, got %d", r.Count())
	}
	if len(r.GenerateGeometry()) != 0 {
		t.Fatal("expected empty geometry after clear")
	}
}
