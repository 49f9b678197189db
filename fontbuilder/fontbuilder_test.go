package fontbuilder

import (
	"testing"

	"github.com/glyphatlas/glyphatlas/atlas"
	"github.com/glyphatlas/glyphatlas/glyph"
	"github.com/glyphatlas/glyphatlas/rasterizer"
)

// fakeFace is a minimal rasterizer.Face for tests that never touches disk
// or a real font file.
type fakeFace struct {
	px      int
	loads   int
	missing map[rune]bool
}

func (f *fakeFace) SetPixelSize(px int) error { f.px = px; return nil }
func (f *fakeFace) PixelSize() int            { return f.px }
func (f *fakeFace) LineHeight() int           { return f.px + 4 }
func (f *fakeFace) Close() error              { return nil }

func (f *fakeFace) LoadGlyph(code rune) (rasterizer.Bitmap, error) {
	f.loads++
	if f.missing[code] {
		return rasterizer.Bitmap{}, rasterizer.ErrGlyphNotFound
	}
	w, h := 6, 8
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = 0xFF
	}
	return rasterizer.Bitmap{Pix: pix, W: w, H: h, AdvanceFx: 10 * 64}, nil
}

func newTestBuilder(t *testing.T) (*Builder, *fakeFace) {
	t.Helper()
	face := &fakeFace{px: 16}
	font := glyph.NewFont("test", 16)
	font.NewLineOffset = face.LineHeight()

	b := &Builder{
		fonts:   []*glyph.Font{font},
		faces:   []rasterizer.Face{face},
		unused:  glyph.NewUnusedSet(),
		touched: make(map[glyph.Key]struct{}),
	}
	b.recomputeNewLineOffset()
	b.packer = atlas.New(64, 64, 0)
	b.packer.SetGlyphs(b.fonts, b.unused)
	return b, face
}

func TestRequestRasterizesOnMiss(t *testing.T) {
	b, face := newTestBuilder(t)
	g, err := b.Request(0, 'A')
	if err != nil {
		t.Fatal(err)
	}
	if g.BmpW != 6 || g.BmpH != 8 {
		t.Fatalf("unexpected bitmap size: %+v", g)
	}
	if face.loads != 1 {
		t.Fatalf("expected 1 rasterizer call, got %d", face.loads)
	}

	// Second request for the same code must hit the LUT, not rasterize again.
	if _, err := b.Request(0, 'A'); err != nil {
		t.Fatal(err)
	}
	if face.loads != 1 {
		t.Fatalf("expected cached glyph, got %d rasterizer calls", face.loads)
	}
}

func TestRequestGlyphLoadFailed(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.faces[0].(*fakeFace).missing = map[rune]bool{'X': true}
	if _, err := b.Request(0, 'X'); err == nil {
		t.Fatal("expected error for missing glyph")
	}
}

func TestWhitespaceNotTouchedOrTracked(t *testing.T) {
	b, _ := newTestBuilder(t)
	if _, err := b.Request(0, ' '); err != nil {
		t.Fatal(err)
	}
	if len(b.touched) != 0 {
		t.Fatalf("whitespace must not be tracked as touched, got %d entries", len(b.touched))
	}
}

func TestEndPassComputesUnused(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.Request(0, 'A')
	b.Request(0, 'B')
	b.Pack()

	b.touched = map[glyph.Key]struct{}{{FontIndex: 0, Code: 'A'}: {}}
	b.EndPass()

	if !b.unused.Contains(glyph.Key{FontIndex: 0, Code: 'B'}) {
		t.Fatal("expected B to be marked unused")
	}
	if b.unused.Contains(glyph.Key{FontIndex: 0, Code: 'A'}) {
		t.Fatal("A was touched, must not be unused")
	}
}

func TestRequestClearsEvictedOnReuse(t *testing.T) {
	b, _ := newTestBuilder(t)
	g, err := b.Request(0, 'A')
	if err != nil {
		t.Fatal(err)
	}
	b.Pack()

	g.Evicted = true
	delete(b.packer.PackedInfos(), glyph.Key{FontIndex: 0, Code: 'A'})

	if _, err := b.Request(0, 'A'); err != nil {
		t.Fatal(err)
	}
	if g.Evicted {
		t.Fatal("expected re-requesting an evicted glyph to clear the flag")
	}
	b.Pack()
	if _, ok := b.packer.PackedInfos()[glyph.Key{FontIndex: 0, Code: 'A'}]; !ok {
		t.Fatal("expected 'A' to be re-packed after being re-requested")
	}
}

func TestDropGlyphRemovesFromLUT(t *testing.T) {
	b, _ := newTestBuilder(t)
	b.Request(0, 'A')
	b.DropGlyph(0, 'A')

	if _, ok := b.fonts[0].Lookup('A'); ok {
		t.Fatal("expected DropGlyph to remove the glyph from the font's LUT")
	}
	if _, ok := b.touched[glyph.Key{FontIndex: 0, Code: 'A'}]; ok {
		t.Fatal("expected DropGlyph to clear the touched marker")
	}
}

func TestPackReturnsDirtyOnlyWhenRequested(t *testing.T) {
	b, _ := newTestBuilder(t)
	dirty, ok := b.Pack()
	if dirty {
		t.Fatal("expected no dirty flag before any glyph is requested")
	}
	if !ok {
		t.Fatal("expected pack to succeed with nothing to place")
	}

	b.Request(0, 'A')
	dirty, ok = b.Pack()
	if !dirty || !ok {
		t.Fatalf("expected dirty=true ok=true after requesting a glyph, got dirty=%v ok=%v", dirty, ok)
	}
}

func TestResolvePixelSize(t *testing.T) {
	settings := Settings{ScreenScale: 2, ScreenDPI: 96}
	px := resolvePixelSize(FontSpec{Size: FontSize{Unit: UnitPx, Value: 12}}, settings)
	if px != 12 {
		t.Fatalf("px unit: got %d, want 12", px)
	}
	em := resolvePixelSize(FontSpec{Size: FontSize{Unit: UnitEm, Value: 1.5}, DefaultEmPx: 10}, settings)
	if em != 30 { // round(10 * 1.5 * 2)
		t.Fatalf("em unit: got %d, want 30", em)
	}
	pt := resolvePixelSize(FontSpec{Size: FontSize{Unit: UnitPt, Value: 12}}, settings)
	if pt != 16 { // 12 * 96/72 = 16
		t.Fatalf("pt unit: got %d, want 16", pt)
	}
}
