package atlas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glyphatlas/glyphatlas/glyph"
)

func glyphWithBitmap(code rune, w, h int) *glyph.Info {
	data := make([]byte, w*h)
	for i := range data {
		data[i] = 0xFF
	}
	return &glyph.Info{Code: code, BmpW: w, BmpH: h, RawData: data}
}

// Scenario 1: grid pack, simple ASCII.
func TestGridPackSimpleASCII(t *testing.T) {
	p := New(64, 64, 0)
	p.SetGrid(16, 16)

	font := glyph.NewFont("test", 16)
	font.Add(glyphWithBitmap('A', 14, 14))
	unused := glyph.NewUnusedSet()
	p.SetGlyphs([]*glyph.Font{font}, unused)

	if ok := p.Pack(); !ok {
		t.Fatal("expected pack to succeed")
	}

	info := p.PackedInfos()[glyph.Key{FontIndex: 0, Code: 'A'}]
	if info == nil {
		t.Fatal("expected PackedInfo for 'A'")
	}
	if info.X != 0 || info.Y != 0 || info.W != 16 || info.H != 16 {
		t.Fatalf("got %+v, want x=0,y=0,w=16,h=16", info)
	}

	tex := p.TextureBytes()
	for y := 0; y < 14; y++ {
		for x := 0; x < 14; x++ {
			if tex[y*64+x] != 0xFF {
				t.Fatalf("expected glyph byte at (%d,%d), atlas not painted", x, y)
			}
		}
	}
}

// Scenario 2: tight pack, mixed sizes.
func TestTightPackMixedSizes(t *testing.T) {
	p := New(32, 32, 0)
	font := glyph.NewFont("test", 16)
	font.Add(glyphWithBitmap('A', 20, 20))
	font.Add(glyphWithBitmap('B', 10, 10))
	unused := glyph.NewUnusedSet()
	p.SetGlyphs([]*glyph.Font{font}, unused)

	if ok := p.Pack(); !ok {
		t.Fatal("expected both glyphs to fit")
	}

	infos := p.PackedInfos()
	a := infos[glyph.Key{Code: 'A'}]
	b := infos[glyph.Key{Code: 'B'}]
	if a == nil || b == nil {
		t.Fatal("expected both glyphs packed")
	}
	if a.W != 20 || a.H != 20 {
		t.Fatalf("A = %+v", a)
	}
	// B must not overlap A's padded rectangle.
	overlap := a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
	if overlap {
		t.Fatalf("A %+v overlaps B %+v", a, b)
	}
}

// Scenario 3: eviction reclaims exactly one unused slot.
func TestGridEviction(t *testing.T) {
	p := New(64, 64, 0)
	p.SetGrid(16, 16) // 4x4 = 16 bins

	font := glyph.NewFont("test", 16)
	unused := glyph.NewUnusedSet()
	p.SetGlyphs([]*glyph.Font{font}, unused)

	for i := 0; i < 16; i++ {
		font.Add(glyphWithBitmap(rune('A'+i), 10, 10))
	}
	if ok := p.Pack(); !ok {
		t.Fatal("expected all 16 glyphs to fit exactly")
	}

	for i := 0; i < 4; i++ {
		unused.Add(glyph.Key{Code: rune('A' + i)})
	}

	font.Add(glyphWithBitmap('Q', 10, 10))
	if ok := p.Pack(); !ok {
		t.Fatal("expected eviction to make room for the 17th glyph")
	}

	if len(p.erased) != 0 {
		t.Fatalf("erased set must be empty after Pack, got %d entries", len(p.erased))
	}
	if _, ok := p.PackedInfos()[glyph.Key{Code: 'Q'}]; !ok {
		t.Fatal("expected Q to be packed")
	}
	if unused.Len() != 3 {
		t.Fatalf("expected exactly one unused entry evicted, unused.Len()=%d", unused.Len())
	}
}

// Invariant: code <= 32 never gets a PackedInfo.
func TestWhitespaceNeverPacked(t *testing.T) {
	p := New(64, 64, 0)
	font := glyph.NewFont("test", 16)
	font.Add(glyphWithBitmap(' ', 4, 4))
	p.SetGlyphs([]*glyph.Font{font}, glyph.NewUnusedSet())
	p.Pack()
	if _, ok := p.PackedInfos()[glyph.Key{Code: ' '}]; ok {
		t.Fatal("whitespace glyph must never be packed")
	}
}

// Invariant: once placed, tx/ty (here PackedInfo.X/Y) stay stable across
// repeated Pack() calls with no new glyphs.
func TestPackIdempotentPositions(t *testing.T) {
	p := New(64, 64, 0)
	font := glyph.NewFont("test", 16)
	font.Add(glyphWithBitmap('A', 10, 10))
	p.SetGlyphs([]*glyph.Font{font}, glyph.NewUnusedSet())
	p.Pack()
	first := *p.PackedInfos()[glyph.Key{Code: 'A'}]
	p.Pack()
	second := *p.PackedInfos()[glyph.Key{Code: 'A'}]
	if first.X != second.X || first.Y != second.Y {
		t.Fatalf("position moved across idempotent Pack calls: %+v -> %+v", first, second)
	}
}

// Eviction retains the GlyphInfo in the font's LUT (spec.md §3 lifecycle)
// but excludes it from the next Pack() until something requests it again.
func TestEvictedGlyphRetainedAndSkippedUntilTouched(t *testing.T) {
	p := New(64, 64, 0)
	p.SetGrid(16, 16) // 4x4 = 16 bins

	font := glyph.NewFont("test", 16)
	unused := glyph.NewUnusedSet()
	p.SetGlyphs([]*glyph.Font{font}, unused)

	for i := 0; i < 16; i++ {
		font.Add(glyphWithBitmap(rune('A'+i), 10, 10))
	}
	p.Pack()
	unused.Add(glyph.Key{Code: 'A'})

	font.Add(glyphWithBitmap('Q', 10, 10))
	p.Pack()

	g, ok := font.Lookup('A')
	if !ok {
		t.Fatal("expected 'A' to remain in the font's LUT after eviction")
	}
	if !g.Evicted {
		t.Fatal("expected 'A' to be marked evicted")
	}
	if _, ok := p.PackedInfos()[glyph.Key{Code: 'A'}]; ok {
		t.Fatal("expected 'A' to have no PackedInfo after eviction")
	}

	// A second Pack() with nothing new must not resurrect 'A'.
	p.Pack()
	if _, ok := p.PackedInfos()[glyph.Key{Code: 'A'}]; ok {
		t.Fatal("expected evicted-and-untouched 'A' to stay unpacked")
	}
}

func TestAtlasFullReturnsFalse(t *testing.T) {
	p := New(8, 8, 0)
	font := glyph.NewFont("test", 16)
	font.Add(glyphWithBitmap('A', 20, 20)) // bigger than the whole atlas
	p.SetGlyphs([]*glyph.Font{font}, glyph.NewUnusedSet())
	if ok := p.Pack(); ok {
		t.Fatal("expected Pack to report failure for an oversized glyph")
	}
}

func TestSaveDebugPNGWritesValidFile(t *testing.T) {
	p := New(32, 32, 0)
	font := glyph.NewFont("test", 16)
	font.Add(glyphWithBitmap('A', 10, 10))
	p.SetGlyphs([]*glyph.Font{font}, glyph.NewUnusedSet())
	p.Pack()

	path := filepath.Join(t.TempDir(), "atlas.png")
	if err := p.SaveDebugPNG(path); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("expected a non-empty PNG file")
	}
}
