// Package glyph holds the rasterized-glyph data model shared by the atlas
// packer and the layout engine: GlyphInfo, FontInfo and the UnusedSet that
// drives eviction.
package glyph

// Info is the rasterized representation of one code point at one pixel
// size.
type Info struct {
	Code rune

	BmpW, BmpH int // bitmap dimensions in pixels
	BmpX, BmpY int // pen-to-bitmap offsets (left bearing, top bearing)

	Adv int // horizontal advance, 1/64px units; invariant Adv >= 0

	// RawData is owned coverage data, length BmpW*BmpH, 8-bit grayscale.
	// It may be nil once the atlas has absorbed the bytes; the rasterizer
	// can re-render it from scratch on demand.
	RawData []byte

	// Tx, Ty is the glyph's position inside the current atlas. Valid only
	// while the glyph is packed (see atlas.Packer).
	Tx, Ty int

	// Evicted marks a glyph the atlas has dropped since it was last
	// requested: it stays in the LUT (spec.md §3 lifecycle) but is
	// excluded from packing until something requests it again.
	Evicted bool

	FontIndex int // back-reference to the owning font
}

// IsWhitespace reports whether code is exempt from atlas packing and from
// used/unused accounting (ASCII controls and space, code <= 32).
func IsWhitespace(code rune) bool {
	return code <= 32
}

// Key identifies one glyph across the whole fleet of fonts.
type Key struct {
	FontIndex int
	Code      rune
}

// Font is one loaded face at one pixel size.
type Font struct {
	FaceName      string
	PixelSize     int
	NewLineOffset int // px, taken from face metrics

	// Glyphs preserves insertion order; used to iterate for packing.
	Glyphs []*Info

	// LUT maps code -> index into Glyphs. Invariant: for every key k in
	// LUT, Glyphs[LUT[k]].Code == k.
	LUT map[rune]int

	// FaceHandle is an opaque handle into the rasterizer (e.g. a parsed
	// truetype.Font); stored as `any` so this package stays independent of
	// any specific rasterizer implementation.
	FaceHandle any
}

// NewFont returns an empty Font ready to receive glyphs.
func NewFont(name string, pixelSize int) *Font {
	return &Font{
		FaceName:  name,
		PixelSize: pixelSize,
		LUT:       make(map[rune]int),
	}
}

// Lookup returns the glyph for code and whether it was found.
func (f *Font) Lookup(code rune) (*Info, bool) {
	idx, ok := f.LUT[code]
	if !ok {
		return nil, false
	}
	return f.Glyphs[idx], true
}

// Add appends a newly rasterized glyph to the font, wiring up the LUT.
// It is the caller's responsibility to ensure code is not already present.
func (f *Font) Add(g *Info) {
	f.LUT[g.Code] = len(f.Glyphs)
	f.Glyphs = append(f.Glyphs, g)
}

// Remove deletes the glyph for code from both Glyphs and LUT, preserving
// insertion order of the remaining glyphs and keeping LUT indices correct.
// Used by fontbuilder.Builder.DropGlyph when a glyph is dropped entirely.
func (f *Font) Remove(code rune) {
	idx, ok := f.LUT[code]
	if !ok {
		return
	}
	f.Glyphs = append(f.Glyphs[:idx], f.Glyphs[idx+1:]...)
	delete(f.LUT, code)
	for c, i := range f.LUT {
		if i > idx {
			f.LUT[c] = i - 1
		}
	}
}

// UnusedSet is the set of (font, code) pairs whose glyph was not referenced
// in the most recent layout pass. Invariant: UnusedSet is always a subset
// of the union of all fonts' LUTs.
//
// Insertion order is preserved so the atlas packer's eviction scan (which
// walks "the unused set" looking for the first entry large enough to
// reuse) is deterministic.
type UnusedSet struct {
	order []Key
	index map[Key]int
}

// NewUnusedSet returns an empty set.
func NewUnusedSet() *UnusedSet {
	return &UnusedSet{index: make(map[Key]int)}
}

// Add marks key as unused, appending it to the iteration order if it was
// not already present.
func (u *UnusedSet) Add(key Key) {
	if _, ok := u.index[key]; ok {
		return
	}
	u.index[key] = len(u.order)
	u.order = append(u.order, key)
}

// Remove clears key from the unused set (e.g. once it has been evicted or
// touched again).
func (u *UnusedSet) Remove(key Key) {
	idx, ok := u.index[key]
	if !ok {
		return
	}
	delete(u.index, key)
	u.order = append(u.order[:idx], u.order[idx+1:]...)
	for k, i := range u.index {
		if i > idx {
			u.index[k] = i - 1
		}
	}
}

// Contains reports whether key is currently unused.
func (u *UnusedSet) Contains(key Key) bool {
	_, ok := u.index[key]
	return ok
}

// Len returns the number of unused entries.
func (u *UnusedSet) Len() int { return len(u.order) }

// Keys returns the unused keys in insertion order. The slice is owned by
// the caller; UnusedSet does not retain it.
func (u *UnusedSet) Keys() []Key {
	out := make([]Key, len(u.order))
	copy(out, u.order)
	return out
}

// Reset empties the set.
func (u *UnusedSet) Reset() {
	u.order = u.order[:0]
	for k := range u.index {
		delete(u.index, k)
	}
}
