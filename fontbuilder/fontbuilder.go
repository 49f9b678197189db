// Package fontbuilder orchestrates the glyph cache and the atlas packer:
// it loads fonts, resolves requested sizes to pixels, rasterizes code
// points on demand, and drives packing and used/unused accounting across
// frames.
package fontbuilder

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/glyphatlas/glyphatlas/atlas"
	"github.com/glyphatlas/glyphatlas/fontcache"
	"github.com/glyphatlas/glyphatlas/glyph"
	"github.com/glyphatlas/glyphatlas/rasterizer"
)

// Sentinel errors, per the taxonomy in spec.md §7. All are recovered
// locally by the caller; none of them ever panics.
var (
	ErrFontLoadFailed  = errors.New("fontbuilder: font load failed")
	ErrGlyphLoadFailed = errors.New("fontbuilder: glyph load failed")
)

// Unit is a font-size unit.
type Unit int

const (
	UnitPx Unit = iota
	UnitEm
	UnitPt
)

// FontSize is a requested size in one of three units (spec.md §3,
// FontBuilderSettings).
type FontSize struct {
	Unit  Unit
	Value float64
}

// FontSpec names one font to load and the size to render it at.
type FontSpec struct {
	Name        string
	Path        string
	Size        FontSize
	DefaultEmPx int
}

// Settings mirrors FontBuilderSettings from spec.md §3.
type Settings struct {
	Fonts       []FontSpec
	TexW, TexH  int
	ScreenScale float64
	ScreenDPI   float64
	Border      int
	Method      atlas.Method
}

// Builder is the FontBuilder orchestrator: owns N fonts, resolves sizes,
// requests rasterization of new code points, asks the packer to (re)pack,
// and marks glyphs used/unused across frames.
type Builder struct {
	cache  *fontcache.Cache
	packer *atlas.Packer

	fonts  []*glyph.Font
	faces  []rasterizer.Face
	unused *glyph.UnusedSet

	// touched accumulates every (font,code) the layout engine referenced
	// since the last unused recomputation (spec.md §4.3, "Used/unused
	// accounting" — cadence left to the caller: per-frame or per-N-frames).
	touched map[glyph.Key]struct{}

	newLineOffset int
	atlasDirty    bool

	logger *log.Logger
}

// New loads every font in settings, skipping (and logging, if a logger is
// set) any that fail to load or parse — a font-load failure never aborts
// construction, per spec.md §7 (FontLoadFailed).
func New(settings Settings, cache *fontcache.Cache, logger *log.Logger) *Builder {
	b := &Builder{
		cache:  cache,
		unused: glyph.NewUnusedSet(),
		touched: make(map[glyph.Key]struct{}),
		logger: logger,
	}

	for _, spec := range settings.Fonts {
		face, err := b.loadFace(spec, settings)
		if err != nil {
			b.logf("skipping font %q: %v", spec.Name, err)
			continue
		}
		px := resolvePixelSize(spec, settings)
		if err := face.SetPixelSize(px); err != nil {
			b.logf("skipping font %q: %v", spec.Name, err)
			continue
		}
		font := glyph.NewFont(spec.Name, px)
		font.NewLineOffset = face.LineHeight()
		b.fonts = append(b.fonts, font)
		b.faces = append(b.faces, face)
	}

	b.recomputeNewLineOffset()

	border := settings.Border
	b.packer = atlas.New(settings.TexW, settings.TexH, border)
	switch settings.Method {
	case atlas.Grid:
		b.packer.SetGrid(b.maxEmSize(), b.maxEmSize())
	default:
		b.packer.SetTight()
	}
	b.packer.SetGlyphs(b.fonts, b.unused)
	return b
}

func (b *Builder) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}

func (b *Builder) loadFace(spec FontSpec, settings Settings) (rasterizer.Face, error) {
	data := b.cache.Get(spec.Path)
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrFontLoadFailed, spec.Path)
	}
	if strings.EqualFold(filepath.Ext(spec.Path), ".otf") {
		return rasterizer.NewOpenTypeFace(data)
	}
	return rasterizer.NewTruetypeFace(data)
}

// resolvePixelSize converts a requested size to pixels: px is direct, em
// is round(default_em_px * em * screen_scale), pt uses screen_dpi.
func resolvePixelSize(spec FontSpec, settings Settings) int {
	switch spec.Size.Unit {
	case UnitEm:
		return int(float64(spec.DefaultEmPx)*spec.Size.Value*settings.ScreenScale + 0.5)
	case UnitPt:
		dpi := settings.ScreenDPI
		if dpi == 0 {
			dpi = 96
		}
		return int(spec.Size.Value*dpi/72 + 0.5)
	default:
		return int(spec.Size.Value + 0.5)
	}
}

// maxEmSize resolves the px size used for grid bins: the fleet's largest
// pixel size (spec.md §4.3, "re-issue set_grid(px, px) ... with
// px = max_em_size whenever sizes change").
func (b *Builder) maxEmSize() int {
	max := 0
	for _, f := range b.fonts {
		if f.PixelSize > max {
			max = f.PixelSize
		}
	}
	if max == 0 {
		max = 16
	}
	return max
}

func (b *Builder) recomputeNewLineOffset() {
	max := 0
	for _, f := range b.fonts {
		if f.NewLineOffset > max {
			max = f.NewLineOffset
		}
	}
	b.newLineOffset = max
}

// NewLineOffset returns max(face.new_line_offset) across the fleet.
func (b *Builder) NewLineOffset() int { return b.newLineOffset }

// MaxFontPx returns the largest pixel size across the loaded fleet, used
// by the layout engine's coarse visibility-culling estimate (spec.md §4.5).
func (b *Builder) MaxFontPx() int { return b.maxEmSize() }

// FontCount returns the number of successfully loaded fonts.
func (b *Builder) FontCount() int { return len(b.fonts) }

// Font returns the glyph.Font at index i.
func (b *Builder) Font(i int) *glyph.Font { return b.fonts[i] }

// Request ensures the glyph for (fontIndex, code) is rasterized and
// present in its font's LUT, and marks it touched for this pass.
// Whitespace is rasterized on its first Request (its advance is used for
// spacing) but is exempt from re-rasterization and from the touched/unused
// bookkeeping.
func (b *Builder) Request(fontIndex int, code rune) (*glyph.Info, error) {
	if fontIndex < 0 || fontIndex >= len(b.fonts) {
		return nil, fmt.Errorf("fontbuilder: invalid font index %d", fontIndex)
	}
	font := b.fonts[fontIndex]

	if !glyph.IsWhitespace(code) {
		b.touched[glyph.Key{FontIndex: fontIndex, Code: code}] = struct{}{}
	}

	if g, ok := font.Lookup(code); ok {
		if g.Evicted {
			// Being requested again re-enters the glyph into the next
			// Pack() call's pending set (atlas.Packer.pending skips
			// evicted-and-untouched glyphs to avoid repack thrashing).
			g.Evicted = false
			b.atlasDirty = true
		}
		if g.RawData == nil && !glyph.IsWhitespace(code) {
			// The atlas absorbed the bytes; re-rasterize from scratch on
			// need (spec.md §3, GlyphInfo.raw_data).
			if err := b.rerasterize(fontIndex, g); err != nil {
				return nil, err
			}
		}
		return g, nil
	}

	bmp, err := b.faces[fontIndex].LoadGlyph(code)
	if err != nil {
		return nil, fmt.Errorf("%w: font %q code %U: %v", ErrGlyphLoadFailed, font.FaceName, code, err)
	}

	g := &glyph.Info{
		Code:      code,
		BmpW:      bmp.W,
		BmpH:      bmp.H,
		BmpX:      bmp.BearingX,
		BmpY:      bmp.BearingY,
		Adv:       bmp.AdvanceFx,
		RawData:   bmp.Pix,
		FontIndex: fontIndex,
	}
	if g.Adv < 0 {
		g.Adv = 0
	}
	font.Add(g)
	b.atlasDirty = true
	return g, nil
}

func (b *Builder) rerasterize(fontIndex int, g *glyph.Info) error {
	bmp, err := b.faces[fontIndex].LoadGlyph(g.Code)
	if err != nil {
		return fmt.Errorf("%w: code %U: %v", ErrGlyphLoadFailed, g.Code, err)
	}
	g.RawData = bmp.Pix
	g.BmpW, g.BmpH = bmp.W, bmp.H
	g.BmpX, g.BmpY = bmp.BearingX, bmp.BearingY
	b.atlasDirty = true
	return nil
}

// Pack asks the atlas packer to place every pending glyph. It returns
// whether the atlas changed (new placements or evictions occurred), so
// the caller knows to re-upload the texture, and whether every glyph was
// placed successfully (false => AtlasFull for at least one glyph).
func (b *Builder) Pack() (atlasDirty bool, allPlaced bool) {
	dirty := b.atlasDirty
	ok := b.packer.Pack()
	b.atlasDirty = false
	return dirty, ok
}

// EndPass finalizes used/unused accounting for the interval since the
// last EndPass call: every glyph not present in touched becomes unused.
// Whitespace is exempt. The caller controls cadence (per-frame or
// per-N-frames) by choosing when to call this (spec.md §4.3, open
// question).
func (b *Builder) EndPass() {
	b.unused.Reset()
	for fi, f := range b.fonts {
		for _, g := range f.Glyphs {
			if glyph.IsWhitespace(g.Code) {
				continue
			}
			key := glyph.Key{FontIndex: fi, Code: g.Code}
			if _, ok := b.touched[key]; !ok {
				b.unused.Add(key)
			}
		}
	}
	b.touched = make(map[glyph.Key]struct{})
}

// Packer exposes the underlying atlas packer (texture bytes, dimensions).
func (b *Builder) Packer() *atlas.Packer { return b.packer }

// DropGlyph releases a glyph that the atlas has evicted and the caller
// knows will not be needed again soon: it removes the GlyphInfo from its
// font's LUT entirely, ending the retain-after-eviction grace period
// described in spec.md §3. An evicted glyph that has not been dropped
// stays in the LUT, and its next Request reuses that Info and re-rasterizes
// its bytes; after DropGlyph the next Request rasterizes it as a new glyph.
func (b *Builder) DropGlyph(fontIndex int, code rune) {
	if fontIndex < 0 || fontIndex >= len(b.fonts) {
		return
	}
	b.fonts[fontIndex].Remove(code)
	delete(b.touched, glyph.Key{FontIndex: fontIndex, Code: code})
}

// PreloadASCIILetters rasterizes 'A'..'Z' and 'a'..'z' for every loaded
// font (original_source FontBuilder::AddAllAsciiLetters).
func (b *Builder) PreloadASCIILetters() error {
	for fi := range b.fonts {
		for c := rune('A'); c <= 'Z'; c++ {
			if _, err := b.Request(fi, c); err != nil {
				return err
			}
		}
		for c := rune('a'); c <= 'z'; c++ {
			if _, err := b.Request(fi, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// PreloadASCIIDigits rasterizes '0'..'9' for every loaded font
// (original_source FontBuilder::AddAllAsciiNumbers).
func (b *Builder) PreloadASCIIDigits() error {
	for fi := range b.fonts {
		for c := rune('0'); c <= '9'; c++ {
			if _, err := b.Request(fi, c); err != nil {
				return err
			}
		}
	}
	return nil
}
