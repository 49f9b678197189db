// Package rasterizer adapts concrete Go font-rasterization libraries to
// the narrow "glyph rasterizer" interface FontBuilder consumes
// (spec.md §6): init a face, set a pixel size, and load one code point's
// coverage bitmap + metrics. The shaping/hinting engine itself is treated
// as an external collaborator; this package only bridges to it.
package rasterizer

import (
	"errors"
	"fmt"
	"image"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrGlyphNotFound is returned by Face.LoadGlyph when the face has no
// outline for the requested code point.
var ErrGlyphNotFound = errors.New("rasterizer: glyph not found in face")

// Bitmap is one rasterized glyph: 8-bit grayscale coverage plus the
// pen-relative metrics FontBuilder copies into glyph.Info.
type Bitmap struct {
	Pix                []byte // len == W*H
	W, H               int
	BearingX, BearingY int
	AdvanceFx          int // 1/64-pixel units, FreeType convention
}

// Face is the interface FontBuilder rasterizes against. Both
// TruetypeFace (classic FreeType-style TTF) and OpenTypeFace (CFF/OTF via
// golang.org/x/image/font/opentype) implement it.
type Face interface {
	SetPixelSize(px int) error
	LoadGlyph(code rune) (Bitmap, error)
	PixelSize() int
	// LineHeight returns the face's vertical distance between consecutive
	// baselines in pixels at the current size (spec.md's new-line offset).
	LineHeight() int
	Close() error
}

// TruetypeFace rasterizes via github.com/golang/freetype +
// github.com/golang/freetype/truetype, mirroring the teacher's
// LoadTruetype: draw each glyph into an offscreen canvas with a
// freetype.Context and read the coverage back out of the alpha channel.
type TruetypeFace struct {
	ttf *truetype.Font
	px  int
}

// NewTruetypeFace parses raw TrueType font bytes (as returned by
// fontcache.Cache.Get).
func NewTruetypeFace(data []byte) (*TruetypeFace, error) {
	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rasterizer: parse truetype: %w", err)
	}
	return &TruetypeFace{ttf: ttf}, nil
}

// PixelSize returns the last size passed to SetPixelSize.
func (f *TruetypeFace) PixelSize() int { return f.px }

// SetPixelSize fixes the rendering size in pixels for subsequent LoadGlyph
// calls.
func (f *TruetypeFace) SetPixelSize(px int) error {
	if px <= 0 {
		return fmt.Errorf("rasterizer: pixel size must be positive, got %d", px)
	}
	f.px = px
	return nil
}

// LoadGlyph rasterizes code at the face's current pixel size.
func (f *TruetypeFace) LoadGlyph(code rune) (Bitmap, error) {
	if f.px == 0 {
		return Bitmap{}, fmt.Errorf("rasterizer: SetPixelSize not called")
	}
	index := f.ttf.Index(code)
	if index == 0 && code != 0 {
		return Bitmap{}, ErrGlyphNotFound
	}

	scale := fixed.Int26_6(f.px << 6)
	metric := f.ttf.HMetric(scale, index)

	bounds := f.ttf.Bounds(scale)
	gw := int((bounds.Max.X - bounds.Min.X) >> 6)
	gh := int((bounds.Max.Y - bounds.Min.Y) >> 6)
	if gw <= 0 {
		gw = f.px
	}
	if gh <= 0 {
		gh = f.px
	}

	img := image.NewRGBA(image.Rect(0, 0, gw+2, gh+2))

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f.ttf)
	c.SetFontSize(float64(f.px))
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.White)
	c.SetHinting(font.HintingNone)

	pt := freetype.Pt(1, 1+int(c.PointToFixed(float64(f.px))>>6))
	if _, err := c.DrawString(string(code), pt); err != nil {
		return Bitmap{}, fmt.Errorf("rasterizer: draw glyph %q: %w", code, err)
	}

	pix := make([]byte, gw*gh)
	for y := 0; y < gh; y++ {
		for x := 0; x < gw; x++ {
			_, _, _, a := img.At(x+1, y+1).RGBA()
			pix[y*gw+x] = byte(a >> 8)
		}
	}

	return Bitmap{
		Pix:       pix,
		W:         gw,
		H:         gh,
		BearingX:  0,
		BearingY:  0,
		AdvanceFx: int(metric.AdvanceWidth),
	}, nil
}

// LineHeight returns the face's bounding-box height at the current pixel
// size, falling back to the common 1.2x-em heuristic when the face
// reports a degenerate bounds (e.g. a font with no glyphs loaded yet).
func (f *TruetypeFace) LineHeight() int {
	scale := fixed.Int26_6(f.px << 6)
	bounds := f.ttf.Bounds(scale)
	h := int((bounds.Max.Y - bounds.Min.Y) >> 6)
	if h <= 0 {
		h = int(float64(f.px) * 1.2)
	}
	return h
}

// Close releases the face. TruetypeFace holds no unmanaged resources, so
// this is a no-op kept for interface symmetry with OpenTypeFace.
func (f *TruetypeFace) Close() error { return nil }

// OpenTypeFace rasterizes via golang.org/x/image/font/opentype, for
// CFF-flavored OpenType fonts the classic FreeType API in this pack
// doesn't parse as cleanly.
type OpenTypeFace struct {
	otf  *opentype.Font
	face font.Face
	px   int
}

// NewOpenTypeFace parses raw OpenType/CFF font bytes.
func NewOpenTypeFace(data []byte) (*OpenTypeFace, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rasterizer: parse opentype: %w", err)
	}
	return &OpenTypeFace{otf: f}, nil
}

// PixelSize returns the last size passed to SetPixelSize.
func (o *OpenTypeFace) PixelSize() int { return o.px }

// SetPixelSize builds a font.Face at the requested pixel size.
func (o *OpenTypeFace) SetPixelSize(px int) error {
	if px <= 0 {
		return fmt.Errorf("rasterizer: pixel size must be positive, got %d", px)
	}
	face, err := opentype.NewFace(o.otf, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return fmt.Errorf("rasterizer: build face at size %d: %w", px, err)
	}
	if o.face != nil {
		o.face.Close()
	}
	o.face = face
	o.px = px
	return nil
}

// LoadGlyph rasterizes code at the face's current pixel size.
func (o *OpenTypeFace) LoadGlyph(code rune) (Bitmap, error) {
	if o.face == nil {
		return Bitmap{}, fmt.Errorf("rasterizer: SetPixelSize not called")
	}
	dr, mask, maskp, advance, ok := o.face.Glyph(fixed.P(0, 0), code)
	if !ok {
		return Bitmap{}, ErrGlyphNotFound
	}
	b := dr.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return Bitmap{W: 0, H: 0, AdvanceFx: int(advance)}, nil
	}

	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			pix[y*w+x] = byte(a >> 8)
		}
	}

	return Bitmap{
		Pix:       pix,
		W:         w,
		H:         h,
		BearingX:  -b.Min.X,
		BearingY:  -b.Min.Y,
		AdvanceFx: int(advance),
	}, nil
}

// LineHeight returns the face's reported line height in pixels.
func (o *OpenTypeFace) LineHeight() int {
	if o.face == nil {
		return 0
	}
	return o.face.Metrics().Height.Round()
}

// Close releases the underlying font.Face.
func (o *OpenTypeFace) Close() error {
	if o.face == nil {
		return nil
	}
	return o.face.Close()
}
