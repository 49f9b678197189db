// Package layout turns strings and numbers into per-quad glyph geometry:
// anchoring, alignment, multi-line layout, bidi reorder/Arabic shaping,
// visibility culling and a dedupe/deadzone gate, followed by quad
// emission once render() is called.
package layout

import "github.com/glyphatlas/glyphatlas/glyph"

// Anchor fixes which point of a text block's AABB lands on the caller's
// (x, y).
type Anchor int

const (
	AnchorLeftTop Anchor = iota
	AnchorCenter
	AnchorLeftDown
)

// Align controls multi-line horizontal alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// Type distinguishes plain text from caption text/symbol, which get an
// extra caption-mark sub-quad.
type Type int

const (
	TypeText Type = iota
	TypeCaptionText
	TypeCaptionSymbol
)

// AxisYOrigin selects where the caller's y = 0 sits. TOP puts it at the
// top of the canvas with +Y growing down, which is the frame quads are
// emitted in; DOWN puts it at the bottom with +Y growing up and flips
// y := canvas_h - y at ingest.
type AxisYOrigin int

const (
	AxisTop AxisYOrigin = iota
	AxisDown
)

// RGBA is a plain color; components are caller-defined range (commonly
// 0..1 or 0..255), this package never interprets them.
type RGBA struct {
	R, G, B, A float32
}

// RenderParams is per-string/number styling (spec.md §3).
type RenderParams struct {
	Color   RGBA
	Scale   float32
	BgColor *RGBA
}

// AABB is an axis-aligned bounding box in canvas pixel space.
type AABB struct {
	MinX, MinY, MaxX, MaxY float32
}

// Width returns the AABB's horizontal extent.
func (a AABB) Width() float32 { return a.MaxX - a.MinX }

// Height returns the AABB's vertical extent.
func (a AABB) Height() float32 { return a.MaxY - a.MinY }

// IsEmpty reports whether the AABB has never been extended by a point.
func (a AABB) IsEmpty() bool { return a.MinX > a.MaxX || a.MinY > a.MaxY }

// emptyAABB returns the AABB identity value for repeated Extend calls.
func emptyAABB() AABB {
	return AABB{MinX: math32Inf, MinY: math32Inf, MaxX: -math32Inf, MaxY: -math32Inf}
}

const math32Inf = 1 << 30

// Extend grows the AABB to include the rectangle [x, x+w] x [y, y+h].
func (a AABB) Extend(x, y, w, h float32) AABB {
	if x < a.MinX {
		a.MinX = x
	}
	if y < a.MinY {
		a.MinY = y
	}
	if x+w > a.MaxX {
		a.MaxX = x + w
	}
	if y+h > a.MaxY {
		a.MaxY = y + h
	}
	return a
}

// Quad is one glyph's placement, ready for a backend to turn into vertex
// data: screen position/size plus the glyph whose current atlas position
// (Tx, Ty, BmpW, BmpH) supplies the texture rectangle.
type Quad struct {
	FontIndex int
	Glyph     *glyph.Info
	X, Y      float32 // top-left pen position in canvas pixels
	W, H      float32 // on-screen size (bitmap size * scale)
	Params    RenderParams
}

// GlyphSource is the narrow slice of fontbuilder.Builder the layout
// engines need: resolve a code point to a rasterized glyph, and report
// fleet-wide metrics used for line spacing and visibility estimation.
type GlyphSource interface {
	Request(fontIndex int, code rune) (*glyph.Info, error)
	NewLineOffset() int
	MaxFontPx() int
}
