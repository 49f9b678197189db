package layout

import (
	"unicode/utf8"

	"github.com/glyphatlas/glyphatlas/bidi"
)

// StringInfo is one accepted add_string call: the request verbatim, plus
// the bidi runs computed when it was accepted.
type StringInfo struct {
	Text   string
	X, Y   float32
	Anchor Anchor
	Align  Align
	Type   Type
	Params RenderParams

	// visualRuns holds the bidi-reordered/shaped runs to walk at emission
	// time; nil when bidi was not required.
	visualRuns []bidi.Run
}

// CaptionConfig positions the caption-mark sub-string relative to a
// Type::CAPTION* string's text block (spec.md §4.7).
type CaptionConfig struct {
	Mark     rune
	OffsetPx float32
}

// StringRenderer is the Layout engine for Unicode text: bidi-aware
// add_string, followed by quad emission on render() (spec.md §4.5).
type StringRenderer struct {
	src    GlyphSource
	bidi   *bidi.Engine
	canvasW, canvasH float32
	axis   AxisYOrigin
	caption CaptionConfig

	deadzoneRadius2 float32
	fontIndex       int // font used for plain text; caption mark uses the same fleet slot

	accepted []*StringInfo
	gates    []acceptedEntry

	quads []Quad
	dirty bool
}

// NewStringRenderer builds a renderer against the given glyph source and
// canvas dimensions. fontIndex selects which loaded font every add_string
// call renders with — spec.md's StringInfo has no independent font field,
// inheriting the convention used by the rest of §3/§4.5.
func NewStringRenderer(src GlyphSource, fontIndex int, canvasW, canvasH float32, axis AxisYOrigin) *StringRenderer {
	return &StringRenderer{
		src:      src,
		bidi:     bidi.NewEngine(),
		fontIndex: fontIndex,
		canvasW:  canvasW,
		canvasH:  canvasH,
		axis:     axis,
	}
}

// SetCanvasSize updates canvas dimensions used for coordinate
// normalization and visibility culling.
func (r *StringRenderer) SetCanvasSize(w, h float32) {
	r.canvasW, r.canvasH = w, h
	r.dirty = true
}

// SetDeadzoneRadius sets the minimum pixel distance between two accepted
// strings of the same type; 0 disables the gate.
func (r *StringRenderer) SetDeadzoneRadius(radius float32) {
	r.deadzoneRadius2 = radius * radius
}

// SetCaption configures the caption-mark glyph and its offset from the
// text block, used by Type::CAPTION_TEXT/CAPTION_SYMBOL entries.
func (r *StringRenderer) SetCaption(c CaptionConfig) { r.caption = c }

// Count returns the number of currently accepted strings.
func (r *StringRenderer) Count() int { return len(r.accepted) }

// Clear discards every accepted StringInfo.
func (r *StringRenderer) Clear() {
	r.accepted = nil
	r.gates = nil
	r.quads = nil
	r.dirty = true
}

// AddString submits one string for layout. x, y are either pixel
// coordinates or normalized [0,1] floats (detected by being within
// [0,1] and the canvas being larger than 1px — per spec.md §4.5, callers
// choose the convention and it is multiplied by canvas dims). Returns
// false (RejectedByPolicy, not an error) for duplicates, culled, or
// deadzone-gated requests.
func (r *StringRenderer) AddString(text string, x, y float32, params RenderParams, anchor Anchor, align Align, typ Type) bool {
	if x >= 0 && x <= 1 && y >= 0 && y <= 1 && r.canvasW > 1 && r.canvasH > 1 {
		x *= r.canvasW
		y *= r.canvasH
	}
	if r.axis == AxisDown {
		y = r.canvasH - y
	}

	scale := params.Scale
	if scale == 0 {
		scale = 1
	}

	candidate := acceptedEntry{x: x, y: y, scale: scale, align: align, anchor: anchor, typ: typ, key: text}
	if isDuplicate(r.gates, candidate) {
		return false
	}

	isCaptionMark := typ == TypeCaptionSymbol
	if !isCaptionMark {
		glyphCount := utf8.RuneCountInString(text)
		if estimateOutsideCanvas(x, y, glyphCount, r.src.MaxFontPx(), r.canvasW, r.canvasH) {
			return false
		}
	}

	if withinDeadzone(r.gates, candidate, r.deadzoneRadius2) {
		return false
	}

	info := &StringInfo{
		Text:   text,
		X:      x,
		Y:      y,
		Anchor: anchor,
		Align:  align,
		Type:   typ,
		Params: params,
	}
	if bidi.RequiresBidi(text) {
		runs, err := r.bidi.ReorderOneLine(text)
		if err == nil {
			info.visualRuns = runs
		}
	}

	r.accepted = append(r.accepted, info)
	r.gates = append(r.gates, candidate)
	r.dirty = true
	return true
}

// visualText returns the text to walk for quad emission: the bidi visual
// order if computed, otherwise the logical text unchanged.
func (info *StringInfo) visualText() string {
	if info.visualRuns == nil {
		return info.Text
	}
	var out []byte
	for _, run := range info.visualRuns {
		out = append(out, run.Text...)
	}
	return string(out)
}

// GenerateGeometry recomputes the quad stream for every accepted string.
// Idempotent: calling twice with no intervening AddString/Clear produces
// an identical quad stream (spec.md §8).
func (r *StringRenderer) GenerateGeometry() []Quad {
	if !r.dirty {
		return r.quads
	}

	var quads []Quad
	for _, info := range r.accepted {
		quads = append(quads, r.emit(info)...)
	}
	r.quads = quads
	r.dirty = false
	return r.quads
}

// spaceAdvance resolves the fallback advance for non-printable code
// points: adv of U+0020, else adv of 'a', else 10 (spec.md §4.5 step 4).
func (r *StringRenderer) spaceAdvance() int {
	if g, err := r.src.Request(r.fontIndex, ' '); err == nil {
		return g.Adv
	}
	if g, err := r.src.Request(r.fontIndex, 'a'); err == nil {
		return g.Adv
	}
	return 10 << 6
}

// lineSpacing returns the vertical distance between baselines.
func (r *StringRenderer) lineSpacing(nlOffsetPx float32) float32 {
	offset := r.src.NewLineOffset()
	return float32(offset) + nlOffsetPx
}

// lineWidth returns a line's advance width in pixels.
func (r *StringRenderer) lineWidth(line string, scale float32) float32 {
	var w float32
	spaceAdv := r.spaceAdvance()
	for _, c := range line {
		if c <= 32 {
			w += float32(spaceAdv>>6) * scale
			continue
		}
		g, err := r.src.Request(r.fontIndex, c)
		if err != nil {
			continue
		}
		w += float32(g.Adv>>6) * scale
	}
	return w
}

// computeTrueAABB walks text and returns its true bounding box in
// glyph-local coordinates (pen starting at 0,0), per spec.md §4.5 step 1.
// Multi-line text is centered per-line when align is AlignCenter, using
// the widest line as the reference.
func (r *StringRenderer) computeTrueAABB(text string, align Align, scale float32) AABB {
	box := emptyAABB()
	lines := splitLines(text)
	widths := make([]float32, len(lines))
	maxW := float32(0)
	for i, line := range lines {
		widths[i] = r.lineWidth(line, scale)
		if widths[i] > maxW {
			maxW = widths[i]
		}
	}

	var penY float32
	for i, line := range lines {
		penX := lineStartX(align, maxW, widths[i])
		for _, c := range line {
			if c <= 32 {
				penX += float32(r.spaceAdvance()>>6) * scale
				continue
			}
			g, err := r.src.Request(r.fontIndex, c)
			if err != nil {
				continue
			}
			gx := penX + float32(g.BmpX)*scale
			gy := penY + float32(g.BmpY)*scale
			box = box.Extend(gx, gy, float32(g.BmpW)*scale, float32(g.BmpH)*scale)
			penX += float32(g.Adv>>6) * scale
		}
		penY += r.lineSpacing(0)
	}
	if box.IsEmpty() {
		return AABB{}
	}
	return box
}

// splitLines splits text on '\n', keeping empty lines.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i, c := range text {
		if c == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	lines = append(lines, text[start:])
	return lines
}

// lineStartX returns the pen's starting x for a line, given the block's
// max line width and this line's own width.
func lineStartX(align Align, maxW, lineW float32) float32 {
	if align == AlignCenter {
		return (maxW - lineW) / 2
	}
	return 0
}

// emit produces the quad stream for one accepted string: true AABB,
// anchor application, optional caption-mark sub-string, then the
// character walk (spec.md §4.5 steps 1-4).
func (r *StringRenderer) emit(info *StringInfo) []Quad {
	scale := info.Params.Scale
	if scale == 0 {
		scale = 1
	}
	text := info.visualText()

	box := r.computeTrueAABB(text, info.Align, scale)
	dx, dy := applyAnchor(info.X, info.Y, box, info.Anchor)

	var quads []Quad
	if info.Type == TypeCaptionText || info.Type == TypeCaptionSymbol {
		quads = append(quads, r.emitCaptionMark(info, box, dx, dy, scale)...)
	}

	lines := splitLines(text)
	widths := make([]float32, len(lines))
	maxW := float32(0)
	for i, line := range lines {
		widths[i] = r.lineWidth(line, scale)
		if widths[i] > maxW {
			maxW = widths[i]
		}
	}

	var penY float32
	for i, line := range lines {
		penX := lineStartX(info.Align, maxW, widths[i])
		for _, c := range line {
			if c <= 32 {
				penX += float32(r.spaceAdvance()>>6) * scale
				continue
			}
			g, err := r.src.Request(r.fontIndex, c)
			if err != nil {
				continue
			}
			quads = append(quads, Quad{
				FontIndex: r.fontIndex,
				Glyph:     g,
				X:         dx + penX + float32(g.BmpX)*scale,
				Y:         dy + penY + float32(g.BmpY)*scale,
				W:         float32(g.BmpW) * scale,
				H:         float32(g.BmpH) * scale,
				Params:    info.Params,
			})
			penX += float32(g.Adv>>6) * scale
		}
		penY += r.lineSpacing(0)
	}
	return quads
}

// emitCaptionMark positions the caption-mark glyph above (AxisTop) or
// below (AxisDown) the text block on the canvas, offset by
// CaptionConfig.OffsetPx.
func (r *StringRenderer) emitCaptionMark(info *StringInfo, box AABB, dx, dy, scale float32) []Quad {
	g, err := r.src.Request(r.fontIndex, r.caption.Mark)
	if err != nil {
		return nil
	}
	markY := dy + box.MinY - r.caption.OffsetPx - float32(g.BmpH)*scale
	if r.axis == AxisDown {
		markY = dy + box.MaxY + r.caption.OffsetPx
	}
	markX := dx + (box.Width()-float32(g.BmpW)*scale)/2

	return []Quad{{
		FontIndex: r.fontIndex,
		Glyph:     g,
		X:         markX,
		Y:         markY,
		W:         float32(g.BmpW) * scale,
		H:         float32(g.BmpH) * scale,
		Params:    info.Params,
	}}
}
