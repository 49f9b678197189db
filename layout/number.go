package layout

// digitPair is one precomputed entry of the 100-entry fast-path table:
// the two digit runes for value 00..99 (spec.md §4.6, "Fast path").
type digitPair struct {
	hi, lo rune
}

// NumberInfo is one accepted add_number call.
type NumberInfo struct {
	Value  float64
	X, Y   float32
	Anchor Anchor
	Align  Align
	Type   Type
	Params RenderParams
}

// NumberRenderer is the Layout engine for numeric values: integer and
// fractional decomposition with a precomputed two-digit fast path, same
// anchor/dedupe/culling contract as StringRenderer but no bidi
// (spec.md §4.6).
type NumberRenderer struct {
	src     GlyphSource
	canvasW, canvasH float32
	axis    AxisYOrigin

	fontIndex     int
	decimalPlaces int
	decimalMult   float64

	deadzoneRadius2 float32

	table     [100]digitPair
	tableInit bool

	accepted []*NumberInfo
	gates    []acceptedEntry

	quads []Quad
	dirty bool
}

// NewNumberRenderer builds a renderer with the given fractional precision
// (decimalPlaces, e.g. 4 for 0.0001 resolution).
func NewNumberRenderer(src GlyphSource, fontIndex int, decimalPlaces int, canvasW, canvasH float32, axis AxisYOrigin) *NumberRenderer {
	mult := 1.0
	for i := 0; i < decimalPlaces; i++ {
		mult *= 10
	}
	return &NumberRenderer{
		src:           src,
		fontIndex:     fontIndex,
		decimalPlaces: decimalPlaces,
		decimalMult:   mult,
		canvasW:       canvasW,
		canvasH:       canvasH,
		axis:          axis,
	}
}

// SetCanvasSize updates canvas dimensions used for visibility culling.
func (r *NumberRenderer) SetCanvasSize(w, h float32) {
	r.canvasW, r.canvasH = w, h
	r.dirty = true
}

// SetDeadzoneRadius sets the minimum pixel distance between two accepted
// numbers of the same type; 0 disables the gate.
func (r *NumberRenderer) SetDeadzoneRadius(radius float32) {
	r.deadzoneRadius2 = radius * radius
}

// Count returns the number of currently accepted numbers.
func (r *NumberRenderer) Count() int { return len(r.accepted) }

// Clear discards every accepted NumberInfo.
func (r *NumberRenderer) Clear() {
	r.accepted = nil
	r.gates = nil
	r.quads = nil
	r.dirty = true
}

// decompose separates sign and produces the digit streams described in
// spec.md §4.6: int_part, int_part_order (the highest power-of-10 divisor
// <= int_part, minimum 1), and fract_reverse (reversed fractional digits,
// left-shifted to preserve leading zeros).
type decomposition struct {
	negative      bool
	intPart       int64
	intPartOrder  int64
	fractReverse  int64
	fractDigits   int
}

func decompose(v float64, decimalPlaces int, decimalMult float64) decomposition {
	negative := v < 0
	mag := v
	if negative {
		mag = -mag
	}

	intPart := int64(mag)
	order := int64(1)
	for order*10 <= intPart {
		order *= 10
	}

	fractFloat := (mag - float64(intPart)) * decimalMult
	fract := int64(fractFloat + 0.5)

	// reverse the fixed-width fractional digit stream, left-padding with
	// zeros so leading zeros after the point are preserved (e.g. 0.0157
	// at precision 4 -> digits 0,1,5,7 -> reversed 7,5,1,0).
	var reversed int64
	for i := 0; i < decimalPlaces; i++ {
		digit := fract % 10
		fract /= 10
		reversed = reversed*10 + digit
	}

	if intPart == 0 && reversed == 0 {
		negative = false
	}

	return decomposition{
		negative:     negative,
		intPart:      intPart,
		intPartOrder: order,
		fractReverse: reversed,
		fractDigits:  decimalPlaces,
	}
}

// AddNumber submits one numeric value for layout. Same coordinate,
// dedupe, culling and deadzone contract as StringRenderer.AddString.
func (r *NumberRenderer) AddNumber(v float64, x, y float32, params RenderParams, anchor Anchor, align Align, typ Type) bool {
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

	d := decompose(v, r.decimalPlaces, r.decimalMult)
	key := formatDecomposition(d)
	candidate := acceptedEntry{x: x, y: y, scale: scale, align: align, anchor: anchor, typ: typ, key: key}
	if isDuplicate(r.gates, candidate) {
		return false
	}

	digitCount := decimalDigitCount(d.intPart) + d.fractDigits + 2
	if estimateOutsideCanvas(x, y, digitCount, r.src.MaxFontPx(), r.canvasW, r.canvasH) {
		return false
	}
	if withinDeadzone(r.gates, candidate, r.deadzoneRadius2) {
		return false
	}

	r.accepted = append(r.accepted, &NumberInfo{
		Value:  v,
		X:      x,
		Y:      y,
		Anchor: anchor,
		Align:  align,
		Type:   typ,
		Params: params,
	})
	r.gates = append(r.gates, candidate)
	r.dirty = true
	return true
}

func decimalDigitCount(v int64) int {
	if v == 0 {
		return 1
	}
	n := 0
	for v > 0 {
		n++
		v /= 10
	}
	return n
}

func formatDecomposition(d decomposition) string {
	buf := make([]byte, 0, 24)
	if d.negative {
		buf = append(buf, '-')
	}
	buf = appendInt(buf, d.intPart)
	buf = append(buf, '.')
	buf = appendInt(buf, d.fractReverse)
	return string(buf)
}

func appendInt(buf []byte, v int64) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	start := len(buf)
	for v > 0 {
		buf = append(buf, byte('0'+v%10))
		v /= 10
	}
	// reverse in place
	end := len(buf) - 1
	for i, j := start, end; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

// GenerateGeometry recomputes the quad stream for every accepted number.
// Idempotent: calling twice with no intervening AddNumber/Clear produces
// an identical quad stream.
func (r *NumberRenderer) GenerateGeometry() []Quad {
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

// ensureTable lazily fills the 100-entry fast-path table mapping value
// 00..99 to its two digit runes (spec.md §4.6, "Fast path").
func (r *NumberRenderer) ensureTable() {
	if r.tableInit {
		return
	}
	for v := 0; v < 100; v++ {
		r.table[v] = digitPair{hi: rune('0' + v/10), lo: rune('0' + v%10)}
	}
	r.tableInit = true
}

// digitSequence produces the ordered rune sequence to render left-to-
// right for one decomposition: sign, then the integer digits (emitted
// two at a time via the fast-path table by repeatedly dividing by
// int_part_order/100, per spec.md §4.6), a decimal point if there are
// fractional digits, then the fractional digits in natural
// (non-reversed) order.
func (r *NumberRenderer) digitSequence(d decomposition) []rune {
	var out []rune
	if d.negative {
		out = append(out, '-')
	}
	out = append(out, r.intDigitsFast(d.intPart, d.intPartOrder)...)
	if d.fractDigits > 0 {
		out = append(out, '.')
		out = append(out, reversedFractDigits(d.fractReverse, d.fractDigits)...)
	}
	return out
}

// intDigitsFast returns the decimal digits of a non-negative integer,
// most-significant first, consuming two digits at a time from the
// fast-path table once an odd leading digit (if any) has been peeled off.
func (r *NumberRenderer) intDigitsFast(intPart, order int64) []rune {
	if intPart == 0 {
		return []rune{'0'}
	}
	r.ensureTable()

	var out []rune
	remaining := intPart
	o := order
	if decimalDigitCount(intPart)%2 == 1 {
		lead := remaining / o
		out = append(out, rune('0'+lead))
		remaining %= o
		o /= 10
	}
	for o >= 1 {
		pairDivisor := o / 10
		if pairDivisor == 0 {
			pairDivisor = 1
		}
		v := remaining / pairDivisor
		remaining %= pairDivisor
		pair := r.table[v]
		out = append(out, pair.hi, pair.lo)
		o /= 100
	}
	return out
}

// reversedFractDigits un-reverses fract_reverse back into natural
// left-to-right fractional digit order, left-padded with zeros to width.
func reversedFractDigits(reversed int64, width int) []rune {
	digits := make([]rune, width)
	for i := 0; i < width; i++ {
		digits[i] = rune('0' + reversed%10)
		reversed /= 10
	}
	// digits is currently natural order already: fract_reverse stores the
	// digit stream reversed relative to natural order, so reading it
	// low-to-high here reproduces the natural (most-significant-first)
	// order directly.
	return digits
}

func (r *NumberRenderer) emit(info *NumberInfo) []Quad {
	scale := info.Params.Scale
	if scale == 0 {
		scale = 1
	}

	d := decompose(info.Value, r.decimalPlaces, r.decimalMult)
	seq := r.digitSequence(d)

	box := r.sequenceAABB(seq, scale)
	dx, dy := applyAnchor(info.X, info.Y, box, info.Anchor)

	var quads []Quad
	var penX float32
	for _, c := range seq {
		g, err := r.src.Request(r.fontIndex, c)
		if err != nil {
			continue
		}
		quads = append(quads, Quad{
			FontIndex: r.fontIndex,
			Glyph:     g,
			X:         dx + penX + float32(g.BmpX)*scale,
			Y:         dy + float32(g.BmpY)*scale,
			W:         float32(g.BmpW) * scale,
			H:         float32(g.BmpH) * scale,
			Params:    info.Params,
		})
		penX += float32(g.Adv>>6) * scale
	}
	return quads
}

func (r *NumberRenderer) sequenceAABB(seq []rune, scale float32) AABB {
	box := emptyAABB()
	var penX float32
	for _, c := range seq {
		g, err := r.src.Request(r.fontIndex, c)
		if err != nil {
			continue
		}
		gx := penX + float32(g.BmpX)*scale
		gy := float32(g.BmpY) * scale
		box = box.Extend(gx, gy, float32(g.BmpW)*scale, float32(g.BmpH)*scale)
		penX += float32(g.Adv>>6) * scale
	}
	if box.IsEmpty() {
		return AABB{}
	}
	return box
}
