// Package atlas packs rasterized glyphs into a single grayscale texture.
//
// Two strategies are supported: a tight guillotine packer with a
// randomized A/B split (best density, used for variable glyph sizes) and a
// fixed-grid bin packer (predictable layout, cheap bulk eviction). Both
// share one eviction protocol that reclaims space held by glyphs the
// caller has marked unused.
package atlas

import (
	"errors"
	"image"
	"image/png"
	"math/rand"
	"os"
	"sort"

	"github.com/glyphatlas/glyphatlas/glyph"
)

// Method selects the packing strategy.
type Method int

const (
	Tight Method = iota
	Grid
)

// PackedInfo records one glyph's residency in the atlas.
type PackedInfo struct {
	X, Y, W, H int
	Filled     bool // true once the byte copy into the atlas has happened
}

// area in pixels, ignoring border, of the core glyph this entry holds.
func (p PackedInfo) coreArea(border int) int {
	w := p.W - 2*border
	h := p.H - 2*border
	if w < 0 || h < 0 {
		return 0
	}
	return w * h
}

// ErrAtlasFull names the condition where at least one glyph could not be
// placed even after eviction. Pack reports that condition by returning
// false; it does not return this error.
var ErrAtlasFull = errors.New("atlas: could not place every glyph")

// Packer owns one W x H grayscale bitmap and the placement state for every
// glyph handed to it via SetGlyphs.
type Packer struct {
	w, h, border int
	method       Method
	bitmap       []byte

	fonts  []*glyph.Font
	unused *glyph.UnusedSet

	packed map[glyph.Key]*PackedInfo
	erased map[glyph.Key]struct{}

	// tight mode state
	arena *nodeArena
	rng   *rand.Rand

	// grid mode state
	binW, binH   int
	bins         []PackedInfo       // template rect for every bin, by bin index
	binOfGlyph   map[glyph.Key]int  // glyph -> bin index it currently occupies
	glyphInBin   map[int]glyph.Key  // bin index -> glyph currently occupying it (if any)
	freeBinQueue []int              // bin indices with nothing placed in them
	avgGlyphSize float64
	placedCount  int // bin placements folded into avgGlyphSize

	freePixels int
	debugBorder bool
}

// New returns a Packer for a w x h atlas with the given border (reserved
// margin around each glyph; 0 disables it). Starts in tight-packing mode.
func New(w, h, border int) *Packer {
	p := &Packer{
		w:      w,
		h:      h,
		border: border,
		packed: make(map[glyph.Key]*PackedInfo),
		erased: make(map[glyph.Key]struct{}),
		bitmap: make([]byte, w*h),
		rng:    rand.New(rand.NewSource(1)),
	}
	p.SetTight()
	return p
}

// SetDebugBorder turns on the debug visible-border paint (§4.2.4).
func (p *Packer) SetDebugBorder(on bool) { p.debugBorder = on }

// Width returns the atlas width in pixels.
func (p *Packer) Width() int { return p.w }

// Height returns the atlas height in pixels.
func (p *Packer) Height() int { return p.h }

// TextureBytes returns the packed atlas bitmap (w*h bytes, 1 byte/pixel).
func (p *Packer) TextureBytes() []byte { return p.bitmap }

// FreePixels returns the number of atlas pixels not currently occupied by
// any packed glyph's core (border bytes excluded from both sides of the
// accounting).
func (p *Packer) FreePixels() int { return p.freePixels }

// PackedInfos exposes the current placement table, keyed by (font, code).
func (p *Packer) PackedInfos() map[glyph.Key]*PackedInfo { return p.packed }

// SaveDebugPNG writes the current atlas bitmap to path as a grayscale PNG
// (spec.md §6, "the atlas may be saved to a PNG for debugging").
func (p *Packer) SaveDebugPNG(path string) error {
	img := &image.Gray{Pix: p.bitmap, Stride: p.w, Rect: image.Rect(0, 0, p.w, p.h)}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}

// SetGlyphs lends the packer the full fleet of fonts plus the shared
// unused set it should consult during eviction.
func (p *Packer) SetGlyphs(fonts []*glyph.Font, unused *glyph.UnusedSet) {
	p.fonts = fonts
	p.unused = unused
}

// SetTight switches to guillotine tight packing. Any call to SetTight or
// SetGrid fully resets packer state (raw bitmap bytes are left as-is until
// the next Pack, per the contract in spec.md §4.2).
func (p *Packer) SetTight() {
	p.method = Tight
	p.resetPlacement()
	p.arena = newNodeArena()
	p.arena.push(0, 0, p.w, p.h)
}

// SetGrid switches to fixed-grid bin packing, tiling the atlas row-major
// with bins of size (binW+2*border) x (binH+2*border).
func (p *Packer) SetGrid(binW, binH int) {
	p.method = Grid
	p.binW, p.binH = binW, binH
	p.resetPlacement()

	cellW := binW + 2*p.border
	cellH := binH + 2*p.border
	if cellW <= 0 || cellH <= 0 {
		return
	}

	p.bins = nil
	p.binOfGlyph = make(map[glyph.Key]int)
	p.glyphInBin = make(map[int]glyph.Key)
	p.freeBinQueue = nil

	griddedH := p.h - p.h%cellH
	griddedW := p.w - p.w%cellW
	for y := 0; y < griddedH; y += cellH {
		for x := 0; x < griddedW; x += cellW {
			idx := len(p.bins)
			p.bins = append(p.bins, PackedInfo{X: x, Y: y, W: cellW, H: cellH})
			p.freeBinQueue = append(p.freeBinQueue, idx)
		}
	}
}

func (p *Packer) resetPlacement() {
	p.packed = make(map[glyph.Key]*PackedInfo)
	p.erased = make(map[glyph.Key]struct{})
	p.freePixels = p.w * p.h
	p.avgGlyphSize = 2500
	p.placedCount = 0
}

// Pack ensures every non-whitespace glyph in every font has a PackedInfo
// and an atlas position, then copies any newly-placed glyph's bitmap into
// the atlas. Returns false if at least one glyph could not be placed even
// after eviction.
func (p *Packer) Pack() bool {
	ok := true
	switch p.method {
	case Tight:
		ok = p.packTight()
	case Grid:
		ok = p.packGrid()
	}
	p.copyToTexture()
	for k := range p.erased {
		delete(p.erased, k)
	}
	p.syncGlyphPositions()
	return ok
}

// syncGlyphPositions writes each placed glyph's core (non-border) texel
// origin back onto glyph.Info.Tx/Ty, so layout/backend code can read a
// glyph's atlas position straight off the Info it already holds instead
// of going back through the packer's placement table.
func (p *Packer) syncGlyphPositions() {
	for fi, f := range p.fonts {
		for _, g := range f.Glyphs {
			key := glyph.Key{FontIndex: fi, Code: g.Code}
			info, ok := p.packed[key]
			if !ok {
				continue
			}
			g.Tx = info.X + p.border
			g.Ty = info.Y + p.border
		}
	}
}

type pendingGlyph struct {
	key glyph.Key
	g   *glyph.Info
}

func (p *Packer) pending() []pendingGlyph {
	var out []pendingGlyph
	for fi, f := range p.fonts {
		for _, g := range f.Glyphs {
			if glyph.IsWhitespace(g.Code) || g.Evicted {
				continue
			}
			key := glyph.Key{FontIndex: fi, Code: g.Code}
			if _, ok := p.packed[key]; ok {
				continue
			}
			out = append(out, pendingGlyph{key: key, g: g})
		}
	}
	return out
}

func (p *Packer) packTight() bool {
	pend := p.pending()
	sort.SliceStable(pend, func(i, j int) bool {
		ai := pend[i].g.BmpW * pend[i].g.BmpH
		aj := pend[j].g.BmpW * pend[j].g.BmpH
		return ai > aj
	})

	ok := true
	for _, item := range pend {
		reqW := item.g.BmpW + 2*p.border
		reqH := item.g.BmpH + 2*p.border

		if x, y, found := p.findAndSplit(reqW, reqH); found {
			p.place(item.key, x, y, reqW, reqH)
			continue
		}
		if x, y, evicted := p.evict(reqW, reqH); evicted {
			p.place(item.key, x, y, reqW, reqH)
			continue
		}
		ok = false
	}
	return ok
}

// findAndSplit walks the tight free list for the first node that fits,
// guillotines it, and returns the fitted rectangle's origin. Nodes that
// fail the fit check are rotated to the tail so future probes amortize
// past them quickly.
func (p *Packer) findAndSplit(reqW, reqH int) (x, y int, ok bool) {
	attempts := len(p.arena.free)
	for i := 0; i < attempts; i++ {
		idx := p.arena.free[0]
		n := p.arena.nodes[idx]
		if n.w >= reqW && n.h >= reqH {
			p.split(idx, reqW, reqH)
			return n.x, n.y, true
		}
		p.arena.rotateToTail(0)
	}
	return 0, 0, false
}

// split guillotines node idx into the fitted rectangle (origin returned to
// the caller via the node's own x,y) plus two complementary free
// rectangles, picking one of two valid guillotine orientations at random
// and keeping the other variant's rectangles cross-linked in the free list
// (see node.go).
func (p *Packer) split(idx int, reqW, reqH int) {
	n := p.arena.nodes[idx]
	x, y, w, h := n.x, n.y, n.w, n.h

	p.arena.consume(idx)

	if w == reqW && h == reqH {
		return // exact fit, nothing left to split
	}

	// Variant A: right strip spans the fitted rect's height; down strip
	// spans the full node width.
	aRightX, aRightY, aRightW, aRightH := x+reqW, y, w-reqW, reqH
	aDownX, aDownY, aDownW, aDownH := x, y+reqH, w, h-reqH

	// Variant B: right strip spans the full node height; down strip spans
	// only the fitted rect's width.
	bRightX, bRightY, bRightW, bRightH := x+reqW, y, w-reqW, h
	bDownX, bDownY, bDownW, bDownH := x, y+reqH, reqW, h-reqH

	// The coin flip picks which variant is enqueued first, so later probes
	// reach its rectangles before the other variant's.
	var aRight, aDown, bRight, bDown int
	if p.rng.Intn(2) == 0 {
		aRight = p.arena.push(aRightX, aRightY, aRightW, aRightH)
		aDown = p.arena.push(aDownX, aDownY, aDownW, aDownH)
		bRight = p.arena.push(bRightX, bRightY, bRightW, bRightH)
		bDown = p.arena.push(bDownX, bDownY, bDownW, bDownH)
	} else {
		bRight = p.arena.push(bRightX, bRightY, bRightW, bRightH)
		bDown = p.arena.push(bDownX, bDownY, bDownW, bDownH)
		aRight = p.arena.push(aRightX, aRightY, aRightW, aRightH)
		aDown = p.arena.push(aDownX, aDownY, aDownW, aDownH)
	}

	link := func(a, b, altA, altB int) {
		if a >= 0 {
			p.arena.nodes[a].sibling = b
			p.arena.nodes[a].alt = [2]int{altA, altB}
			p.arena.nodes[a].hasOthers = altA >= 0 || altB >= 0
		}
	}
	link(aRight, aDown, bRight, bDown)
	link(aDown, aRight, bRight, bDown)
	link(bRight, bDown, aRight, aDown)
	link(bDown, bRight, aRight, aDown)
}

func (p *Packer) place(key glyph.Key, x, y, w, h int) {
	p.packed[key] = &PackedInfo{X: x, Y: y, W: w, H: h, Filled: false}
	p.freePixels -= (w - 2*p.border) * (h - 2*p.border)
}

// evict implements the shared eviction protocol (spec.md §4.2.3): scan the
// unused set in order, accept the first entry whose current PackedInfo is
// at least as large as the request. A successful eviction returns the
// origin of the erased glyph's rectangle, where the new glyph is placed
// with no re-split.
func (p *Packer) evict(reqW, reqH int) (x, y int, ok bool) {
	if p.unused == nil {
		return 0, 0, false
	}
	for _, key := range p.unused.Keys() {
		info, exists := p.packed[key]
		if !exists {
			continue
		}
		if info.W >= reqW && info.H >= reqH {
			p.erased[key] = struct{}{}
			x, y = info.X, info.Y
			p.removeGlyph(key)
			return x, y, true
		}
	}
	return 0, 0, false
}

// removeGlyph releases an evicted glyph's atlas placement. Per spec.md
// §3's GlyphInfo lifecycle, eviction only drops the PackedInfo: the
// GlyphInfo itself (and its raw_data, if fontbuilder hasn't let the
// atlas absorb it yet) stays in the font's LUT until fontbuilder
// explicitly drops it.
func (p *Packer) removeGlyph(key glyph.Key) {
	if info, ok := p.packed[key]; ok {
		p.freePixels += info.coreArea(p.border)
	}
	delete(p.packed, key)
	p.unused.Remove(key)
	if g, ok := p.lookup(key); ok {
		g.Evicted = true
	}
}

func (p *Packer) packGrid() bool {
	pend := p.pending()
	ok := true
	for _, item := range pend {
		if len(p.freeBinQueue) == 0 {
			// Per spec.md §4.2.2: bulk-evict the whole unused set when it
			// is estimated to reclaim >=40% of the atlas; otherwise fall
			// through to one-at-a-time eviction below.
			p.maybeBulkEvict()
		}
		if p.placeInBin(item) {
			continue
		}
		ok = false
	}
	return ok
}

func (p *Packer) placeInBin(item pendingGlyph) bool {
	if len(p.freeBinQueue) > 0 {
		idx := p.freeBinQueue[0]
		p.freeBinQueue = p.freeBinQueue[1:]
		p.assignBin(item, idx)
		return true
	}
	if x, y, ok := p.evict(p.binCellW(), p.binCellH()); ok {
		// Reuse the freed bin directly; find which bin index owned (x,y).
		for idx, b := range p.bins {
			if b.X == x && b.Y == y {
				p.assignBin(item, idx)
				return true
			}
		}
	}
	return false
}

func (p *Packer) binCellW() int { return p.binW + 2*p.border }
func (p *Packer) binCellH() int { return p.binH + 2*p.border }

func (p *Packer) assignBin(item pendingGlyph, binIdx int) {
	b := p.bins[binIdx]
	p.binOfGlyph[item.key] = binIdx
	p.glyphInBin[binIdx] = item.key

	// Clip oversized glyphs to the bin instead of scaling (open question
	// in spec.md §9: preserved as the faithful, if lossy, behavior).
	w, h := b.W, b.H
	p.packed[item.key] = &PackedInfo{X: b.X, Y: b.Y, W: w, H: h, Filled: false}
	p.freePixels -= (w - 2*p.border) * (h - 2*p.border)

	area := item.g.BmpW * item.g.BmpH
	p.placedCount++
	p.avgGlyphSize += (float64(area) - p.avgGlyphSize) / float64(p.placedCount)
}

// maybeBulkEvict performs a bulk eviction of the entire unused set when
// doing so is estimated to reclaim at least 40% of the atlas; otherwise
// eviction proceeds one-at-a-time via evict (called by the retry in
// placeInBin).
func (p *Packer) maybeBulkEvict() {
	if p.unused == nil || p.unused.Len() == 0 {
		return
	}
	estimate := float64(p.unused.Len()) * p.avgGlyphSize
	threshold := 0.4 * float64(p.w*p.h)
	if estimate < threshold {
		return
	}
	for _, key := range p.unused.Keys() {
		binIdx, ok := p.binOfGlyph[key]
		if !ok {
			continue
		}
		p.erased[key] = struct{}{}
		p.removeGlyph(key)
		delete(p.binOfGlyph, key)
		delete(p.glyphInBin, binIdx)
		p.freeBinQueue = append(p.freeBinQueue, binIdx)
	}
}

// copyToTexture paints the border and copies bitmap rows for every placed
// glyph whose Filled flag is still false.
func (p *Packer) copyToTexture() {
	for key, info := range p.packed {
		if info.Filled {
			continue
		}
		p.drawBorder(info.X, info.Y, info.W, info.H, 0)

		g, ok := p.lookup(key)
		if ok && g.RawData != nil {
			p.copyGlyphBytes(g, info)
			// The atlas has absorbed the bytes (spec.md §3, GlyphInfo
			// lifecycle); fontbuilder re-rasterizes from the face on the
			// glyph's next Request.
			g.RawData = nil
		}
		if p.debugBorder {
			p.drawDebugMargin(info.X, info.Y, info.W, info.H, p.border, 125)
		}
		info.Filled = true
	}
}

func (p *Packer) lookup(key glyph.Key) (*glyph.Info, bool) {
	if key.FontIndex < 0 || key.FontIndex >= len(p.fonts) {
		return nil, false
	}
	return p.fonts[key.FontIndex].Lookup(key.Code)
}

// drawDebugMargin paints a visible marker value on the border band only,
// leaving the just-copied glyph core untouched.
func (p *Packer) drawDebugMargin(x, y, w, h, border int, val byte) {
	if border <= 0 {
		return
	}
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			if row < y+border || row >= y+h-border || col < x+border || col >= x+w-border {
				if row >= 0 && row < p.h && col >= 0 && col < p.w {
					p.bitmap[row*p.w+col] = val
				}
			}
		}
	}
}

func (p *Packer) drawBorder(x, y, w, h int, val byte) {
	for row := y; row < y+h && row < p.h; row++ {
		if row < 0 {
			continue
		}
		rowOff := row * p.w
		for col := x; col < x+w && col < p.w; col++ {
			if col < 0 {
				continue
			}
			p.bitmap[rowOff+col] = val
		}
	}
}

func (p *Packer) copyGlyphBytes(g *glyph.Info, info *PackedInfo) {
	destX := info.X + p.border
	destY := info.Y + p.border

	copyW := g.BmpW
	copyH := g.BmpH
	// Grid mode may have clipped the available cell; never write past it.
	if maxW := info.W - 2*p.border; copyW > maxW {
		copyW = maxW
	}
	if maxH := info.H - 2*p.border; copyH > maxH {
		copyH = maxH
	}

	for row := 0; row < copyH; row++ {
		srcOff := row * g.BmpW
		dstOff := (destY+row)*p.w + destX
		if destY+row < 0 || destY+row >= p.h {
			continue
		}
		copy(p.bitmap[dstOff:dstOff+copyW], g.RawData[srcOff:srcOff+copyW])
	}
}
