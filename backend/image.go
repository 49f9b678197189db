package backend

import (
	"image"

	"github.com/glyphatlas/glyphatlas/layout"
)

// ImageFormat selects the pixel layout Image composites into (spec.md §6).
type ImageFormat int

const (
	FormatGrayscale ImageFormat = iota
	FormatRGB
	FormatRGBA
)

// BlendFunc combines one glyph coverage byte with the destination pixel's
// existing channels and the quad's render color, producing the new
// destination channels in format's layout. coverage is 0..255.
type BlendFunc func(coverage byte, dst []byte, color layout.RGBA, format ImageFormat)

// ImageData is the finalized CPU-composited buffer.
type ImageData struct {
	Format ImageFormat
	W, H   int
	Pix    []byte
}

// Image is the CPU-compositing backend (spec.md §4.4): it blends glyph
// coverage directly into a byte buffer instead of issuing GPU draw calls,
// used for headless rendering/offline snapshotting.
type Image struct {
	format ImageFormat
	w, h   int
	pix    []byte
	blend  BlendFunc

	tightClamp bool
	padPx      int
	box        layout.AABB
	touched    bool

	emittedQuads int
}

// bytesPerPixel returns the channel count for format.
func bytesPerPixel(format ImageFormat) int {
	switch format {
	case FormatGrayscale:
		return 1
	case FormatRGB:
		return 3
	default:
		return 4
	}
}

// NewImage allocates a w*h canvas in the given format, zero-initialized.
// blend is the caller-supplied coverage blender; a nil blend falls back to
// DefaultBlend.
func NewImage(w, h int, format ImageFormat, blend BlendFunc) *Image {
	if blend == nil {
		blend = DefaultBlend
	}
	bpp := bytesPerPixel(format)
	return &Image{
		format: format,
		w:      w,
		h:      h,
		pix:    make([]byte, w*h*bpp),
		blend:  blend,
		box:    layout.AABB{MinX: 1 << 30, MinY: 1 << 30, MaxX: -(1 << 30), MaxY: -(1 << 30)},
	}
}

// SetTightClamp enables/disables the finalize-time crop to the union of
// quad AABBs, padded by padPx on every side (spec.md §4.4).
func (img *Image) SetTightClamp(on bool, padPx int) {
	img.tightClamp = on
	img.padPx = padPx
}

// DefaultBlend is a standard source-over compositor: dst = src*alpha +
// dst*(1-alpha), alpha = coverage/255 * color.A.
func DefaultBlend(coverage byte, dst []byte, color layout.RGBA, format ImageFormat) {
	a := float32(coverage) / 255 * color.A
	if a <= 0 {
		return
	}
	switch format {
	case FormatGrayscale:
		gray := byte(255 * color.R)
		dst[0] = byte(float32(gray)*a + float32(dst[0])*(1-a))
	case FormatRGB:
		dst[0] = byte(255*color.R*a + float32(dst[0])*(1-a))
		dst[1] = byte(255*color.G*a + float32(dst[1])*(1-a))
		dst[2] = byte(255*color.B*a + float32(dst[2])*(1-a))
	default: // RGBA
		dst[0] = byte(255*color.R*a + float32(dst[0])*(1-a))
		dst[1] = byte(255*color.G*a + float32(dst[1])*(1-a))
		dst[2] = byte(255*color.B*a + float32(dst[2])*(1-a))
		dst[3] = byte(255*a + float32(dst[3])*(1-a))
	}
}

// AddQuad blends one glyph's coverage bitmap into the canvas at (x, y),
// clipped to the canvas bounds (spec.md §4.4, add_quad).
func (img *Image) AddQuad(glyphW, glyphH int, coverage []byte, x, y float32, params layout.RenderParams) {
	bpp := bytesPerPixel(img.format)
	x0, y0 := int(x), int(y)

	for row := 0; row < glyphH; row++ {
		py := y0 + row
		if py < 0 || py >= img.h {
			continue
		}
		for col := 0; col < glyphW; col++ {
			px := x0 + col
			if px < 0 || px >= img.w {
				continue
			}
			c := coverage[row*glyphW+col]
			if c == 0 {
				continue
			}
			off := (py*img.w + px) * bpp
			img.blend(c, img.pix[off:off+bpp], params.Color, img.format)
		}
	}

	img.box = img.box.Extend(x, y, float32(glyphW), float32(glyphH))
	img.touched = true
}

// UploadAtlas is a no-op: Image blends directly from each glyph's RawData
// rather than sampling a packed texture (render.Backend).
func (img *Image) UploadAtlas(bytes []byte, w, h int, linearFilter bool) error { return nil }

// BeginEmit resets the per-frame quad counter (render.Backend).
func (img *Image) BeginEmit() { img.emittedQuads = 0 }

// EmitQuad blends one glyph's raw coverage bitmap directly into the canvas
// (render.Backend); texW/texH are unused since Image has no atlas texture.
func (img *Image) EmitQuad(q layout.Quad, texW, texH int) {
	if q.Glyph == nil || len(q.Glyph.RawData) == 0 {
		return
	}
	img.AddQuad(q.Glyph.BmpW, q.Glyph.BmpH, q.Glyph.RawData, q.X, q.Y, q.Params)
	img.emittedQuads++
}

// FinishEmit is a no-op: Image blends eagerly in EmitQuad (render.Backend).
func (img *Image) FinishEmit() error { return nil }

// QuadCount returns the number of quads accumulated since BeginEmit
// (render.Backend).
func (img *Image) QuadCount() int { return img.emittedQuads }

// Draw is a no-op beyond the pre/post hooks: compositing already happened
// in EmitQuad (render.Backend). Callers still call Finalize separately to
// obtain the ImageData.
func (img *Image) Draw(quadCount int, preCb, postCb func()) error {
	if preCb != nil {
		preCb()
	}
	if postCb != nil {
		postCb()
	}
	return nil
}

// NeedsRawData is true: Image blends each glyph's raw coverage bitmap
// directly and never samples a packed atlas texture (render.Backend).
func (img *Image) NeedsRawData() bool { return true }

// Finalize returns the composited buffer, optionally cropped to the union
// of every AddQuad call's AABB padded by padPx (spec.md §4.4, finalize).
func (img *Image) Finalize() ImageData {
	if !img.tightClamp || !img.touched {
		return ImageData{Format: img.format, W: img.w, H: img.h, Pix: img.pix}
	}

	minX := clampInt(int(img.box.MinX)-img.padPx, 0, img.w)
	minY := clampInt(int(img.box.MinY)-img.padPx, 0, img.h)
	maxX := clampInt(int(img.box.MaxX)+img.padPx, 0, img.w)
	maxY := clampInt(int(img.box.MaxY)+img.padPx, 0, img.h)
	if maxX <= minX || maxY <= minY {
		return ImageData{Format: img.format, W: 0, H: 0}
	}

	bpp := bytesPerPixel(img.format)
	cw, ch := maxX-minX, maxY-minY
	out := make([]byte, cw*ch*bpp)
	for row := 0; row < ch; row++ {
		srcOff := ((minY+row)*img.w + minX) * bpp
		dstOff := row * cw * bpp
		copy(out[dstOff:dstOff+cw*bpp], img.pix[srcOff:srcOff+cw*bpp])
	}
	return ImageData{Format: img.format, W: cw, H: ch, Pix: out}
}

// ToGoImage wraps ImageData in the matching standard library image.Image.
func (d ImageData) ToGoImage() image.Image {
	rect := image.Rect(0, 0, d.W, d.H)
	switch d.Format {
	case FormatGrayscale:
		return &image.Gray{Pix: d.Pix, Stride: d.W, Rect: rect}
	case FormatRGB:
		// image package has no tight RGB type; expand to NRGBA with opaque alpha.
		out := image.NewNRGBA(rect)
		for i := 0; i < d.W*d.H; i++ {
			out.Pix[i*4+0] = d.Pix[i*3+0]
			out.Pix[i*4+1] = d.Pix[i*3+1]
			out.Pix[i*4+2] = d.Pix[i*3+2]
			out.Pix[i*4+3] = 255
		}
		return out
	default:
		return &image.NRGBA{Pix: d.Pix, Stride: d.W * 4, Rect: rect}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
