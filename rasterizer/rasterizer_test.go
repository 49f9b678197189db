package rasterizer

import "testing"

func TestNewTruetypeFaceRejectsInvalidData(t *testing.T) {
	data := []byte("not a real font")
	if _, err := NewTruetypeFace(data); err == nil {
		t.Fatal("expected parse error for garbage font data")
	}
}

func TestTruetypeFaceRequiresPixelSizeBeforeLoadGlyph(t *testing.T) {
	f := &TruetypeFace{}
	if _, err := f.LoadGlyph('A'); err == nil {
		t.Fatal("expected error when LoadGlyph is called before SetPixelSize")
	}
}

func TestTruetypeFaceSetPixelSizeValidation(t *testing.T) {
	f := &TruetypeFace{}
	if err := f.SetPixelSize(0); err == nil {
		t.Fatal("expected error for zero pixel size")
	}
	if err := f.SetPixelSize(-4); err == nil {
		t.Fatal("expected error for negative pixel size")
	}
	if err := f.SetPixelSize(16); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.PixelSize() != 16 {
		t.Fatalf("PixelSize() = %d, want 16", f.PixelSize())
	}
}

func TestOpenTypeFaceRejectsInvalidPixelSize(t *testing.T) {
	o := &OpenTypeFace{}
	if err := o.SetPixelSize(0); err == nil {
		t.Fatal("expected error for zero pixel size")
	}
}

func TestOpenTypeFaceRequiresPixelSizeBeforeLoadGlyph(t *testing.T) {
	o := &OpenTypeFace{}
	if _, err := o.LoadGlyph('A'); err == nil {
		t.Fatal("expected error when LoadGlyph is called before SetPixelSize")
	}
}
