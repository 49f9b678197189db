package layout

import "testing"

func TestDecomposeBasic(t *testing.T) {
	d := decompose(1234.5678, 4, 10000)
	if d.intPart != 1234 {
		t.Fatalf("intPart: got %d, want 1234", d.intPart)
	}
	if d.intPartOrder != 1000 {
		t.Fatalf("intPartOrder: got %d, want 1000", d.intPartOrder)
	}
}

func TestDecomposeFractReverse(t *testing.T) {
	// 0.0157 at precision 4 -> digits 0,1,5,7 -> reversed stream 7,5,1,0.
	d := decompose(0.0157, 4, 10000)
	if d.intPart != 0 {
		t.Fatalf("intPart: got %d, want 0", d.intPart)
	}
	if d.fractReverse != 7510 {
		t.Fatalf("fractReverse: got %d, want 7510", d.fractReverse)
	}
}

func TestDecomposeNegativeZeroCollapses(t *testing.T) {
	d := decompose(-0.00001, 4, 10000)
	if d.negative {
		t.Fatal("expected -0.00001 to collapse to non-negative at this precision")
	}
}

func TestDecomposeNegative(t *testing.T) {
	d := decompose(-42.5, 1, 10)
	if !d.negative {
		t.Fatal("expected negative flag set")
	}
	if d.intPart != 42 {
		t.Fatalf("intPart: got %d, want 42", d.intPart)
	}
}

func TestIntDigitsFastEvenAndOdd(t *testing.T) {
	src := newFakeSource()
	r := NewNumberRenderer(src, 0, 0, 800, 600, AxisTop)

	got := string(r.intDigitsFast(1234, 1000))
	if got != "1234" {
		t.Fatalf("even-digit count: got %q, want 1234", got)
	}

	got = string(r.intDigitsFast(123, 100))
	if got != "123" {
		t.Fatalf("odd-digit count: got %q, want 123", got)
	}

	got = string(r.intDigitsFast(7, 1))
	if got != "7" {
		t.Fatalf("single digit: got %q, want 7", got)
	}
}

func TestAddNumberDedup(t *testing.T) {
	src := newFakeSource()
	r := NewNumberRenderer(src, 0, 2, 800, 600, AxisTop)

	if !r.AddNumber(12.34, 10, 10, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText) {
		t.Fatal("expected first add to succeed")
	}
	if r.AddNumber(12.34, 10, 10, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText) {
		t.Fatal("expected identical add to be rejected as duplicate")
	}
}

func TestNumberGenerateGeometryIdempotent(t *testing.T) {
	src := newFakeSource()
	r := NewNumberRenderer(src, 0, 2, 800, 600, AxisTop)
	r.AddNumber(-12.5, 10, 10, RenderParams{Scale: 1}, AnchorLeftTop, AlignLeft, TypeText)

	first := r.GenerateGeometry()
	second := r.GenerateGeometry()
	if len(first) != len(second) {
		t.Fatalf("expected stable quad count, got %d then %d", len(first), len(second))
	}
	// "-12.50" -> '-','1','2','.','5','0' = 6 quads.
	if len(first) != 6 {
		t.Fatalf("expected 6 quads for -12.50, got %d", len(first))
	}
}
