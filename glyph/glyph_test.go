package glyph

import "testing"

func TestFontAddLookupRemove(t *testing.T) {
	f := NewFont("test", 16)
	f.Add(&Info{Code: 'A', BmpW: 4})
	f.Add(&Info{Code: 'B', BmpW: 5})
	f.Add(&Info{Code: 'C', BmpW: 6})

	for _, code := range f.LUT {
		_ = code
	}
	for code := range f.LUT {
		g, ok := f.Lookup(code)
		if !ok || g.Code != code {
			t.Fatalf("lut invariant broken for %v", code)
		}
	}

	f.Remove('B')
	if _, ok := f.Lookup('B'); ok {
		t.Fatal("expected B removed")
	}
	g, ok := f.Lookup('C')
	if !ok || g.Code != 'C' {
		t.Fatal("LUT invariant broken after removal")
	}
	if len(f.Glyphs) != 2 {
		t.Fatalf("len(Glyphs) = %d, want 2", len(f.Glyphs))
	}
}

func TestUnusedSet(t *testing.T) {
	u := NewUnusedSet()
	k := Key{FontIndex: 0, Code: 'x'}
	u.Add(k)
	if !u.Contains(k) {
		t.Fatal("expected key present")
	}
	if u.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", u.Len())
	}
	u.Remove(k)
	if u.Contains(k) {
		t.Fatal("expected key removed")
	}
	if u.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", u.Len())
	}
}

func TestUnusedSetOrder(t *testing.T) {
	u := NewUnusedSet()
	keys := []Key{{Code: 'a'}, {Code: 'b'}, {Code: 'c'}}
	for _, k := range keys {
		u.Add(k)
	}
	u.Remove(Key{Code: 'b'})
	got := u.Keys()
	want := []Key{{Code: 'a'}, {Code: 'c'}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
}

func TestIsWhitespace(t *testing.T) {
	cases := map[rune]bool{' ': true, '\n': true, '\t': true, 'A': false, '0': false}
	for r, want := range cases {
		if got := IsWhitespace(r); got != want {
			t.Errorf("IsWhitespace(%q) = %v, want %v", r, got, want)
		}
	}
}
