// Package bidi implements the bidi engine interface StringRenderer
// consumes (spec.md §6): a one-line logical-to-visual reorder plus Arabic
// letter shaping for right-to-left runs. It wraps
// golang.org/x/text/unicode/bidi for the reorder/run-direction algorithm
// and implements joining/shaping itself, following the algorithm in
// original_source's BidiHelper.cpp (RequiresBidi / CreateRenderString /
// ShapeArabic, built against ICU's ubidi/ushape in the original).
package bidi

import (
	"fmt"

	xbidi "golang.org/x/text/unicode/bidi"
)

// Direction is the direction of one run returned by ReorderOneLine.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

// Run is one directional run in visual order. RTL runs have already been
// shaped and reversed; concatenating Run.Text in order yields the visual
// string.
type Run struct {
	Text string
	Dir  Direction
}

// requiresBidiThreshold is the end of Latin Extended-A (spec.md §4.5,
// original_source BidiHelper::RequiresBidi): any code point above this is
// assumed to need bidi processing.
const requiresBidiThreshold = 383

// RequiresBidi reports whether text contains any code point beyond
// U+017F, mirroring BidiHelper::RequiresBidi.
func RequiresBidi(text string) bool {
	for _, r := range text {
		if r > requiresBidiThreshold {
			return true
		}
	}
	return false
}

// Engine is a reusable bidi processor. It holds no per-call state; a
// single Engine may be shared across goroutines.
type Engine struct{}

// NewEngine returns a ready-to-use Engine.
func NewEngine() *Engine { return &Engine{} }

// ReorderOneLine runs paragraph-level bidi analysis on text and returns
// its runs in visual order. Right-to-left runs are additionally passed
// through ShapeArabic and reversed, so that later left-to-right emission
// by the caller produces visually correct glyph order — matching
// BidiHelper::CreateRenderString, which does `tmp = ShapeArabic(tmp);
// tmp.reverse()` for RTL runs before appending them to the visual string.
func (e *Engine) ReorderOneLine(text string) ([]Run, error) {
	if text == "" {
		return nil, nil
	}

	var p xbidi.Paragraph
	if _, err := p.SetString(text); err != nil {
		return nil, fmt.Errorf("bidi: set paragraph: %w", err)
	}
	ordering, err := p.Order()
	if err != nil {
		return nil, fmt.Errorf("bidi: order paragraph: %w", err)
	}

	runs := make([]Run, 0, ordering.NumRuns())
	for i := 0; i < ordering.NumRuns(); i++ {
		r := ordering.Run(i)
		s := r.String()
		dir := LeftToRight
		if r.Direction() == xbidi.RightToLeft {
			dir = RightToLeft
			s = ShapeArabic(s)
			s = reverseRunes(s)
		}
		runs = append(runs, Run{Text: s, Dir: dir})
	}
	return runs, nil
}

func reverseRunes(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
