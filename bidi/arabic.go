package bidi

// joinType classifies how an Arabic letter connects to its neighbors.
type joinType int

const (
	joinNone  joinType = iota // does not connect (anything not in the table)
	joinDual                  // connects on both sides (most letters)
	joinRight                 // connects only to the preceding letter (alef, dal, ...)
)

// presentationForms holds, per base letter, the isolated/initial/medial/
// final codepoints from the Unicode Arabic Presentation Forms-B block.
// A zero entry means that form does not exist for the letter (right-joining
// letters have no initial/medial form).
type presentationForms struct {
	join                          joinType
	isolated, initial, medial, final rune
}

// arabicForms covers the Arabic base alphabet. This is the scope
// u_shapeArabic's letter-shaping mode covers in the original C++ source;
// ligatures (e.g. lam-alef) are not modeled, matching the spec's
// kerning/ligature non-goal.
var arabicForms = map[rune]presentationForms{
	0x0627: {joinRight, 0xFE8D, 0, 0, 0xFE8E},        // ALEF
	0x0628: {joinDual, 0xFE8F, 0xFE91, 0xFE92, 0xFE90}, // BEH
	0x062A: {joinDual, 0xFE95, 0xFE97, 0xFE98, 0xFE96}, // TEH
	0x062B: {joinDual, 0xFE99, 0xFE9B, 0xFE9C, 0xFE9A}, // THEH
	0x062C: {joinDual, 0xFE9D, 0xFE9F, 0xFEA0, 0xFE9E}, // JEEM
	0x062D: {joinDual, 0xFEA1, 0xFEA3, 0xFEA4, 0xFEA2}, // HAH
	0x062E: {joinDual, 0xFEA5, 0xFEA7, 0xFEA8, 0xFEA6}, // KHAH
	0x062F: {joinRight, 0xFEA9, 0, 0, 0xFEAA},        // DAL
	0x0630: {joinRight, 0xFEAB, 0, 0, 0xFEAC},        // THAL
	0x0631: {joinRight, 0xFEAD, 0, 0, 0xFEAE},        // REH
	0x0632: {joinRight, 0xFEAF, 0, 0, 0xFEB0},        // ZAIN
	0x0633: {joinDual, 0xFEB1, 0xFEB3, 0xFEB4, 0xFEB2}, // SEEN
	0x0634: {joinDual, 0xFEB5, 0xFEB7, 0xFEB8, 0xFEB6}, // SHEEN
	0x0635: {joinDual, 0xFEB9, 0xFEBB, 0xFEBC, 0xFEBA}, // SAD
	0x0636: {joinDual, 0xFEBD, 0xFEBF, 0xFEC0, 0xFEBE}, // DAD
	0x0637: {joinDual, 0xFEC1, 0xFEC3, 0xFEC4, 0xFEC2}, // TAH
	0x0638: {joinDual, 0xFEC5, 0xFEC7, 0xFEC8, 0xFEC6}, // ZAH
	0x0639: {joinDual, 0xFEC9, 0xFECB, 0xFECC, 0xFECA}, // AIN
	0x063A: {joinDual, 0xFECD, 0xFECF, 0xFED0, 0xFECE}, // GHAIN
	0x0641: {joinDual, 0xFED1, 0xFED3, 0xFED4, 0xFED2}, // FEH
	0x0642: {joinDual, 0xFED5, 0xFED7, 0xFED8, 0xFED6}, // QAF
	0x0643: {joinDual, 0xFED9, 0xFEDB, 0xFEDC, 0xFEDA}, // KAF
	0x0644: {joinDual, 0xFEDD, 0xFEDF, 0xFEE0, 0xFEDE}, // LAM
	0x0645: {joinDual, 0xFEE1, 0xFEE3, 0xFEE4, 0xFEE2}, // MEEM
	0x0646: {joinDual, 0xFEE5, 0xFEE7, 0xFEE8, 0xFEE6}, // NOON
	0x0647: {joinDual, 0xFEE9, 0xFEEB, 0xFEEC, 0xFEEA}, // HEH
	0x0648: {joinRight, 0xFEED, 0, 0, 0xFEEE},        // WAW
	0x064A: {joinDual, 0xFEF1, 0xFEF3, 0xFEF4, 0xFEF2}, // YEH
}

func classify(r rune) joinType {
	f, ok := arabicForms[r]
	if !ok {
		return joinNone
	}
	return f.join
}

// connectsForward reports whether r can link to a following letter.
func connectsForward(r rune) bool { return classify(r) == joinDual }

// connectsBackward reports whether r can accept a link from a preceding
// letter.
func connectsBackward(r rune) bool {
	t := classify(r)
	return t == joinDual || t == joinRight
}

// ShapeArabic selects the isolated/initial/medial/final presentation form
// for each Arabic letter in s based on its neighbors, implementing the
// classic four-form joining rule (the scope of ICU's u_shapeArabic letter
// shaping). Runes with no table entry (non-Arabic, punctuation, digits)
// pass through unchanged.
func ShapeArabic(s string) string {
	runes := []rune(s)
	out := make([]rune, len(runes))

	for i, r := range runes {
		forms, ok := arabicForms[r]
		if !ok {
			out[i] = r
			continue
		}

		joinedPrev := i > 0 && connectsForward(runes[i-1]) && connectsBackward(r)
		joinedNext := i < len(runes)-1 && connectsForward(r) && connectsBackward(runes[i+1])

		var shaped rune
		switch {
		case joinedPrev && joinedNext && forms.medial != 0:
			shaped = forms.medial
		case joinedPrev && forms.final != 0:
			shaped = forms.final
		case joinedNext && forms.initial != 0:
			shaped = forms.initial
		default:
			shaped = forms.isolated
		}
		out[i] = shaped
	}

	return string(out)
}
