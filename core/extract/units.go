// Package extract turns structured documents into ordered comparable units.
//
// Page and line numbers of units are read from the document when the source
// format knows them (PDF lines). Otherwise they are synthesized from the unit
// index assuming a fixed number of paragraphs per page:
//
//	page = index/LinesPerPage + 1
//	line = index%LinesPerPage + 1
//
// This is an approximation with no knowledge of the rendered layout; such units
// carry Derived=true so callers can present the numbers accordingly.
package extract

import (
	"unicode"

	"golang.org/x/text/width"

	"github.com/benedoc-inc/overlap/types"
)

// DefaultLinesPerPage is the paragraphs-per-page assumption used for derived positions
const DefaultLinesPerPage = 50

// Normalizer selects which runes survive normalization
type Normalizer string

const (
	// NormalizeWhitespace drops whitespace so matches are insensitive to reflow
	NormalizeWhitespace Normalizer = "whitespace"
	// NormalizeHanOnly keeps Han ideographs only, dropping punctuation, digits and latin text
	NormalizeHanOnly Normalizer = "han"
)

// Options configures unit extraction
type Options struct {
	Normalizer   Normalizer
	FoldWidth    bool // Map full-width/half-width variants to their canonical form
	LinesPerPage int
	MinRunes     int // Units with fewer normalized runes are dropped (0 keeps all)
}

// DefaultOptions returns whitespace normalization with the 50 paragraphs per page heuristic
func DefaultOptions() Options {
	return Options{
		Normalizer:   NormalizeWhitespace,
		LinesPerPage: DefaultLinesPerPage,
	}
}

// ValidNormalizer reports whether n names a known normalizer
func ValidNormalizer(n Normalizer) bool {
	switch n {
	case NormalizeWhitespace, NormalizeHanOnly:
		return true
	}
	return false
}

// ExtractUnits extracts one unit per paragraph using DefaultOptions
func ExtractUnits(doc *types.Document) []types.ComparableUnit {
	return ExtractUnitsWithOptions(doc, DefaultOptions())
}

// ExtractUnitsWithOptions extracts one unit per paragraph in document order.
// Unit indices always equal paragraph indices, even when MinRunes drops units.
func ExtractUnitsWithOptions(doc *types.Document, opts Options) []types.ComparableUnit {
	if doc == nil {
		return nil
	}
	perPage := opts.LinesPerPage
	if perPage <= 0 {
		perPage = DefaultLinesPerPage
	}

	units := make([]types.ComparableUnit, 0, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		original := p.Text()
		text, offsets := Normalize(original, opts)
		if opts.MinRunes > 0 && len(offsets) < opts.MinRunes {
			continue
		}

		u := types.ComparableUnit{
			Index:    i,
			Text:     text,
			Original: original,
			Offsets:  offsets,
		}
		if p.Page > 0 {
			u.Page, u.Line = p.Page, p.Line
		} else {
			u.Page, u.Line = PageLine(i, perPage)
			u.Derived = true
		}
		units = append(units, u)
	}
	return units
}

// Normalize reduces text for matching and returns, for every rune kept, the
// rune index it came from in text. Width folding is rune-for-rune, so offsets
// stay exact.
func Normalize(text string, opts Options) (string, []int) {
	out := make([]rune, 0, len(text))
	offsets := make([]int, 0, len(text))
	idx := 0
	for _, r := range text {
		if opts.FoldWidth {
			if f := width.LookupRune(r).Folded(); f != 0 {
				r = f
			}
		}
		if keep(r, opts.Normalizer) {
			out = append(out, r)
			offsets = append(offsets, idx)
		}
		idx++
	}
	return string(out), offsets
}

func keep(r rune, n Normalizer) bool {
	if n == NormalizeHanOnly {
		return unicode.Is(unicode.Han, r)
	}
	return !unicode.IsSpace(r)
}

// PageLine derives 1-based page and line numbers from a 0-based unit index
func PageLine(index, perPage int) (page, line int) {
	if perPage <= 0 {
		perPage = DefaultLinesPerPage
	}
	return index/perPage + 1, index%perPage + 1
}

// ByIndex returns the units keyed by their index
func ByIndex(units []types.ComparableUnit) map[int]types.ComparableUnit {
	m := make(map[int]types.ComparableUnit, len(units))
	for _, u := range units {
		m[u.Index] = u
	}
	return m
}
