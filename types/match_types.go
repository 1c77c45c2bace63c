package types

import "fmt"

// ComparableUnit is one paragraph or line of a document reduced to matchable text.
// Units are produced by the extractor and never mutated afterwards.
type ComparableUnit struct {
	Index    int    `json:"index"`    // 0-based position in the document
	Text     string `json:"text"`     // Normalized text used for matching
	Original string `json:"original"` // Content text before normalization
	Page     int    `json:"page"`
	Line     int    `json:"line"`

	// Derived is true when Page/Line were synthesized from Index rather than
	// read from the source layout.
	Derived bool `json:"derived"`

	// Offsets maps each rune of Text to the index of the rune it came from in Original.
	Offsets []int `json:"-"`
}

// RuneLen returns the length of the normalized text in runes
func (u ComparableUnit) RuneLen() int {
	return len(u.Offsets)
}

// OriginalSpan maps a span over the normalized text onto the original text.
// The result starts at the first matched rune and ends right after the last one,
// so whitespace removed by normalization inside the span is covered too.
func (u ComparableUnit) OriginalSpan(s Span) (Span, bool) {
	if s.Start < 0 || s.End > len(u.Offsets) || s.Start >= s.End {
		return Span{}, false
	}
	return Span{Start: u.Offsets[s.Start], End: u.Offsets[s.End-1] + 1}, true
}

// Span is a half-open rune range [Start, End)
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// MatchKind distinguishes verbatim unit duplicates from shared fragments
type MatchKind string

const (
	FullUnitMatch    MatchKind = "full_match"
	PartialSpanMatch MatchKind = "partial_match"
)

// MatchRecord is one correspondence between a span of a source unit and a span
// of a target unit. Both spans always have the same length.
type MatchRecord struct {
	Kind       MatchKind `json:"type"`
	SourceUnit int       `json:"doc1_para"`
	SourceSpan Span      `json:"doc1_pos"`
	SourcePage int       `json:"doc1_page"`
	SourceLine int       `json:"doc1_line"`
	TargetUnit int       `json:"doc2_para"`
	TargetSpan Span      `json:"doc2_pos"`
	TargetPage int       `json:"doc2_page"`
	TargetLine int       `json:"doc2_line"`
	Text       string    `json:"text"` // Shared normalized substring
}

// Key identifies a record for deduplication
func (m MatchRecord) Key() MatchKey {
	return MatchKey{
		SourceUnit: m.SourceUnit,
		SourceSpan: m.SourceSpan,
		TargetUnit: m.TargetUnit,
		TargetSpan: m.TargetSpan,
	}
}

// MatchKey is the identity of a MatchRecord
type MatchKey struct {
	SourceUnit int
	SourceSpan Span
	TargetUnit int
	TargetSpan Span
}

// Asset is one extracted binary blob (usually an image) with its page label
type Asset struct {
	Label string `json:"label"`
	Page  int    `json:"page"`
	Index int    `json:"index"`
	Data  []byte `json:"-"`
}

// AssetFingerprint is the hex content digest of an asset
type AssetFingerprint string

// AssetPairMatch pairs two byte-identical assets from the two documents
type AssetPairMatch struct {
	Fingerprint AssetFingerprint `json:"fingerprint"`
	A           Asset            `json:"a"`
	B           Asset            `json:"b"`
}
