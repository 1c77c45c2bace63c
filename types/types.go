package types

import "unicode/utf8"

// DocumentFormat identifies the codec a document was decoded with
type DocumentFormat string

const (
	FormatDOCX DocumentFormat = "docx"
	FormatJSON DocumentFormat = "json"
	FormatPDF  DocumentFormat = "pdf"
)

// HighlightColor is a named highlight as understood by word processors
type HighlightColor string

const (
	HighlightNone      HighlightColor = ""
	HighlightYellow    HighlightColor = "yellow"
	HighlightTurquoise HighlightColor = "cyan"
)

// Document is the structured document model shared by the codecs and the annotator.
// It can be serialized to JSON as-is.
type Document struct {
	Name       string         `json:"name"`
	Format     DocumentFormat `json:"format"`
	Paragraphs []Paragraph    `json:"paragraphs"`

	// MaxBookmarkID is the highest bookmark id already present in the source,
	// including bookmarks the codec kept as opaque markup.
	MaxBookmarkID int `json:"max_bookmark_id,omitempty"`
}

// Paragraph is an ordered list of runs plus point bookmarks
type Paragraph struct {
	Style     string     `json:"style,omitempty"`
	Props     string     `json:"props,omitempty"` // Opaque paragraph properties, written back verbatim
	Runs      []Run      `json:"runs"`
	Bookmarks []Bookmark `json:"bookmarks,omitempty"`

	// Page and Line are authoritative positions when the source format knows them (PDF).
	// Zero means unknown.
	Page int `json:"page,omitempty"`
	Line int `json:"line,omitempty"`
}

// Run is a span of text sharing one set of character attributes
type Run struct {
	Text      string         `json:"text,omitempty"`
	Bold      bool           `json:"bold,omitempty"`
	Italic    bool           `json:"italic,omitempty"`
	Color     string         `json:"color,omitempty"` // RRGGBB
	Highlight HighlightColor `json:"highlight,omitempty"`
	Style     string         `json:"style,omitempty"`

	// XRef marks a cross-reference label inserted by the annotator.
	// Its text is not part of the paragraph content.
	XRef bool `json:"xref,omitempty"`

	// Raw holds inline markup the codec does not model (field codes, existing
	// bookmarks, drawings). A raw run carries no text.
	Raw string `json:"raw,omitempty"`

	// Extra holds run properties the codec does not model, keyed by element name.
	Extra []RawProperty `json:"extra,omitempty"`
}

// RawProperty is one opaque property element preserved across a rewrite
type RawProperty struct {
	Name string `json:"name"`
	XML  string `json:"xml"`
}

// Bookmark is a named point inside a paragraph
type Bookmark struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Offset int    `json:"offset"` // Rune offset into the paragraph content text
}

// SameFormatting reports whether two runs carry identical character attributes
func (r Run) SameFormatting(o Run) bool {
	if r.Bold != o.Bold || r.Italic != o.Italic || r.Color != o.Color ||
		r.Highlight != o.Highlight || r.Style != o.Style || r.XRef != o.XRef {
		return false
	}
	if len(r.Extra) != len(o.Extra) {
		return false
	}
	for i := range r.Extra {
		if r.Extra[i] != o.Extra[i] {
			return false
		}
	}
	return true
}

// IsContent reports whether the run contributes to the paragraph content text
func (r Run) IsContent() bool {
	return !r.XRef && r.Raw == ""
}

// Text returns the paragraph content text, excluding cross-reference labels
func (p Paragraph) Text() string {
	var n int
	for _, r := range p.Runs {
		if r.IsContent() {
			n += len(r.Text)
		}
	}
	buf := make([]byte, 0, n)
	for _, r := range p.Runs {
		if r.IsContent() {
			buf = append(buf, r.Text...)
		}
	}
	return string(buf)
}

// RuneLen returns the length of the content text in runes
func (p Paragraph) RuneLen() int {
	return utf8.RuneCountInString(p.Text())
}

// Clone returns a deep copy of the paragraph
func (p Paragraph) Clone() Paragraph {
	out := p
	out.Runs = make([]Run, len(p.Runs))
	for i, r := range p.Runs {
		out.Runs[i] = r
		if r.Extra != nil {
			out.Runs[i].Extra = append([]RawProperty(nil), r.Extra...)
		}
	}
	if p.Bookmarks != nil {
		out.Bookmarks = append([]Bookmark(nil), p.Bookmarks...)
	}
	return out
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Paragraphs = make([]Paragraph, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		out.Paragraphs[i] = p.Clone()
	}
	return &out
}

// NewTextDocument builds a document with one plain run per paragraph
func NewTextDocument(name string, paragraphs ...string) *Document {
	doc := &Document{Name: name, Format: FormatJSON}
	for _, text := range paragraphs {
		doc.Paragraphs = append(doc.Paragraphs, Paragraph{Runs: []Run{{Text: text}}})
	}
	return doc
}
