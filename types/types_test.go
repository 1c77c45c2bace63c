package types

import "testing"

func TestParagraph_Text(t *testing.T) {
	p := Paragraph{Runs: []Run{
		{Text: "Hello "},
		{Raw: `<w:bookmarkStart w:id="1" w:name="x"/>`},
		{Text: "wörld", Bold: true},
		{Text: "    page 2, line 7", XRef: true},
	}}

	if got := p.Text(); got != "Hello wörld" {
		t.Errorf("Text() = %q, want %q", got, "Hello wörld")
	}
	if got := p.RuneLen(); got != 11 {
		t.Errorf("RuneLen() = %d, want 11", got)
	}
}

func TestRun_SameFormatting(t *testing.T) {
	base := Run{Bold: true, Color: "FF0000", Extra: []RawProperty{{Name: "sz", XML: `<w:sz w:val="24"/>`}}}

	tests := []struct {
		name string
		o    Run
		want bool
	}{
		{"identical", Run{Text: "other text", Bold: true, Color: "FF0000", Extra: []RawProperty{{Name: "sz", XML: `<w:sz w:val="24"/>`}}}, true},
		{"bold differs", Run{Color: "FF0000", Extra: base.Extra}, false},
		{"highlight differs", Run{Bold: true, Color: "FF0000", Highlight: HighlightYellow, Extra: base.Extra}, false},
		{"extra differs", Run{Bold: true, Color: "FF0000"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.SameFormatting(tt.o); got != tt.want {
				t.Errorf("SameFormatting() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocument_Clone(t *testing.T) {
	doc := NewTextDocument("a.json", "first", "second")
	doc.Paragraphs[0].Runs[0].Extra = []RawProperty{{Name: "sz", XML: "<w:sz/>"}}
	doc.Paragraphs[0].Bookmarks = []Bookmark{{ID: 1, Name: "b", Offset: 2}}

	c := doc.Clone()
	c.Paragraphs[0].Runs[0].Text = "changed"
	c.Paragraphs[0].Runs[0].Extra[0].XML = "changed"
	c.Paragraphs[0].Bookmarks[0].Offset = 5

	if doc.Paragraphs[0].Runs[0].Text != "first" {
		t.Error("Clone shares runs")
	}
	if doc.Paragraphs[0].Runs[0].Extra[0].XML != "<w:sz/>" {
		t.Error("Clone shares run properties")
	}
	if doc.Paragraphs[0].Bookmarks[0].Offset != 2 {
		t.Error("Clone shares bookmarks")
	}

	var nilDoc *Document
	if nilDoc.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestNewTextDocument(t *testing.T) {
	doc := NewTextDocument("a.json", "one", "two")
	if doc.Format != FormatJSON || doc.Name != "a.json" {
		t.Errorf("unexpected document header %+v", doc)
	}
	if len(doc.Paragraphs) != 2 || doc.Paragraphs[1].Text() != "two" {
		t.Errorf("unexpected paragraphs %+v", doc.Paragraphs)
	}
}

func TestComparableUnit_OriginalSpan(t *testing.T) {
	// "a b  c" normalized to "abc"
	u := ComparableUnit{Text: "abc", Original: "a b  c", Offsets: []int{0, 2, 5}}

	tests := []struct {
		in   Span
		want Span
		ok   bool
	}{
		{Span{0, 3}, Span{0, 6}, true},
		{Span{1, 2}, Span{2, 3}, true},
		{Span{1, 3}, Span{2, 6}, true},
		{Span{0, 0}, Span{}, false},
		{Span{2, 4}, Span{}, false},
		{Span{-1, 1}, Span{}, false},
	}
	for _, tt := range tests {
		got, ok := u.OriginalSpan(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("OriginalSpan(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if u.RuneLen() != 3 {
		t.Errorf("RuneLen() = %d, want 3", u.RuneLen())
	}
}

func TestSpan(t *testing.T) {
	s := Span{Start: 3, End: 10}
	if s.Len() != 7 {
		t.Errorf("Len() = %d, want 7", s.Len())
	}
	if s.String() != "[3,10)" {
		t.Errorf("String() = %q, want [3,10)", s.String())
	}
}

func TestMatchRecord_Key(t *testing.T) {
	a := MatchRecord{Kind: PartialSpanMatch, SourceUnit: 1, SourceSpan: Span{0, 5}, TargetUnit: 2, TargetSpan: Span{3, 8}, Text: "x"}
	b := a
	b.Text = "different text, same identity"
	b.SourcePage = 9

	if a.Key() != b.Key() {
		t.Error("records with the same units and spans should share a key")
	}
	b.TargetSpan = Span{4, 9}
	if a.Key() == b.Key() {
		t.Error("records with different spans should not share a key")
	}
}
