// Package pdfdoc reads text lines and embedded images from PDF files.
//
// PDFs are read-only inputs: their lines carry true page and line numbers and
// feed the report, but they are never annotated. Parsing is done by rsc.io/pdf,
// which panics on malformed input; every entry point recovers and reports
// UNREADABLE_DOCUMENT instead.
package pdfdoc

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"rsc.io/pdf"

	"github.com/benedoc-inc/overlap/types"
)

// TextOptions configures line extraction
type TextOptions struct {
	// MinLineRunes drops lines shorter than this; line numbers still count them
	MinLineRunes int
}

// ReadText returns one paragraph per text line. Paragraph Page and Line are
// 1-based and authoritative.
func ReadText(data []byte, name string, opts TextOptions) (doc *types.Document, err error) {
	r, err := open(data, name)
	if err != nil {
		return nil, err
	}
	defer recoverUnreadable(name, &err)

	doc = &types.Document{Name: name, Format: types.FormatPDF}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for n, line := range pageText(page) {
			if utf8.RuneCountInString(line) < opts.MinLineRunes {
				continue
			}
			doc.Paragraphs = append(doc.Paragraphs, types.Paragraph{
				Runs: []types.Run{{Text: line}},
				Page: i,
				Line: n + 1,
			})
		}
	}
	return doc, nil
}

// pageText returns the text lines of a page. Glyph positions are used when the
// fonts carry width metrics. Without them every glyph of a text object reports
// the same position and spaces leave no trace, so the lines are rebuilt from
// the text operators of the content stream instead.
func pageText(page pdf.Page) []string {
	glyphs := page.Content().Text
	for _, g := range glyphs {
		if g.W > 0 {
			return pageLines(glyphs)
		}
	}
	return streamLines(page)
}

// pageLines joins glyphs into lines. A glyph starts a new line when its
// baseline moves by more than half its size or it jumps back to the left.
// Gaps wider than a quarter of the font size become a space.
func pageLines(glyphs []pdf.Text) []string {
	var (
		lines []string
		cur   strings.Builder
		lastY float64
		endX  float64
		open  bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}
	for _, g := range glyphs {
		size := math.Max(g.FontSize, 1)
		if open {
			switch {
			case math.Abs(g.Y-lastY) > size/2 || g.X < endX-size*2:
				flush()
			case g.X-endX > size/4 && !strings.HasSuffix(cur.String(), " "):
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(g.S)
		lastY, endX, open = g.Y, g.X+g.W, true
	}
	flush()
	return lines
}

func open(data []byte, name string) (r *pdf.Reader, err error) {
	defer recoverUnreadable(name, &err)
	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, types.WrapError(types.ErrCodeUnreadableDocument, "failed to open PDF", err).
			WithContext("document", name)
	}
	return r, nil
}

func recoverUnreadable(name string, err *error) {
	if rec := recover(); rec != nil {
		*err = types.WrapError(types.ErrCodeUnreadableDocument, "malformed PDF", fmt.Errorf("%v", rec)).
			WithContext("document", name)
	}
}

// wordGap is the TJ adjustment, in thousandths of an em, read as a word break
const wordGap = 200

// streamLines rebuilds lines from the text showing and positioning operators
// of a page. A line ends whenever the baseline moves; a horizontal move on the
// same baseline becomes a space.
func streamLines(page pdf.Page) []string {
	var (
		lines   []string
		cur     strings.Builder
		enc     pdf.TextEncoding
		lineY   float64 // baseline of the current text line
		shownY  float64 // baseline the buffered text was shown on
		leading float64
		shown   bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
		shown = false
	}
	space := func() {
		if cur.Len() > 0 && !strings.HasSuffix(cur.String(), " ") {
			cur.WriteByte(' ')
		}
	}
	show := func(raw string) {
		if shown && math.Abs(lineY-shownY) > 0.01 {
			flush()
		}
		shown, shownY = true, lineY
		if enc != nil {
			raw = enc.Decode(raw)
		}
		cur.WriteString(raw)
	}
	move := func(tx, ty float64) {
		lineY += ty
		if ty == 0 && tx != 0 {
			space()
		}
	}

	pdf.Interpret(page.V.Key("Contents"), func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		num := func(i int) float64 {
			if i < len(args) {
				return args[i].Float64()
			}
			return 0
		}
		last := func() pdf.Value {
			if n == 0 {
				return pdf.Value{}
			}
			return args[n-1]
		}

		switch op {
		case "BT":
			lineY = 0
		case "Tf":
			if n == 2 {
				enc = page.Font(args[0].Name()).Encoder()
			}
		case "TL":
			leading = num(0)
		case "Td":
			move(num(0), num(1))
		case "TD":
			leading = -num(1)
			move(num(0), num(1))
		case "Tm":
			if n == 6 {
				lineY = num(5)
				space()
			}
		case "T*":
			lineY -= leading
		case "'", "\"":
			lineY -= leading
			show(last().RawString())
		case "Tj":
			show(last().RawString())
		case "TJ":
			arr := last()
			for i := 0; i < arr.Len(); i++ {
				v := arr.Index(i)
				if v.Kind() == pdf.String {
					show(v.RawString())
				} else if v.Float64() <= -wordGap {
					space()
				}
			}
		}
	})
	flush()
	return lines
}
