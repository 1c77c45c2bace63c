package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/benedoc-inc/overlap/types"
)

const (
	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	minimalContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`

	minimalRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`
)

// rPrOrder is the schema order of run property elements. Unknown elements
// sort after the known ones, rPrChange always last.
var rPrOrder = map[string]int{}

func init() {
	names := []string{
		"rStyle", "rFonts", "b", "bCs", "i", "iCs", "caps", "smallCaps", "strike",
		"dstrike", "outline", "shadow", "emboss", "imprint", "noProof", "snapToGrid",
		"vanish", "webHidden", "color", "spacing", "w", "kern", "position", "sz",
		"szCs", "highlight", "u", "effect", "bdr", "shd", "fitText", "vertAlign",
		"rtl", "cs", "em", "lang", "eastAsianLayout", "specVanish", "oMath",
	}
	for i, n := range names {
		rPrOrder[n] = i
	}
	rPrOrder["rPrChange"] = len(names) + 1
}

// Render puts doc back into the package f was read from. doc must have the
// same paragraph count as f.Doc, which holds for any annotated copy of it.
func (f *File) Render(doc *types.Document) ([]byte, error) {
	if doc == nil || len(doc.Paragraphs) != len(f.Doc.Paragraphs) {
		return nil, types.NewError(types.ErrCodeWriteError, "document does not fit the package layout").
			WithContext("document", f.Doc.Name)
	}
	var body bytes.Buffer
	body.Write(f.prefix)
	for _, b := range f.blocks {
		if b.para < 0 {
			body.Write(b.raw)
			continue
		}
		writeParagraph(&body, f.w, b.start, doc.Paragraphs[b.para])
	}
	body.Write(f.suffix)

	return replacePart(f.pkg, documentPart, body.Bytes(), doc.Name)
}

// Encode writes doc into a new minimal package
func Encode(doc *types.Document) ([]byte, error) {
	if doc == nil {
		return nil, types.NewError(types.ErrCodeWriteError, "no document to encode")
	}
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	fmt.Fprintf(&body, `<w:document xmlns:w="%s"><w:body>`, wordNamespace)
	for _, p := range doc.Paragraphs {
		writeParagraph(&body, "w", []byte("<w:p>"), p)
	}
	body.WriteString(`</w:body></w:document>`)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(minimalContentTypes)},
		{"_rels/.rels", []byte(minimalRels)},
		{documentPart, body.Bytes()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, writeErr(doc.Name, err)
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, writeErr(doc.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, writeErr(doc.Name, err)
	}
	return out.Bytes(), nil
}

func replacePart(pkg []byte, name string, data []byte, doc string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		return nil, writeErr(doc, err)
	}
	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, zf := range zr.File {
		if zf.Name != name {
			if err := zw.Copy(zf); err != nil {
				return nil, writeErr(doc, err)
			}
			continue
		}
		hdr := zf.FileHeader
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(&hdr)
		if err != nil {
			return nil, writeErr(doc, err)
		}
		if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
			return nil, writeErr(doc, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, writeErr(doc, err)
	}
	return out.Bytes(), nil
}

// writeParagraph emits one paragraph. Bookmarks are point bookmarks placed at
// their content offset; a content run containing the offset is split there.
func writeParagraph(buf *bytes.Buffer, w ns, start []byte, p types.Paragraph) {
	buf.Write(start)
	if bytes.HasSuffix(start, []byte("/>")) {
		// empty paragraph element in the source: reopen it
		buf.Truncate(buf.Len() - 2)
		buf.WriteString(">")
	}
	buf.WriteString(p.Props)

	marks := append([]types.Bookmark(nil), p.Bookmarks...)
	sort.SliceStable(marks, func(i, j int) bool { return marks[i].Offset < marks[j].Offset })
	next := 0
	flushUpTo := func(pos int) {
		for next < len(marks) && marks[next].Offset <= pos {
			writeBookmark(buf, w, marks[next])
			next++
		}
	}

	pos := 0
	for _, r := range p.Runs {
		if !r.IsContent() {
			flushUpTo(pos)
			if r.Raw != "" {
				buf.WriteString(r.Raw)
			} else {
				writeRun(buf, w, r, r.Text)
			}
			continue
		}
		text := []rune(r.Text)
		end := pos + len(text)
		cut := 0
		for next < len(marks) && marks[next].Offset < end {
			at := marks[next].Offset - pos
			if at > cut {
				writeRun(buf, w, r, string(text[cut:at]))
				cut = at
			}
			flushUpTo(pos + cut)
		}
		if cut < len(text) {
			writeRun(buf, w, r, string(text[cut:]))
		}
		pos = end
	}
	flushUpTo(int(^uint(0) >> 1))
	fmt.Fprintf(buf, "</%s>", w.tag("p"))
}

func writeBookmark(buf *bytes.Buffer, w ns, b types.Bookmark) {
	fmt.Fprintf(buf, `<%[1]s:bookmarkStart %[1]s:id="%[2]d" %[1]s:name="%[3]s"/><%[1]s:bookmarkEnd %[1]s:id="%[2]d"/>`,
		w, b.ID, escapeAttr(b.Name))
}

func writeRun(buf *bytes.Buffer, w ns, r types.Run, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(buf, "<%s>", w.tag("r"))
	writeRunProps(buf, w, r)
	var seg strings.Builder
	flushText := func() {
		if seg.Len() == 0 {
			return
		}
		fmt.Fprintf(buf, `<%s xml:space="preserve">`, w.tag("t"))
		_ = xml.EscapeText(buf, []byte(seg.String()))
		fmt.Fprintf(buf, "</%s>", w.tag("t"))
		seg.Reset()
	}
	for _, c := range text {
		switch c {
		case '\t':
			flushText()
			fmt.Fprintf(buf, "<%s/>", w.tag("tab"))
		case '\n':
			flushText()
			fmt.Fprintf(buf, "<%s/>", w.tag("br"))
		default:
			seg.WriteRune(c)
		}
	}
	flushText()
	fmt.Fprintf(buf, "</%s>", w.tag("r"))
}

func writeRunProps(buf *bytes.Buffer, w ns, r types.Run) {
	props := make([]types.RawProperty, 0, len(r.Extra)+5)
	style := r.Style
	if r.XRef {
		style = XRefStyle
	}
	if style != "" {
		props = append(props, types.RawProperty{Name: "rStyle", XML: fmt.Sprintf(`<%[1]s:rStyle %[1]s:val="%[2]s"/>`, w, escapeAttr(style))})
	}
	if r.Bold {
		props = append(props, types.RawProperty{Name: "b", XML: "<" + w.tag("b") + "/>"})
	}
	if r.Italic {
		props = append(props, types.RawProperty{Name: "i", XML: "<" + w.tag("i") + "/>"})
	}
	if r.Color != "" {
		props = append(props, types.RawProperty{Name: "color", XML: fmt.Sprintf(`<%[1]s:color %[1]s:val="%[2]s"/>`, w, escapeAttr(r.Color))})
	}
	if r.Highlight != types.HighlightNone {
		props = append(props, types.RawProperty{Name: "highlight", XML: fmt.Sprintf(`<%[1]s:highlight %[1]s:val="%[2]s"/>`, w, escapeAttr(string(r.Highlight)))})
	}
	props = append(props, r.Extra...)
	if len(props) == 0 {
		return
	}
	sort.SliceStable(props, func(i, j int) bool {
		return propRank(props[i].Name) < propRank(props[j].Name)
	})
	fmt.Fprintf(buf, "<%s>", w.tag("rPr"))
	for _, p := range props {
		buf.WriteString(p.XML)
	}
	fmt.Fprintf(buf, "</%s>", w.tag("rPr"))
}

func propRank(name string) int {
	if rank, ok := rPrOrder[name]; ok {
		return rank
	}
	return len(rPrOrder) - 1
}

func escapeAttr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func writeErr(doc string, err error) error {
	return types.WrapError(types.ErrCodeWriteError, "failed to write docx package", err).WithContext("document", doc)
}
