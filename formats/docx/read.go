// Package docx decodes the body of a WordprocessingML package into the
// structured document model and writes annotated documents back into it.
//
// Only top-level body paragraphs become paragraphs of the model. Tables,
// section properties and any other body block are kept byte for byte, as is
// inline markup the model does not represent (hyperlinks, fields, drawings,
// existing bookmarks), which travels as raw runs. All other package parts are
// copied unchanged on write.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/benedoc-inc/overlap/types"
)

const documentPart = "word/document.xml"

// XRefStyle is the character style id given to cross-reference labels so they
// are recognized, and skipped, when an annotated document is read again.
const XRefStyle = "OverlapXRef"

var bookmarkIDPattern = regexp.MustCompile(`<\w+:bookmarkStart\b[^>]*\b\w+:id="(-?\d+)"`)

// mainNamespaces are the transitional and strict WordprocessingML namespaces
var mainNamespaces = map[string]bool{
	wordNamespace: true,
	"http://purl.oclc.org/ooxml/wordprocessingml/main": true,
}

// File is a decoded package. Doc is the editable model; the remaining state
// is what Render needs to put a model back into the same package.
type File struct {
	Doc *types.Document

	pkg    []byte
	prefix []byte
	suffix []byte
	blocks []block
	w      ns
}

// block is either a raw body fragment or a reference to a model paragraph
type block struct {
	raw   []byte
	para  int
	start []byte // paragraph start tag, attributes included
}

// Read decodes a .docx package
func Read(data []byte, name string) (*File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, unreadable(name, "not a zip package", err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, types.NewError(types.ErrCodeUnreadableDocument, "package has no "+documentPart).
			WithContext("document", name)
	}
	rc, err := part.Open()
	if err != nil {
		return nil, unreadable(name, "failed to open document part", err)
	}
	xmlData, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, unreadable(name, "failed to read document part", err)
	}

	f, err := parseDocument(xmlData, name)
	if err != nil {
		return nil, err
	}
	f.pkg = data
	return f, nil
}

func parseDocument(data []byte, name string) (*File, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	f := &File{Doc: &types.Document{Name: name, Format: types.FormatDOCX}}

	root, err := rootElement(dec)
	if err != nil {
		return nil, unreadable(name, "document part has no root element", err)
	}
	w, ok := mainPrefix(root)
	if !ok {
		return nil, types.NewError(types.ErrCodeUnsupportedFormat,
			"document element binds no prefix to the WordprocessingML namespace").
			WithContext("document", name)
	}
	f.w = w

	// locate the body
	for {
		tok, err := dec.RawToken()
		if err != nil {
			return nil, unreadable(name, "document part has no body", err)
		}
		if se, ok := tok.(xml.StartElement); ok && w.is(se.Name, "body") {
			f.prefix = data[:dec.InputOffset()]
			break
		}
	}

	var raw []byte
	flushRaw := func() {
		if len(raw) > 0 {
			f.blocks = append(f.blocks, block{raw: raw, para: -1})
			raw = nil
		}
	}

	for {
		off := dec.InputOffset()
		tok, err := dec.RawToken()
		if err != nil {
			return nil, unreadable(name, "malformed document body", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if w.is(t.Name, "p") {
				flushRaw()
				start := data[off:dec.InputOffset()]
				p, err := parseParagraph(dec, data, w)
				if err != nil {
					return nil, unreadable(name, "malformed paragraph", err)
				}
				f.blocks = append(f.blocks, block{para: len(f.Doc.Paragraphs), start: start})
				f.Doc.Paragraphs = append(f.Doc.Paragraphs, p)
				continue
			}
			if err := skip(dec); err != nil {
				return nil, unreadable(name, "malformed body block", err)
			}
			raw = append(raw, data[off:dec.InputOffset()]...)
		case xml.EndElement:
			flushRaw()
			f.suffix = data[off:]
			f.Doc.MaxBookmarkID = maxBookmarkID(data)
			return f, nil
		default:
			raw = append(raw, data[off:dec.InputOffset()]...)
		}
	}
}

func parseParagraph(dec *xml.Decoder, data []byte, w ns) (types.Paragraph, error) {
	var p types.Paragraph
	for {
		off := dec.InputOffset()
		tok, err := dec.RawToken()
		if err != nil {
			return p, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case w.is(t.Name, "pPr"):
				if err := skip(dec); err != nil {
					return p, err
				}
				p.Props = string(data[off:dec.InputOffset()])
				p.Style = paragraphStyle(p.Props, w)
			case w.is(t.Name, "r"):
				runs, err := parseRun(dec, data, w)
				if err != nil {
					return p, err
				}
				p.Runs = append(p.Runs, runs...)
			default:
				if err := skip(dec); err != nil {
					return p, err
				}
				p.Runs = append(p.Runs, types.Run{Raw: string(data[off:dec.InputOffset()])})
			}
		case xml.EndElement:
			return p, nil
		}
	}
}

// parseRun splits one <w:r> into model runs: text runs carrying the run
// properties, and raw runs for children that are not text.
func parseRun(dec *xml.Decoder, data []byte, w ns) ([]types.Run, error) {
	var (
		out    []types.Run
		props  types.Run
		rPrRaw string
		text   strings.Builder
	)
	flush := func() {
		if text.Len() == 0 {
			return
		}
		r := props
		r.Text = text.String()
		if r.Extra != nil {
			r.Extra = append([]types.RawProperty(nil), props.Extra...)
		}
		out = append(out, r)
		text.Reset()
	}

	for {
		off := dec.InputOffset()
		tok, err := dec.RawToken()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case w.is(t.Name, "rPr"):
				if err := skip(dec); err != nil {
					return nil, err
				}
				rPrRaw = string(data[off:dec.InputOffset()])
				props, err = parseRunProps(rPrRaw, w)
				if err != nil {
					return nil, err
				}
			case w.is(t.Name, "t"):
				s, err := charData(dec)
				if err != nil {
					return nil, err
				}
				text.WriteString(s)
			case w.is(t.Name, "tab") && len(t.Attr) == 0:
				text.WriteByte('\t')
				if err := skip(dec); err != nil {
					return nil, err
				}
			case (w.is(t.Name, "br") || w.is(t.Name, "cr")) && len(t.Attr) == 0:
				text.WriteByte('\n')
				if err := skip(dec); err != nil {
					return nil, err
				}
			case w.is(t.Name, "lastRenderedPageBreak"):
				if err := skip(dec); err != nil {
					return nil, err
				}
			default:
				if err := skip(dec); err != nil {
					return nil, err
				}
				flush()
				child := string(data[off:dec.InputOffset()])
				out = append(out, types.Run{Raw: "<" + w.tag("r") + ">" + rPrRaw + child + "</" + w.tag("r") + ">"})
			}
		case xml.EndElement:
			flush()
			return out, nil
		}
	}
}

func parseRunProps(raw string, w ns) (types.Run, error) {
	var r types.Run
	dec := xml.NewDecoder(strings.NewReader(raw))
	if _, err := dec.RawToken(); err != nil { // rPr
		return r, err
	}
	for {
		off := dec.InputOffset()
		tok, err := dec.RawToken()
		if err != nil {
			return r, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := skip(dec); err != nil {
				return r, err
			}
			val, hasVal := w.attr(t, "val")
			// an explicit off switch overrides the style, so it stays opaque
			on := !hasVal || truthy(val)
			switch {
			case w.is(t.Name, "b") && on:
				r.Bold = true
			case w.is(t.Name, "i") && on:
				r.Italic = true
			case w.is(t.Name, "color"):
				r.Color = val
			case w.is(t.Name, "highlight"):
				if val != "none" {
					r.Highlight = types.HighlightColor(val)
				}
			case w.is(t.Name, "rStyle"):
				if val == XRefStyle {
					r.XRef = true
				} else {
					r.Style = val
				}
			default:
				r.Extra = append(r.Extra, types.RawProperty{
					Name: t.Name.Local,
					XML:  raw[off:dec.InputOffset()],
				})
			}
		case xml.EndElement:
			return r, nil
		}
	}
}

func paragraphStyle(pPr string, w ns) string {
	dec := xml.NewDecoder(strings.NewReader(pPr))
	for {
		tok, err := dec.RawToken()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok && w.is(se.Name, "pStyle") {
			v, _ := w.attr(se, "val")
			return v
		}
	}
}

// skip consumes tokens up to the end of the element whose start was just read
func skip(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.RawToken()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

func charData(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.RawToken()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if depth == 1 {
				sb.Write(t)
			}
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return sb.String(), nil
}

// ns is the prefix the document binds to the WordprocessingML namespace
type ns string

func (w ns) is(n xml.Name, local string) bool {
	return n.Space == string(w) && n.Local == local
}

func (w ns) tag(local string) string {
	return string(w) + ":" + local
}

func (w ns) attr(se xml.StartElement, local string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == local && (a.Name.Space == string(w) || a.Name.Space == "") {
			return a.Value, true
		}
	}
	return "", false
}

func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.RawToken()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// mainPrefix returns the prefix root binds to the WordprocessingML namespace
func mainPrefix(root xml.StartElement) (ns, bool) {
	for _, a := range root.Attr {
		if a.Name.Space == "xmlns" && mainNamespaces[a.Value] {
			return ns(a.Name.Local), true
		}
	}
	return "", false
}

func truthy(v string) bool {
	switch v {
	case "0", "false", "off":
		return false
	}
	return true
}

func maxBookmarkID(data []byte) int {
	max := 0
	for _, m := range bookmarkIDPattern.FindAllSubmatch(data, -1) {
		if id, err := strconv.Atoi(string(m[1])); err == nil && id > max {
			max = id
		}
	}
	return max
}

func unreadable(name, msg string, err error) error {
	return types.WrapError(types.ErrCodeUnreadableDocument, msg, err).WithContext("document", name)
}
