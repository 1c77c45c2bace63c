// Package formats picks a codec by file extension and hides the differences
// between them from the pipeline.
package formats

import (
	"path/filepath"
	"strings"

	"github.com/benedoc-inc/overlap/formats/docx"
	"github.com/benedoc-inc/overlap/formats/jsondoc"
	"github.com/benedoc-inc/overlap/formats/pdfdoc"
	"github.com/benedoc-inc/overlap/types"
)

// Detect returns the document format implied by the file extension
func Detect(name string) (types.DocumentFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return types.FormatDOCX, nil
	case ".json":
		return types.FormatJSON, nil
	case ".pdf":
		return types.FormatPDF, nil
	}
	return "", types.NewErrorf(types.ErrCodeUnsupportedFormat, "unsupported document format %q", filepath.Ext(name)).
		WithContext("document", name)
}

// Extension returns the file extension, dot included, written for f
func Extension(f types.DocumentFormat) string {
	return "." + string(f)
}

// Annotatable reports whether annotated copies can be written in format f
func Annotatable(f types.DocumentFormat) bool {
	return f == types.FormatDOCX || f == types.FormatJSON
}

// LoadOptions configures decoding
type LoadOptions struct {
	MinLineRunes int // PDF only: shorter lines are dropped
}

// Loaded is a decoded document together with what is needed to encode an
// annotated copy of it in the same format.
type Loaded struct {
	Doc *types.Document

	pkg *docx.File
}

// Load decodes data according to the extension of name
func Load(data []byte, name string, opts LoadOptions) (*Loaded, error) {
	format, err := Detect(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case types.FormatDOCX:
		f, err := docx.Read(data, name)
		if err != nil {
			return nil, err
		}
		return &Loaded{Doc: f.Doc, pkg: f}, nil
	case types.FormatJSON:
		doc, err := jsondoc.Decode(data, name)
		if err != nil {
			return nil, err
		}
		return &Loaded{Doc: doc}, nil
	default:
		doc, err := pdfdoc.ReadText(data, name, pdfdoc.TextOptions{MinLineRunes: opts.MinLineRunes})
		if err != nil {
			return nil, err
		}
		return &Loaded{Doc: doc}, nil
	}
}

// Encode serializes an annotated copy of l.Doc
func (l *Loaded) Encode(doc *types.Document) ([]byte, error) {
	switch l.Doc.Format {
	case types.FormatDOCX:
		return l.pkg.Render(doc)
	case types.FormatJSON:
		return jsondoc.Encode(doc)
	}
	return nil, types.NewErrorf(types.ErrCodeUnsupportedFormat, "cannot write %s documents", l.Doc.Format).
		WithContext("document", l.Doc.Name)
}
