// Package jsondoc reads and writes the structured document model as JSON.
//
// A JSON document is the serialized form of types.Document. Plain documents
// may also be given as {"paragraphs": ["text", ...]}, one string per paragraph.
package jsondoc

import (
	"bytes"
	"encoding/json"

	"github.com/benedoc-inc/overlap/types"
)

type plainDocument struct {
	Name       string   `json:"name"`
	Paragraphs []string `json:"paragraphs"`
}

// Decode parses a JSON document. name is used when the payload carries none.
func Decode(data []byte, name string) (*types.Document, error) {
	var doc types.Document
	err := json.Unmarshal(data, &doc)
	if err != nil {
		var plain plainDocument
		if perr := json.Unmarshal(data, &plain); perr != nil {
			return nil, types.WrapError(types.ErrCodeUnreadableDocument, "invalid JSON document", err).
				WithContext("document", name)
		}
		doc = *types.NewTextDocument(plain.Name, plain.Paragraphs...)
	}
	if doc.Name == "" {
		doc.Name = name
	}
	doc.Format = types.FormatJSON
	return &doc, nil
}

// Encode serializes doc as indented JSON
func Encode(doc *types.Document) ([]byte, error) {
	if doc == nil {
		return nil, types.NewError(types.ErrCodeWriteError, "no document to encode")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, types.WrapError(types.ErrCodeWriteError, "failed to encode JSON document", err).
			WithContext("document", doc.Name)
	}
	return buf.Bytes(), nil
}
