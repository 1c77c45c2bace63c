package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/overlap/formats/docx"
	"github.com/benedoc-inc/overlap/types"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		want types.DocumentFormat
		err  bool
	}{
		{"a.docx", types.FormatDOCX, false},
		{"dir/B.DOCX", types.FormatDOCX, false},
		{"a.json", types.FormatJSON, false},
		{"a.pdf", types.FormatPDF, false},
		{"a.doc", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.name)
			if tt.err {
				code, _ := types.GetErrorCode(err)
				assert.Equal(t, types.ErrCodeUnsupportedFormat, code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_DocxEncodesIntoSamePackage(t *testing.T) {
	pkg, err := docx.Encode(types.NewTextDocument("a.docx", "one paragraph"))
	require.NoError(t, err)

	l, err := Load(pkg, "a.docx", LoadOptions{})
	require.NoError(t, err)
	require.Len(t, l.Doc.Paragraphs, 1)

	out, err := l.Encode(l.Doc)
	require.NoError(t, err)
	again, err := Load(out, "a.docx", LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, l.Doc.Paragraphs, again.Doc.Paragraphs)
}

func TestLoad_JSON(t *testing.T) {
	l, err := Load([]byte(`{"paragraphs":["x y z"]}`), "a.json", LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "x y z", l.Doc.Paragraphs[0].Text())

	out, err := l.Encode(l.Doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"text": "x y z"`)
}

func TestAnnotatable(t *testing.T) {
	assert.True(t, Annotatable(types.FormatDOCX))
	assert.True(t, Annotatable(types.FormatJSON))
	assert.False(t, Annotatable(types.FormatPDF))
	assert.Equal(t, ".docx", Extension(types.FormatDOCX))
}
