package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/overlap/cache"
	"github.com/benedoc-inc/overlap/core/annotate"
	"github.com/benedoc-inc/overlap/core/assets"
	"github.com/benedoc-inc/overlap/formats/docx"
	"github.com/benedoc-inc/overlap/internal/config"
	"github.com/benedoc-inc/overlap/types"
)

type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
	fail  map[string]bool
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}, fail: map[string]bool{}}
}

func (m *memStore) ReadFile(_ context.Context, p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[p]
	if !ok {
		return nil, types.NewError(types.ErrCodeIOError, "missing")
	}
	return data, nil
}

func (m *memStore) Exists(_ context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[p]
	return ok, nil
}

func (m *memStore) WriteFile(_ context.Context, p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[p] {
		return errors.New("disk full")
	}
	m.files[p] = data
	return nil
}

func (m *memStore) Location(p string) string { return "mem://" + p }

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.MinLength = 5
	return cfg
}

func jsonInput(name string, paragraphs ...string) Input {
	var b strings.Builder
	b.WriteString(`{"paragraphs":[`)
	for i, p := range paragraphs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`"` + p + `"`)
	}
	b.WriteString("]}")
	return Input{Name: name, Data: []byte(b.String())}
}

func TestCompareText_JSON(t *testing.T) {
	store := newMemStore()
	p := New(testConfig(), store, nil, nil)

	out, err := p.CompareText(context.Background(),
		jsonInput("a.json", "shared paragraph one", "prefix COMMONBLOCK suffix"),
		jsonInput("b.json", "zz COMMONBLOCK yy", "shared paragraph one"),
		"run-1")
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	assert.False(t, out.Cached)
	assert.Equal(t, 2, out.Result.Summary.TotalMatches)

	for _, name := range []string{
		"run-1/a_compared.json",
		"run-1/b_compared.json",
		"run-1/CommonParagraphs.json",
		"run-1/report.html",
	} {
		assert.Contains(t, store.files, name)
		assert.Contains(t, out.Outputs, "mem://"+name)
	}
	assert.Contains(t, string(store.files["run-1/a_compared.json"]), `"highlight": "cyan"`)
	assert.Contains(t, string(store.files["run-1/b_compared.json"]), "    page 1, line 1")
	assert.Contains(t, string(store.files["run-1/CommonParagraphs.json"]), `"common_substrings"`)

	require.Len(t, out.Annotations, 2)
	assert.Equal(t, annotate.RoleSource, out.Annotations[0].Role)
	assert.Equal(t, 1, out.Annotations[0].FullUnits)
}

func TestCompareText_FormatMismatch(t *testing.T) {
	p := New(testConfig(), newMemStore(), nil, nil)
	_, err := p.CompareText(context.Background(),
		jsonInput("a.json", "x"), Input{Name: "b.docx"}, "")
	assert.ErrorIs(t, err, types.ErrInvalidConfiguration)

	_, err = p.CompareText(context.Background(),
		Input{Name: "a.txt"}, Input{Name: "b.txt"}, "")
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestCompareText_OneDocumentFailsToPersist(t *testing.T) {
	store := newMemStore()
	store.fail["a_compared.json"] = true
	p := New(testConfig(), store, nil, nil)

	out, err := p.CompareText(context.Background(),
		jsonInput("a.json", "shared paragraph one"),
		jsonInput("b.json", "shared paragraph one"),
		"")
	require.Error(t, err)
	require.NotNil(t, out)

	e, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrCodeWriteError, e.Code)
	assert.Equal(t, "a.json", e.Context["document"])

	assert.Contains(t, store.files, "b_compared.json")
	assert.Contains(t, store.files, "CommonParagraphs.json")
	assert.NotContains(t, store.files, "a_compared.json")
}

func TestCompareText_SameBaseName(t *testing.T) {
	store := newMemStore()
	p := New(testConfig(), store, nil, nil)

	out, err := p.CompareText(context.Background(),
		jsonInput("left/doc.json", "shared paragraph one", "only on the left"),
		jsonInput("right/doc.json", "shared paragraph one"),
		"job")
	require.NoError(t, err)

	source, ok := store.files["job/doc_compared.json"]
	require.True(t, ok)
	target, ok := store.files["job/doc_2_compared.json"]
	require.True(t, ok)
	assert.Contains(t, string(source), "only on the left")
	assert.NotContains(t, string(target), "only on the left")

	assert.Len(t, store.files, 4)
	assert.Equal(t, []string{
		"mem://job/doc_compared.json",
		"mem://job/doc_2_compared.json",
		"mem://job/CommonParagraphs.json",
		"mem://job/report.html",
	}, out.Outputs)
}

func TestCompareText_Cache(t *testing.T) {
	c := cache.NewMemory(0)
	p := New(testConfig(), newMemStore(), c, nil)
	a := jsonInput("a.json", "shared paragraph one")
	b := jsonInput("b.json", "shared paragraph one")

	first, err := p.CompareText(context.Background(), a, b, "")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, c.Len())

	a.Name = "renamed.json"
	second, err := p.CompareText(context.Background(), a, b, "")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result.ID, second.Result.ID)
	assert.Equal(t, "renamed.json", second.Result.SourceName)
	assert.Equal(t, "a.json", first.Result.SourceName)
}

func TestCompareText_Docx(t *testing.T) {
	da, err := docx.Encode(types.NewTextDocument("a.docx", "intro text", "a sentence shared by both files"))
	require.NoError(t, err)
	db, err := docx.Encode(types.NewTextDocument("b.docx", "a sentence shared by both files"))
	require.NoError(t, err)

	store := newMemStore()
	p := New(testConfig(), store, nil, nil)
	_, err = p.CompareText(context.Background(), Input{Name: "in/a.docx", Data: da}, Input{Name: "b.docx", Data: db}, "")
	require.NoError(t, err)

	data, ok := store.files["a_compared.docx"]
	require.True(t, ok)
	f, err := docx.Read(data, "a_compared.docx")
	require.NoError(t, err)
	require.Len(t, f.Doc.Paragraphs, 2)

	shared := f.Doc.Paragraphs[1]
	assert.Equal(t, types.HighlightTurquoise, shared.Runs[0].Highlight)
	assert.Equal(t, "a sentence shared by both files", shared.Text())
	assert.Equal(t, 1, f.Doc.MaxBookmarkID)
	var label string
	for _, r := range shared.Runs {
		if r.XRef {
			label = r.Text
		}
	}
	assert.Equal(t, "    page 1, line 1", label)
	assert.Equal(t, types.HighlightNone, f.Doc.Paragraphs[0].Runs[0].Highlight)
}

func TestComparedName(t *testing.T) {
	assert.Equal(t, "report_compared.docx", ComparedName("dir/report.docx", types.FormatDOCX))
	assert.Equal(t, "x_compared.json", ComparedName(`c:\in\x.json`, types.FormatJSON))

	a, b := ComparedNames("a/contract.docx", "b/contract.docx", types.FormatDOCX)
	assert.Equal(t, "contract_compared.docx", a)
	assert.Equal(t, "contract_2_compared.docx", b)

	a, b = ComparedNames("one.json", "two.json", types.FormatJSON)
	assert.Equal(t, "one_compared.json", a)
	assert.Equal(t, "two_compared.json", b)
}

func TestCompareImages(t *testing.T) {
	store := newMemStore()
	p := New(testConfig(), store, nil, nil)
	a := AssetSet{Name: "first.pdf", Assets: []types.Asset{
		assets.NewAsset("page_1_img_1.png", []byte("same")),
		assets.NewAsset("page_2_img_1.png", []byte("only a")),
	}}
	b := AssetSet{Name: "second.pdf", Assets: []types.Asset{
		assets.NewAsset("page_4_img_2.png", []byte("same")),
	}}

	out, err := p.CompareImages(context.Background(), a, b, "imgs")
	require.NoError(t, err)
	require.Len(t, out.Result.Matches, 1)
	assert.Equal(t, "same", string(store.files["imgs/first/page_1_img_1.png"]))
	assert.Equal(t, "same", string(store.files["imgs/second/page_4_img_2.png"]))
	assert.Contains(t, string(store.files["imgs/result.html"]), "(Page: 4)")
	assert.Equal(t, []string{"mem://imgs/result.html"}, out.Outputs)
}

func TestCompareImages_SameBaseName(t *testing.T) {
	store := newMemStore()
	p := New(testConfig(), store, nil, nil)
	a := AssetSet{Name: "x/scan.pdf", Assets: []types.Asset{assets.NewAsset("page_1_img_1.png", []byte("same"))}}
	b := AssetSet{Name: "y/scan.pdf", Assets: []types.Asset{assets.NewAsset("page_1_img_1.png", []byte("same"))}}

	_, err := p.CompareImages(context.Background(), a, b, "imgs")
	require.NoError(t, err)
	assert.Contains(t, store.files, "imgs/scan/page_1_img_1.png")
	assert.Contains(t, store.files, "imgs/scan_2/page_1_img_1.png")
}

func TestReadAssets_RejectsNonPDF(t *testing.T) {
	_, err := ReadAssets(Input{Name: "a.docx"})
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}
