package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/overlap/types"
)

func TestMatchAssets_ExactBytesOnly(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G', 1, 2, 3, 4}
	tweaked := append([]byte(nil), img...)
	tweaked[len(tweaked)-1] ^= 0x01

	a := []types.Asset{NewAsset("page_1_img_1.png", img)}
	b := []types.Asset{
		NewAsset("page_9_img_2.png", tweaked),
		NewAsset("logo.png", img),
	}

	got := MatchAssets(a, b)
	require.Len(t, got, 1)
	assert.Equal(t, "page_1_img_1.png", got[0].A.Label)
	assert.Equal(t, "logo.png", got[0].B.Label)
	assert.Equal(t, Fingerprint(img), got[0].Fingerprint)
}

func TestMatchAssets_OrderedByPageOfA(t *testing.T) {
	x, y, z := []byte("x-bytes"), []byte("y-bytes"), []byte("z-bytes")
	a := []types.Asset{
		NewAsset("page_10_img_1.png", x),
		NewAsset("page_2_img_1.png", y),
		NewAsset("page_2_img_0.png", z),
	}
	b := []types.Asset{
		NewAsset("page_1_img_1.png", z),
		NewAsset("page_1_img_2.png", x),
		NewAsset("page_1_img_3.png", y),
	}

	got := MatchAssets(a, b)
	require.Len(t, got, 3)
	assert.Equal(t, "page_2_img_0.png", got[0].A.Label)
	assert.Equal(t, "page_2_img_1.png", got[1].A.Label)
	assert.Equal(t, "page_10_img_1.png", got[2].A.Label)
}

func TestMatchAssets_DuplicateWithinSetKeepsFirst(t *testing.T) {
	data := []byte("same")
	a := []types.Asset{NewAsset("page_3_img_1.png", data), NewAsset("page_1_img_4.png", data)}
	b := []types.Asset{NewAsset("page_5_img_1.png", data)}

	got := MatchAssets(a, b)
	require.Len(t, got, 1)
	assert.Equal(t, "page_1_img_4.png", got[0].A.Label)
}

func TestMatchAssets_Empty(t *testing.T) {
	assert.Empty(t, MatchAssets(nil, []types.Asset{NewAsset("a.png", []byte("a"))}))
}

func TestFingerprint(t *testing.T) {
	assert.Len(t, string(Fingerprint(nil)), 64)
	assert.Equal(t, Fingerprint([]byte("abc")), Fingerprint([]byte("abc")))
	assert.NotEqual(t, Fingerprint([]byte("abc")), Fingerprint([]byte("abd")))
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		label       string
		page, index int
		ok          bool
	}{
		{"page_1_img_1.png", 1, 1, true},
		{"page_12_img_3.jpeg", 12, 3, true},
		{"out/doc/page_4_img_2.png", 4, 2, true},
		{"cover.png", 0, 0, false},
		{"page_x_img_1.png", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			page, index, ok := ParseLabel(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.index, index)
		})
	}
	assert.Equal(t, "page_2_img_5.png", Label(2, 5, ".png"))
	assert.Equal(t, "page_2_img_5.bin", Label(2, 5, ""))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page_2_img_1.png"), []byte("two"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page_1_img_1.png"), []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("h"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	got, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "page_1_img_1.png", got[0].Label)
	assert.Equal(t, 1, got[0].Page)
	assert.Equal(t, []byte("one"), got[0].Data)

	_, err = LoadDir(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, types.ErrUnreadableDocument)
}

type memWriter struct {
	files map[string][]byte
	fail  string
}

func (m *memWriter) WriteFile(_ context.Context, p string, data []byte) error {
	if m.fail != "" && filepath.Dir(p) == m.fail {
		return errors.New("disk full")
	}
	m.files[p] = data
	return nil
}

func TestSaveMatched(t *testing.T) {
	matches := []types.AssetPairMatch{{
		A: NewAsset("page_1_img_1.png", []byte("a")),
		B: NewAsset("page_7_img_2.png", []byte("a")),
	}}

	w := &memWriter{files: map[string][]byte{}}
	require.NoError(t, SaveMatched(context.Background(), w, matches, "/in/first.pdf", "second.pdf"))
	assert.Equal(t, []byte("a"), w.files["first/page_1_img_1.png"])
	assert.Equal(t, []byte("a"), w.files["second/page_7_img_2.png"])

	// one side failing does not stop the other
	w = &memWriter{files: map[string][]byte{}, fail: "first"}
	err := SaveMatched(context.Background(), w, matches, "first.pdf", "second.pdf")
	require.Error(t, err)
	e, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "first.pdf", e.Context["document"])
	assert.Contains(t, w.files, "second/page_7_img_2.png")
}

func TestSaveMatched_SameBaseName(t *testing.T) {
	matches := []types.AssetPairMatch{{
		A: NewAsset("page_1_img_1.png", []byte("left")),
		B: NewAsset("page_1_img_1.png", []byte("right")),
	}}

	w := &memWriter{files: map[string][]byte{}}
	require.NoError(t, SaveMatched(context.Background(), w, matches, "left/report.pdf", "right/report.pdf"))
	require.Len(t, w.files, 2)
	assert.Equal(t, []byte("left"), w.files["report/page_1_img_1.png"])
	assert.Equal(t, []byte("right"), w.files["report_2/page_1_img_1.png"])
}

func TestDocumentDirs(t *testing.T) {
	a, b := DocumentDirs("x/first.pdf", "y/second.pdf")
	assert.Equal(t, "first", a)
	assert.Equal(t, "second", b)

	a, b = DocumentDirs("x/Doc.pdf", "y/doc.PDF")
	assert.Equal(t, "Doc", a)
	assert.Equal(t, "doc_2", b)
}
