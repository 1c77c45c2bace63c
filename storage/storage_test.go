package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/overlap/types"
)

type mapStore map[string][]byte

func (m mapStore) ReadFile(_ context.Context, p string) ([]byte, error) {
	data, ok := m[p]
	if !ok {
		return nil, types.NewError(types.ErrCodeIOError, "missing")
	}
	return data, nil
}

func (m mapStore) Exists(_ context.Context, p string) (bool, error) {
	_, ok := m[p]
	return ok, nil
}

func (m mapStore) WriteFile(_ context.Context, p string, data []byte) error {
	m[p] = data
	return nil
}

func (m mapStore) Location(p string) string { return "mem://" + p }

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"a/b.json", "a/b.json", true},
		{"a//b/../c.json", "a/c.json", true},
		{`a\b.json`, "a/b.json", true},
		{"", "", false},
		{"/etc/passwd", "", false},
		{"..", "", false},
		{"../x", "", false},
		{"a/../../x", "", false},
		{".", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, types.ErrWriteError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSub(t *testing.T) {
	ctx := context.Background()
	root := mapStore{}
	assert.Equal(t, Store(root), Sub(root, ""))

	sub := Sub(root, "job-1")
	require.NoError(t, sub.WriteFile(ctx, "a/report.json", []byte("{}")))
	assert.Contains(t, root, "job-1/a/report.json")

	ok, err := sub.Exists(ctx, "a/report.json")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := sub.ReadFile(ctx, "a/report.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.Equal(t, "mem://job-1/a/report.json", sub.Location("a/report.json"))

	assert.ErrorIs(t, sub.WriteFile(ctx, "../escape", nil), types.ErrWriteError)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", ContentType("x/CommonParagraphs.json"))
	assert.Equal(t, "text/html; charset=utf-8", ContentType("result.HTML"))
	assert.Equal(t, "application/octet-stream", ContentType("page_1_img_1.bin"))
}
