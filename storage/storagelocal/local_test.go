package storagelocal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/overlap/types"
)

func TestStore_WriteReadExists(t *testing.T) {
	ctx := context.Background()
	s, err := New(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "a/b/report.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.WriteFile(ctx, "a/b/report.json", []byte(`{"x":1}`)))
	require.NoError(t, s.WriteFile(ctx, "a/b/report.json", []byte(`{"x":2}`)))

	ok, err = s.Exists(ctx, "a/b/report.json")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := s.ReadFile(ctx, "a/b/report.json")
	require.NoError(t, err)
	assert.Equal(t, `{"x":2}`, string(data))

	entries, err := os.ReadDir(filepath.Join(s.Root(), "a", "b"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	assert.Equal(t, filepath.Join(s.Root(), "a", "b", "report.json"), s.Location("a/b/report.json"))
}

func TestStore_RejectsEscapingPaths(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"", "/etc/passwd", "../up.txt", "a/../../up.txt", "."} {
		err := s.WriteFile(context.Background(), p, []byte("x"))
		require.Error(t, err, p)
		code, _ := types.GetErrorCode(err)
		assert.Equal(t, types.ErrCodeWriteError, code, p)
	}
}

func TestStore_ReadMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.ReadFile(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, types.ErrIOError)
}

func TestStore_CancelledWrite(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.WriteFile(ctx, "x.txt", []byte("x")), context.Canceled)
}
