package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/overlap/core/compare"
)

func TestMemory_GetPut(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := &compare.ComparisonResult{ID: "abc", Shared: true}
	require.NoError(t, c.Put(ctx, want))
	got, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, want, got)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put(ctx, &compare.ComparisonResult{ID: "abc"}))
	now = now.Add(30 * time.Second)
	_, ok, _ := c.Get(ctx, "abc")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx, "abc")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Put(context.Background(), &compare.ComparisonResult{ID: "x"}))
	_, ok, err := c.Get(context.Background(), "x")
	assert.NoError(t, err)
	assert.False(t, ok)
}
