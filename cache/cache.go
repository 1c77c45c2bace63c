// Package cache stores finished comparisons by their comparison id.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/benedoc-inc/overlap/core/compare"
)

// Cache stores comparison results. Get reports a miss with ok=false and a nil
// error; an error means the cache itself failed.
type Cache interface {
	Get(ctx context.Context, id string) (result *compare.ComparisonResult, ok bool, err error)
	Put(ctx context.Context, result *compare.ComparisonResult) error
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(context.Context, string) (*compare.ComparisonResult, bool, error) {
	return nil, false, nil
}

func (Nop) Put(context.Context, *compare.ComparisonResult) error { return nil }

type entry struct {
	result  *compare.ComparisonResult
	expires time.Time
}

// Memory is an in-process cache with a per-entry TTL
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an in-process cache. ttl <= 0 keeps entries forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, id string) (*compare.ComparisonResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.entries, id)
		return nil, false, nil
	}
	return e.result, true, nil
}

func (m *Memory) Put(_ context.Context, result *compare.ComparisonResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry{result: result}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[result.ID] = e
	return nil
}

// Len returns the number of stored entries, expired ones included
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
