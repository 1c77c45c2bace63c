// Package cacheredis implements cache.Cache on Redis.
package cacheredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/benedoc-inc/overlap/core/compare"
	"github.com/benedoc-inc/overlap/types"
)

// Client is the part of redis.Cmdable the cache uses
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache stores comparison results as JSON values
type Cache struct {
	rdb Client
	ttl time.Duration
}

// New creates a Redis-backed cache. ttl <= 0 stores entries without expiry.
func New(rdb Client, ttl time.Duration) *Cache {
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Dial connects to addr and verifies the connection
func Dial(ctx context.Context, addr string, ttl time.Duration) (*Cache, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, types.WrapError(types.ErrCodeIOError, "failed to connect to redis", err).
			WithContext("addr", addr)
	}
	return New(rdb, ttl), rdb, nil
}

func resultKey(id string) string { return fmt.Sprintf("overlap:result:%s", id) }

func (c *Cache) Get(ctx context.Context, id string) (*compare.ComparisonResult, bool, error) {
	data, err := c.rdb.Get(ctx, resultKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, types.WrapError(types.ErrCodeIOError, "failed to read cached result", err).
			WithContext("id", id)
	}

	var result compare.ComparisonResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, types.WrapError(types.ErrCodeIOError, "failed to decode cached result", err).
			WithContext("id", id)
	}
	return &result, true, nil
}

func (c *Cache) Put(ctx context.Context, result *compare.ComparisonResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return types.WrapError(types.ErrCodeWriteError, "failed to encode result", err).
			WithContext("id", result.ID)
	}
	if err := c.rdb.Set(ctx, resultKey(result.ID), data, c.ttl).Err(); err != nil {
		return types.WrapError(types.ErrCodeIOError, "failed to cache result", err).
			WithContext("id", result.ID)
	}
	return nil
}
