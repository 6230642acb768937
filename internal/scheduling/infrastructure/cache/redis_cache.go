// Package cache holds the Redis-backed solve-result cache (SPEC_FULL §4.9).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

// RedisCache implements domain.ResultCache, keyed by request fingerprint.
// Keys are namespaced so the cache can share a Redis instance with other
// consumers without collision.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a cache with the given entry TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(fingerprint string) string {
	return fmt.Sprintf("intervsched:solve:%s", fingerprint)
}

// Get returns the cached Response for a fingerprint, if present.
func (c *RedisCache) Get(ctx context.Context, fingerprint string) (*domain.Response, bool, error) {
	val, err := c.client.Get(ctx, c.key(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var resp domain.Response
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached response: %w", err)
	}
	return &resp, true, nil
}

// Set stores a Response under its request fingerprint.
func (c *RedisCache) Set(ctx context.Context, fingerprint string, resp domain.Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if err := c.client.Set(ctx, c.key(fingerprint), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
