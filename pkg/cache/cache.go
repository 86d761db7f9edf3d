// Package cache is a Redis cache-aside layer for analytics results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"yt-harvest/pkg/logging"
)

// DefaultTTL applies when New is given a non-positive ttl.
const DefaultTTL = 5 * time.Minute

const keyPrefix = "ytharvest:query:"

// Cache stores JSON-encoded values under a common prefix. A Cache with a nil
// client is valid and caches nothing.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// New connects to redisURL. If the URL is empty, invalid or unreachable the
// returned Cache is disabled rather than failing.
func New(ctx context.Context, redisURL string, ttl time.Duration) *Cache {
	log := logging.Component("cache")
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{ttl: ttl, log: log}

	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return c
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return c
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return c
	}

	log.Info().Msg("redis: connected, caching enabled")
	c.rdb = rdb
	return c
}

// NewWithClient wraps an existing client. rdb may be nil.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl, log: logging.Component("cache")}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get returns the cached bytes for key, or nil when absent or disabled.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

// Set JSON-encodes v and stores it under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefix+key, b, c.ttl).Err()
}

// InvalidateAll removes every cached result. Called after a migration changes
// the warehouse.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Ping checks the connection. A disabled cache reports no error.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close shuts down the Redis connection.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
