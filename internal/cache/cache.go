// Package cache provides a small byte cache with per-entry TTL, backed by
// Redis when configured and by an in-process LRU otherwise.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores opaque values by key.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl. A ttl <= 0 uses the cache's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options selects and sizes the cache backend.
type Options struct {
	RedisURL   string
	Size       int
	DefaultTTL time.Duration
}

// New returns a Redis cache when RedisURL is set, otherwise an in-memory one.
func New(ctx context.Context, opts Options) (Cache, error) {
	if opts.RedisURL != "" {
		return NewRedis(ctx, opts.RedisURL, opts.DefaultTTL)
	}
	return NewMemory(opts.Size, opts.DefaultTTL), nil
}

// Key derives a stable cache key from a namespace and content parts.
func Key(namespace string, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return namespace + ":" + hex.EncodeToString(h[:16])
}
