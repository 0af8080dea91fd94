package domain

import (
	"context"
	"time"
)

// Cache is used for read-mostly lookups around the pipeline: customer
// records, assembled typology context, and retrieved template snippets.
// A miss returns nil, nil.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// If true, check local LRU first, then Redis.
	EnableTwoPhase bool
}
