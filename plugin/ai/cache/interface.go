// Package cache provides the in-memory LRU cache shared by the
// conversational context layer. Entries expire after a TTL but are kept
// until evicted, so a stale entry can still be served as a degraded
// fallback when the backing store is unreachable.
package cache

import (
	"context"
	"time"
)

// CacheService defines the cache interface used by the context layer.
type CacheService interface {
	// Get retrieves a fresh value. Expired entries miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// GetStale retrieves a value regardless of expiry. The second return
	// reports whether the entry was still fresh.
	GetStale(ctx context.Context, key string) (value []byte, fresh bool, ok bool)

	// Set stores a value. ttl <= 0 uses the service default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes entries matching the pattern (suffix * wildcard).
	Invalidate(ctx context.Context, pattern string) error
}
