package cache

import (
	"context"
	"time"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Capacity   int           // Maximum number of entries (default: 1000)
	DefaultTTL time.Duration // Default TTL for entries (default: 5 minutes)
}

// DefaultServiceConfig returns default cache service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Capacity:   1000,
		DefaultTTL: 5 * time.Minute,
	}
}

// Service implements CacheService with LRU eviction. Unlike a plain TTL
// cache there is no background sweep: expired entries linger so they can
// be served stale while the backing store is down.
type Service struct {
	lru *LRUCache
}

// NewService creates a new cache service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	return &Service{lru: NewLRUCache(cfg.Capacity, cfg.DefaultTTL)}
}

// Get retrieves a fresh value from cache.
func (s *Service) Get(_ context.Context, key string) ([]byte, bool) {
	return s.lru.Get(key)
}

// GetStale retrieves a value regardless of expiry.
func (s *Service) GetStale(_ context.Context, key string) ([]byte, bool, bool) {
	return s.lru.GetStale(key)
}

// Set stores a value in cache.
func (s *Service) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.Set(key, value, ttl)
	return nil
}

// Invalidate invalidates cache entries matching the pattern.
func (s *Service) Invalidate(_ context.Context, pattern string) error {
	s.lru.Invalidate(pattern)
	return nil
}

// Size returns the number of entries in the cache.
func (s *Service) Size() int {
	return s.lru.Size()
}

// Clear removes all entries from the cache.
func (s *Service) Clear() {
	s.lru.Clear()
}

// Ensure Service implements CacheService
var _ CacheService = (*Service)(nil)
