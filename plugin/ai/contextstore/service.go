package contextstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lifetales/lifetales/plugin/ai/analysis"
	"github.com/lifetales/lifetales/plugin/ai/cache"
	coreerr "github.com/lifetales/lifetales/internal/errors"
	"github.com/lifetales/lifetales/internal/observability"
	"github.com/lifetales/lifetales/store"
)

// CacheTTL is the freshness window for in-memory context entries.
const CacheTTL = 5 * time.Minute

// Backing is the subset of the store the context service needs.
type Backing interface {
	UpsertContextRecord(ctx context.Context, upsert *store.ContextRecord) (*store.ContextRecord, error)
	GetContextRecord(ctx context.Context, find *store.FindContextRecord) (*store.ContextRecord, error)
	DeleteContextRecord(ctx context.Context, delete *store.DeleteContextRecord) error
}

// Service persists per-story conversational context with a read-through
// cache. Reads degrade to a stale cache entry when the backing store is
// unreachable; only a cold miss during an outage yields nil.
type Service struct {
	store  Backing
	cache  cache.CacheService
	engine *analysis.Engine
	group  singleflight.Group
}

// NewService creates a new context service.
func NewService(backing Backing, cacheService cache.CacheService, engine *analysis.Engine) *Service {
	return &Service{
		store:  backing,
		cache:  cacheService,
		engine: engine,
	}
}

func cacheKey(storyID int32) string {
	return fmt.Sprintf("context:%d", storyID)
}

// Save persists the context for a story. When result is nil the analysis
// is recomputed from the user-authored message content. The cache is
// updated before the write so the latest context survives a store outage;
// write failures still propagate to the caller.
func (s *Service) Save(ctx context.Context, storyID int32, conv ConversationContext, result *analysis.Result) error {
	rc := observability.FromContext(ctx)
	conv.Sanitize()

	if result == nil {
		result = s.engine.Analyze(conv.MessageHistory.LastUserMessage)
	}

	sc := &StoredContext{
		Context:   conv,
		Analysis:  result,
		UpdatedAt: time.Now().Unix(),
		Version:   CurrentSchemaVersion,
	}
	data, err := json.Marshal(sc)
	if err != nil {
		return coreerr.StoreUnavailable("failed to encode context", err)
	}

	key := cacheKey(storyID)
	_ = s.cache.Set(ctx, key, data, CacheTTL)

	if _, err := s.store.UpsertContextRecord(ctx, &store.ContextRecord{
		StoryID:   storyID,
		Data:      data,
		Version:   CurrentSchemaVersion,
		UpdatedTs: sc.UpdatedAt,
	}); err != nil {
		rc.Error("failed to persist context", "story_id", storyID, "error", err)
		return coreerr.StoreUnavailable("failed to persist context", err)
	}

	rc.Debug("context saved", "story_id", storyID, "bytes", len(data))
	return nil
}

// Load returns the stored context for a story, or nil if none exists.
// Fresh cache entries are served directly. On a backing-store read
// failure an expired cache entry is served as a degraded fallback.
func (s *Service) Load(ctx context.Context, storyID int32) (*StoredContext, error) {
	rc := observability.FromContext(ctx)
	key := cacheKey(storyID)

	if data, ok := s.cache.Get(ctx, key); ok {
		if sc, err := decode(data); err == nil {
			return sc, nil
		}
		// An undecodable cache entry falls through to the store read.
		_ = s.cache.Invalidate(ctx, key)
	}

	value, err, _ := s.group.Do(key, func() (any, error) {
		return s.loadCold(ctx, storyID, key)
	})
	if err != nil {
		// Reads never propagate store failures. Serve stale if we can.
		if data, _, ok := s.cache.GetStale(ctx, key); ok {
			if sc, decodeErr := decode(data); decodeErr == nil {
				rc.Warn("context store read failed, serving stale cache",
					"story_id", storyID, "error", err)
				return sc, nil
			}
		}
		rc.Warn("context store read failed with no cached fallback",
			"story_id", storyID, "error", err)
		return nil, nil
	}
	if value == nil {
		return nil, nil
	}
	return value.(*StoredContext), nil
}

// loadCold reads from the backing store, upgrading stale schema versions
// in place and repopulating the cache.
func (s *Service) loadCold(ctx context.Context, storyID int32, key string) (*StoredContext, error) {
	rc := observability.FromContext(ctx)

	record, err := s.store.GetContextRecord(ctx, &store.FindContextRecord{StoryID: storyID})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	sc, err := decode(record.Data)
	if err != nil {
		rc.Warn("discarding undecodable context record", "story_id", storyID, "error", err)
		return nil, nil
	}
	if sc.Version <= 0 {
		sc.Version = record.Version
	}

	if migrate(sc) {
		if sc.Analysis == nil {
			sc.Analysis = s.engine.Analyze(sc.Context.MessageHistory.LastUserMessage)
		}
		rc.Info("upgraded context schema", "story_id", storyID, "version", sc.Version)
		if data, err := json.Marshal(sc); err == nil {
			if _, err := s.store.UpsertContextRecord(ctx, &store.ContextRecord{
				StoryID:   storyID,
				Data:      data,
				Version:   sc.Version,
				UpdatedTs: time.Now().Unix(),
			}); err != nil {
				rc.Warn("failed to persist upgraded context", "story_id", storyID, "error", err)
			}
		}
	}

	sc.Context.Sanitize()
	if data, err := json.Marshal(sc); err == nil {
		_ = s.cache.Set(ctx, key, data, CacheTTL)
	}
	return sc, nil
}

// Delete removes the stored context and its cache entry.
func (s *Service) Delete(ctx context.Context, storyID int32) error {
	_ = s.cache.Invalidate(ctx, cacheKey(storyID))
	if err := s.store.DeleteContextRecord(ctx, &store.DeleteContextRecord{StoryID: storyID}); err != nil {
		return coreerr.StoreUnavailable("failed to delete context", err)
	}
	return nil
}

func decode(data []byte) (*StoredContext, error) {
	sc := &StoredContext{}
	if err := json.Unmarshal(data, sc); err != nil {
		return nil, err
	}
	sc.Context.Sanitize()
	return sc, nil
}
