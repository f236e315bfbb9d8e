package contextstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifetales/lifetales/plugin/ai/analysis"
	"github.com/lifetales/lifetales/plugin/ai/cache"
	coreerr "github.com/lifetales/lifetales/internal/errors"
	"github.com/lifetales/lifetales/store"
)

// fakeBacking is an in-memory Backing with switchable failure modes.
type fakeBacking struct {
	mu       sync.Mutex
	records  map[int32]*store.ContextRecord
	failRead bool
	failNext bool
	upserts  int
}

func newFakeBacking() *fakeBacking {
	return &fakeBacking{records: map[int32]*store.ContextRecord{}}
}

func (f *fakeBacking) UpsertContextRecord(_ context.Context, upsert *store.ContextRecord) (*store.ContextRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, errors.New("write failed")
	}
	f.upserts++
	clone := *upsert
	f.records[upsert.StoryID] = &clone
	return &clone, nil
}

func (f *fakeBacking) GetContextRecord(_ context.Context, find *store.FindContextRecord) (*store.ContextRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return nil, errors.New("store outage")
	}
	record, ok := f.records[find.StoryID]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (f *fakeBacking) DeleteContextRecord(_ context.Context, del *store.DeleteContextRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, del.StoryID)
	return nil
}

func newTestService(backing Backing) *Service {
	return NewService(backing, cache.NewService(cache.DefaultServiceConfig()), analysis.NewEngine())
}

func sampleContext() ConversationContext {
	return ConversationContext{
		RecentTopics: []string{"childhood", "family"},
		CurrentStoryDetails: StoryDetails{
			MainTopic: "moving to the farm",
			Locations: []string{"farm"},
			People:    []string{"mother"},
		},
		MessageHistory: MessageHistory{
			LastUserMessage: "My mother took me to the hospital when I was 5.",
			TopicStack:      []string{"childhood"},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	backing := newFakeBacking()
	svc := newTestService(backing)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, sampleContext(), nil))

	loaded, err := svc.Load(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []string{"childhood", "family"}, loaded.Context.RecentTopics)
	assert.Equal(t, CurrentSchemaVersion, loaded.Version)
	require.NotNil(t, loaded.Analysis, "analysis must be computed when not supplied")
	assert.NotEmpty(t, loaded.Analysis.Elements)
}

func TestLoadMissingReturnsNil(t *testing.T) {
	svc := newTestService(newFakeBacking())

	loaded, err := svc.Load(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadWithinFreshWindowIsIdentical(t *testing.T) {
	backing := newFakeBacking()
	svc := newTestService(backing)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, sampleContext(), nil))

	first, err := svc.Load(ctx, 1)
	require.NoError(t, err)
	second, err := svc.Load(ctx, 1)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestLoadServesCacheDuringStoreOutage(t *testing.T) {
	backing := newFakeBacking()
	svc := newTestService(backing)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, sampleContext(), nil))

	backing.failRead = true
	loaded, err := svc.Load(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded, "cached value must survive a store outage")
	assert.Equal(t, "moving to the farm", loaded.Context.CurrentStoryDetails.MainTopic)
}

func TestLoadServesStaleCacheDuringStoreOutage(t *testing.T) {
	backing := newFakeBacking()
	staleCache := cache.NewService(cache.DefaultServiceConfig())
	svc := NewService(backing, staleCache, analysis.NewEngine())
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, sampleContext(), nil))

	// Expire the entry by invalidating freshness via a zero-TTL rewrite,
	// then knock out the store. The stale entry must still be served.
	data, _, ok := staleCache.GetStale(ctx, "context:1")
	require.True(t, ok)
	require.NoError(t, staleCache.Set(ctx, "context:1", data, time.Nanosecond))
	time.Sleep(5 * time.Millisecond)
	backing.failRead = true

	loaded, err := svc.Load(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded, "stale cache entry must be served when the store is down")
}

func TestLoadColdMissDuringOutageReturnsNil(t *testing.T) {
	backing := newFakeBacking()
	backing.failRead = true
	svc := newTestService(backing)

	loaded, err := svc.Load(context.Background(), 7)
	require.NoError(t, err, "read failures must not propagate")
	assert.Nil(t, loaded)
}

func TestSaveWriteFailurePropagates(t *testing.T) {
	backing := newFakeBacking()
	backing.failNext = true
	svc := newTestService(backing)

	err := svc.Save(context.Background(), 1, sampleContext(), nil)
	require.Error(t, err)
	assert.True(t, coreerr.IsCode(err, coreerr.ErrCodeStoreUnavailable))
}

func TestLoadUpgradesStaleSchema(t *testing.T) {
	backing := newFakeBacking()
	svc := newTestService(backing)
	ctx := context.Background()

	// Seed a version-1 record with no analysis snapshot.
	old := &StoredContext{
		Context: ConversationContext{
			MessageHistory: MessageHistory{
				LastUserMessage: "We visited the lake every summer.",
			},
		},
		Version: 1,
	}
	data, err := json.Marshal(old)
	require.NoError(t, err)
	backing.records[3] = &store.ContextRecord{StoryID: 3, Data: data, Version: 1}

	loaded, err := svc.Load(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, CurrentSchemaVersion, loaded.Version)
	require.NotNil(t, loaded.Analysis, "upgrade must backfill the analysis snapshot")
	assert.NotNil(t, loaded.Context.RecentTopics)
	assert.Equal(t, "balanced", loaded.Context.UserPreferences.DetailLevel)

	// Upgrade is written back.
	backing.mu.Lock()
	persisted := backing.records[3]
	backing.mu.Unlock()
	assert.Equal(t, CurrentSchemaVersion, persisted.Version)
}

func TestDeleteRemovesRecordAndCache(t *testing.T) {
	backing := newFakeBacking()
	svc := newTestService(backing)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, sampleContext(), nil))
	require.NoError(t, svc.Delete(ctx, 1))

	backing.failRead = false
	loaded, err := svc.Load(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadFallsThroughOnCorruptCacheEntry(t *testing.T) {
	backing := newFakeBacking()
	cacheService := cache.NewService(cache.DefaultServiceConfig())
	svc := NewService(backing, cacheService, analysis.NewEngine())
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, sampleContext(), nil))

	// Poison the fresh cache entry. The read must fall through to the
	// store instead of surfacing a decode error.
	require.NoError(t, cacheService.Set(ctx, "context:1", []byte("{not json"), time.Minute))

	loaded, err := svc.Load(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "moving to the farm", loaded.Context.CurrentStoryDetails.MainTopic)
}
