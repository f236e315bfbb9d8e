package store

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lifetales/lifetales/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Migrate brings the backing schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) CreateStory(ctx context.Context, create *Story) (*Story, error) {
	return s.driver.CreateStory(ctx, create)
}

// ListStories lists stories. When ordering is requested but the driver
// cannot satisfy it (for example a missing composite index on the
// backing store), the fetch is retried without ordering and sorted
// in-process as a degraded fallback.
func (s *Store) ListStories(ctx context.Context, find *FindStory) ([]*Story, error) {
	stories, err := s.driver.ListStories(ctx, find)
	if err != nil && find.OrderByUpdatedTs {
		slog.Warn("ordered story query failed, retrying unordered", "error", err)
		unordered := *find
		unordered.OrderByUpdatedTs = false
		unordered.Limit = nil
		stories, err = s.driver.ListStories(ctx, &unordered)
		if err != nil {
			return nil, err
		}
		sort.Slice(stories, func(i, j int) bool {
			return stories[i].UpdatedTs > stories[j].UpdatedTs
		})
		if find.Limit != nil && len(stories) > *find.Limit {
			stories = stories[:*find.Limit]
		}
		return stories, nil
	}
	return stories, err
}

func (s *Store) UpdateStory(ctx context.Context, update *UpdateStory) error {
	return s.driver.UpdateStory(ctx, update)
}

func (s *Store) DeleteStory(ctx context.Context, delete *DeleteStory) error {
	return s.driver.DeleteStory(ctx, delete)
}

func (s *Store) CreateConnection(ctx context.Context, create *Connection) (*Connection, error) {
	return s.driver.CreateConnection(ctx, create)
}

func (s *Store) ListConnections(ctx context.Context, find *FindConnection) ([]*Connection, error) {
	return s.driver.ListConnections(ctx, find)
}

// GetConnection returns the first connection matching find, or nil.
func (s *Store) GetConnection(ctx context.Context, find *FindConnection) (*Connection, error) {
	list, err := s.driver.ListConnections(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateConnection(ctx context.Context, update *UpdateConnection) error {
	return s.driver.UpdateConnection(ctx, update)
}

func (s *Store) DeleteConnection(ctx context.Context, delete *DeleteConnection) error {
	return s.driver.DeleteConnection(ctx, delete)
}

func (s *Store) LinkConnectionStory(ctx context.Context, link *LinkConnectionStory) error {
	return s.driver.LinkConnectionStory(ctx, link)
}

func (s *Store) UpsertContextRecord(ctx context.Context, upsert *ContextRecord) (*ContextRecord, error) {
	return s.driver.UpsertContextRecord(ctx, upsert)
}

func (s *Store) GetContextRecord(ctx context.Context, find *FindContextRecord) (*ContextRecord, error) {
	return s.driver.GetContextRecord(ctx, find)
}

func (s *Store) DeleteContextRecord(ctx context.Context, delete *DeleteContextRecord) error {
	return s.driver.DeleteContextRecord(ctx, delete)
}

func (s *Store) CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error) {
	return s.driver.CreateChatMessage(ctx, create)
}

func (s *Store) ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, find)
}

func (s *Store) DeleteChatMessages(ctx context.Context, delete *DeleteChatMessages) error {
	return s.driver.DeleteChatMessages(ctx, delete)
}
