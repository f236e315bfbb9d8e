package connection

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"

	coreerr "github.com/lifetales/lifetales/internal/errors"
	"github.com/lifetales/lifetales/internal/observability"
	"github.com/lifetales/lifetales/store"
)

// Registry is the subset of the store the linker needs.
type Registry interface {
	GetConnection(ctx context.Context, find *store.FindConnection) (*store.Connection, error)
	CreateConnection(ctx context.Context, create *store.Connection) (*store.Connection, error)
	LinkConnectionStory(ctx context.Context, link *store.LinkConnectionStory) error
}

// StoryInfo identifies the story a detected name appeared in.
type StoryInfo struct {
	ID      int32
	Title   string
	Year    int
	PhaseID string
}

// Linker turns detected names into persistent connections. One record
// exists per (user, normalized name); linking the same name to the same
// story twice is a no-op.
type Linker struct {
	registry Registry
}

// NewLinker creates a new linker.
func NewLinker(registry Registry) *Linker {
	return &Linker{registry: registry}
}

// Link finds or creates the connection for a detected name and records
// its appearance in the story. Both sides of the story link are written
// in one transaction by the store; a failure there leaves neither side
// written, so the caller can retry safely.
func (l *Linker) Link(ctx context.Context, userID int32, story StoryInfo, match Match) (*store.Connection, error) {
	rc := observability.FromContext(ctx)

	normalized := NormalizeName(match.Name)
	conn, err := l.registry.GetConnection(ctx, &store.FindConnection{
		CreatorID:      &userID,
		NormalizedName: &normalized,
	})
	if err != nil {
		return nil, coreerr.LinkFailed("failed to look up connection", err)
	}

	now := time.Now().Unix()
	if conn == nil {
		conn, err = l.registry.CreateConnection(ctx, &store.Connection{
			UID:            shortuuid.New(),
			CreatorID:      userID,
			Name:           match.Name,
			NormalizedName: normalized,
			Relationship:   match.Relationship,
			FirstAppearance: store.StoryRef{
				StoryID: story.ID,
				Title:   story.Title,
				Year:    story.Year,
				PhaseID: story.PhaseID,
			},
			CreatedTs: now,
			UpdatedTs: now,
		})
		if err != nil {
			return nil, coreerr.LinkFailed("failed to create connection", err)
		}
		rc.Info("connection created",
			"connection_id", conn.ID,
			"name", match.Name,
			"relationship", match.Relationship)
	}

	if err := l.registry.LinkConnectionStory(ctx, &store.LinkConnectionStory{
		ConnectionID: conn.ID,
		StoryID:      story.ID,
		StoryTitle:   story.Title,
		StoryYear:    story.Year,
		UpdatedTs:    now,
	}); err != nil {
		return nil, coreerr.LinkFailed("failed to link connection to story", err)
	}

	return conn, nil
}

// LinkAll links every detected match, returning the connections that were
// linked. A failure on one match stops the pass and reports it; matches
// already linked are unaffected by the retry.
func (l *Linker) LinkAll(ctx context.Context, userID int32, story StoryInfo, matches []Match) ([]*store.Connection, error) {
	connections := make([]*store.Connection, 0, len(matches))
	for _, match := range matches {
		conn, err := l.Link(ctx, userID, story, match)
		if err != nil {
			return connections, err
		}
		connections = append(connections, conn)
	}
	return connections, nil
}
