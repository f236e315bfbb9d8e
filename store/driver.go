package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate brings the schema up to date. Idempotent.
	Migrate(ctx context.Context) error

	// Story model related methods.
	CreateStory(ctx context.Context, create *Story) (*Story, error)
	ListStories(ctx context.Context, find *FindStory) ([]*Story, error)
	UpdateStory(ctx context.Context, update *UpdateStory) error
	DeleteStory(ctx context.Context, delete *DeleteStory) error

	// Connection model related methods.
	CreateConnection(ctx context.Context, create *Connection) (*Connection, error)
	ListConnections(ctx context.Context, find *FindConnection) ([]*Connection, error)
	UpdateConnection(ctx context.Context, update *UpdateConnection) error
	DeleteConnection(ctx context.Context, delete *DeleteConnection) error

	// LinkConnectionStory appends the story ref to the connection and the
	// connection id to the story in one transaction. Idempotent.
	LinkConnectionStory(ctx context.Context, link *LinkConnectionStory) error

	// ContextRecord model related methods.
	UpsertContextRecord(ctx context.Context, upsert *ContextRecord) (*ContextRecord, error)
	GetContextRecord(ctx context.Context, find *FindContextRecord) (*ContextRecord, error)
	DeleteContextRecord(ctx context.Context, delete *DeleteContextRecord) error

	// ChatMessage model related methods.
	CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error)
	ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error)
	DeleteChatMessages(ctx context.Context, delete *DeleteChatMessages) error
}
