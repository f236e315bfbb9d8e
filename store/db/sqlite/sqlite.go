package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/lifetales/lifetales/internal/profile"
	"github.com/lifetales/lifetales/store"
)

// SQLite is the default driver for single-user local deployments. It
// keeps the whole memoir in one file under the data directory.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database referenced by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("sqlite", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		return nil, errors.Wrap(err, "failed to configure database")
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS story (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uid TEXT NOT NULL UNIQUE,
		creator_id INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		phase_id TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		connection_ids TEXT NOT NULL DEFAULT '[]',
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_story_creator_updated ON story (creator_id, updated_ts DESC)`,
	`CREATE TABLE IF NOT EXISTS connection (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uid TEXT NOT NULL UNIQUE,
		creator_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		relationship TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		first_appearance TEXT NOT NULL DEFAULT '{}',
		stories TEXT NOT NULL DEFAULT '[]',
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL,
		UNIQUE (creator_id, normalized_name)
	)`,
	`CREATE TABLE IF NOT EXISTS context_record (
		story_id INTEGER PRIMARY KEY,
		data TEXT NOT NULL,
		version INTEGER NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_message (
		id TEXT PRIMARY KEY,
		story_id INTEGER NOT NULL,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		is_greeting INTEGER NOT NULL DEFAULT 0,
		quick_replies TEXT NOT NULL DEFAULT '[]',
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_message_story ON chat_message (story_id, created_ts)`,
}

// Migrate creates the schema. Idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply schema")
		}
	}
	return nil
}

// marshalJSON serializes a value for a JSON text column, falling back to
// the provided zero literal on error.
func marshalJSON(v any, zero string) string {
	data, err := json.Marshal(v)
	if err != nil {
		return zero
	}
	return string(data)
}

func unmarshalStrings(data string) []string {
	out := []string{}
	_ = json.Unmarshal([]byte(data), &out)
	return out
}

func unmarshalInt32s(data string) []int32 {
	out := []int32{}
	_ = json.Unmarshal([]byte(data), &out)
	return out
}

func unmarshalStoryRefs(data string) []store.StoryRef {
	out := []store.StoryRef{}
	_ = json.Unmarshal([]byte(data), &out)
	return out
}

func unmarshalStoryRef(data string, out *store.StoryRef) {
	_ = json.Unmarshal([]byte(data), out)
}
