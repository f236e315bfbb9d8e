package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/lifetales/lifetales/store"
)

func (d *DB) UpsertContextRecord(ctx context.Context, upsert *store.ContextRecord) (*store.ContextRecord, error) {
	stmt := `
		INSERT INTO context_record (story_id, data, version, updated_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (story_id)
		DO UPDATE SET data = EXCLUDED.data, version = EXCLUDED.version, updated_ts = EXCLUDED.updated_ts
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.StoryID, string(upsert.Data), upsert.Version, upsert.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert context record")
	}
	return upsert, nil
}

func (d *DB) GetContextRecord(ctx context.Context, find *store.FindContextRecord) (*store.ContextRecord, error) {
	var record store.ContextRecord
	var data string
	err := d.db.QueryRowContext(ctx,
		"SELECT story_id, data, version, updated_ts FROM context_record WHERE story_id = ?",
		find.StoryID,
	).Scan(&record.StoryID, &data, &record.Version, &record.UpdatedTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get context record")
	}
	record.Data = []byte(data)
	return &record, nil
}

func (d *DB) DeleteContextRecord(ctx context.Context, delete *store.DeleteContextRecord) error {
	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM context_record WHERE story_id = ?", delete.StoryID,
	); err != nil {
		return errors.Wrap(err, "failed to delete context record")
	}
	return nil
}
