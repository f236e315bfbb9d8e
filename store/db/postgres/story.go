package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/lifetales/lifetales/store"
)

func (d *DB) CreateStory(ctx context.Context, create *store.Story) (*store.Story, error) {
	stmt := `
		INSERT INTO story (uid, creator_id, title, content, year, phase_id, tags, connection_ids, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.CreatorID, create.Title, create.Content, create.Year, create.PhaseID,
		marshalJSON(create.Tags, "[]"), marshalJSON(create.ConnectionIDs, "[]"),
		create.CreatedTs, create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create story")
	}
	return create, nil
}

func (d *DB) ListStories(ctx context.Context, find *store.FindStory) ([]*store.Story, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		args = append(args, *find.ID)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}
	if find.UID != nil {
		args = append(args, *find.UID)
		where = append(where, fmt.Sprintf("uid = $%d", len(args)))
	}
	if find.CreatorID != nil {
		args = append(args, *find.CreatorID)
		where = append(where, fmt.Sprintf("creator_id = $%d", len(args)))
	}

	query := `
		SELECT id, uid, creator_id, title, content, year, phase_id, tags, connection_ids, created_ts, updated_ts
		FROM story
		WHERE ` + strings.Join(where, " AND ")
	if find.OrderByUpdatedTs {
		query += " ORDER BY updated_ts DESC"
	}
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stories")
	}
	defer rows.Close()

	stories := []*store.Story{}
	for rows.Next() {
		var story store.Story
		var tags, connectionIDs string
		if err := rows.Scan(
			&story.ID, &story.UID, &story.CreatorID, &story.Title, &story.Content,
			&story.Year, &story.PhaseID, &tags, &connectionIDs,
			&story.CreatedTs, &story.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan story")
		}
		story.Tags = unmarshalStrings(tags)
		story.ConnectionIDs = unmarshalInt32s(connectionIDs)
		stories = append(stories, &story)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate stories")
	}
	return stories, nil
}

func (d *DB) UpdateStory(ctx context.Context, update *store.UpdateStory) error {
	set, args := []string{}, []any{}
	add := func(col string, val any) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Content != nil {
		add("content", *update.Content)
	}
	if update.Year != nil {
		add("year", *update.Year)
	}
	if update.PhaseID != nil {
		add("phase_id", *update.PhaseID)
	}
	if update.Tags != nil {
		add("tags", marshalJSON(*update.Tags, "[]"))
	}
	if update.UpdatedTs != nil {
		add("updated_ts", *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := fmt.Sprintf("UPDATE story SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update story")
	}
	return nil
}

func (d *DB) DeleteStory(ctx context.Context, delete *store.DeleteStory) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM story WHERE id = $1", delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete story")
	}
	return nil
}

// getStoryConnectionIDsTx reads the connection id list inside a transaction.
func getStoryConnectionIDsTx(ctx context.Context, tx *sql.Tx, storyID int32) ([]int32, error) {
	var raw string
	if err := tx.QueryRowContext(ctx, "SELECT connection_ids FROM story WHERE id = $1", storyID).Scan(&raw); err != nil {
		return nil, err
	}
	return unmarshalInt32s(raw), nil
}
