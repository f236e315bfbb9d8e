package sqlite

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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, stmt,
		create.UID, create.CreatorID, create.Title, create.Content, create.Year, create.PhaseID,
		marshalJSON(create.Tags, "[]"), marshalJSON(create.ConnectionIDs, "[]"),
		create.CreatedTs, create.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create story")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get story id")
	}
	create.ID = int32(id)
	return create, nil
}

func (d *DB) ListStories(ctx context.Context, find *store.FindStory) ([]*store.Story, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = ?"), append(args, *find.CreatorID)
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
	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.Content != nil {
		set, args = append(set, "content = ?"), append(args, *update.Content)
	}
	if update.Year != nil {
		set, args = append(set, "year = ?"), append(args, *update.Year)
	}
	if update.PhaseID != nil {
		set, args = append(set, "phase_id = ?"), append(args, *update.PhaseID)
	}
	if update.Tags != nil {
		set, args = append(set, "tags = ?"), append(args, marshalJSON(*update.Tags, "[]"))
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := "UPDATE story SET " + strings.Join(set, ", ") + " WHERE id = ?"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update story")
	}
	return nil
}

func (d *DB) DeleteStory(ctx context.Context, delete *store.DeleteStory) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM story WHERE id = ?", delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete story")
	}
	return nil
}

// getStoryConnectionIDsTx reads the connection id list inside a transaction.
func getStoryConnectionIDsTx(ctx context.Context, tx *sql.Tx, storyID int32) ([]int32, error) {
	var raw string
	if err := tx.QueryRowContext(ctx, "SELECT connection_ids FROM story WHERE id = ?", storyID).Scan(&raw); err != nil {
		return nil, err
	}
	return unmarshalInt32s(raw), nil
}
