package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/lifetales/lifetales/store"
)

func (d *DB) CreateConnection(ctx context.Context, create *store.Connection) (*store.Connection, error) {
	stmt := `
		INSERT INTO connection (uid, creator_id, name, normalized_name, relationship, notes, first_appearance, stories, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, stmt,
		create.UID, create.CreatorID, create.Name, create.NormalizedName,
		create.Relationship, create.Notes,
		marshalJSON(create.FirstAppearance, "{}"), marshalJSON(create.Stories, "[]"),
		create.CreatedTs, create.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get connection id")
	}
	create.ID = int32(id)
	return create, nil
}

func (d *DB) ListConnections(ctx context.Context, find *store.FindConnection) ([]*store.Connection, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = ?"), append(args, *find.CreatorID)
	}
	if find.NormalizedName != nil {
		where, args = append(where, "normalized_name = ?"), append(args, *find.NormalizedName)
	}

	query := `
		SELECT id, uid, creator_id, name, normalized_name, relationship, notes, first_appearance, stories, created_ts, updated_ts
		FROM connection
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list connections")
	}
	defer rows.Close()

	connections := []*store.Connection{}
	for rows.Next() {
		var connection store.Connection
		var firstAppearance, stories string
		if err := rows.Scan(
			&connection.ID, &connection.UID, &connection.CreatorID, &connection.Name,
			&connection.NormalizedName, &connection.Relationship, &connection.Notes,
			&firstAppearance, &stories, &connection.CreatedTs, &connection.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan connection")
		}
		connection.Stories = unmarshalStoryRefs(stories)
		unmarshalStoryRef(firstAppearance, &connection.FirstAppearance)
		connections = append(connections, &connection)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate connections")
	}
	return connections, nil
}

func (d *DB) UpdateConnection(ctx context.Context, update *store.UpdateConnection) error {
	set, args := []string{}, []any{}
	if update.Relationship != nil {
		set, args = append(set, "relationship = ?"), append(args, *update.Relationship)
	}
	if update.Notes != nil {
		set, args = append(set, "notes = ?"), append(args, *update.Notes)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := "UPDATE connection SET " + strings.Join(set, ", ") + " WHERE id = ?"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update connection")
	}
	return nil
}

func (d *DB) DeleteConnection(ctx context.Context, delete *store.DeleteConnection) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM connection WHERE id = ?", delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete connection")
	}
	return nil
}

// LinkConnectionStory appends the story to the connection's appearance
// list and the connection id to the story's connection list inside one
// transaction. Either both sides commit or neither does, and re-linking
// an already-linked pair changes nothing.
func (d *DB) LinkConnectionStory(ctx context.Context, link *store.LinkConnectionStory) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin link transaction")
	}
	defer tx.Rollback()

	var storiesRaw string
	if err := tx.QueryRowContext(ctx,
		"SELECT stories FROM connection WHERE id = ?", link.ConnectionID,
	).Scan(&storiesRaw); err != nil {
		return errors.Wrap(err, "failed to load connection stories")
	}
	refs := unmarshalStoryRefs(storiesRaw)

	connectionIDs, err := getStoryConnectionIDsTx(ctx, tx, link.StoryID)
	if err != nil {
		return errors.Wrap(err, "failed to load story connection ids")
	}

	refLinked := false
	for _, ref := range refs {
		if ref.StoryID == link.StoryID {
			refLinked = true
			break
		}
	}
	idLinked := false
	for _, id := range connectionIDs {
		if id == link.ConnectionID {
			idLinked = true
			break
		}
	}
	if refLinked && idLinked {
		return nil
	}

	if !refLinked {
		refs = append(refs, store.StoryRef{
			StoryID: link.StoryID,
			Title:   link.StoryTitle,
			Year:    link.StoryYear,
		})
		if _, err := tx.ExecContext(ctx,
			"UPDATE connection SET stories = ?, updated_ts = ? WHERE id = ?",
			marshalJSON(refs, "[]"), link.UpdatedTs, link.ConnectionID,
		); err != nil {
			return errors.Wrap(err, "failed to update connection stories")
		}
	}
	if !idLinked {
		connectionIDs = append(connectionIDs, link.ConnectionID)
		if _, err := tx.ExecContext(ctx,
			"UPDATE story SET connection_ids = ?, updated_ts = ? WHERE id = ?",
			marshalJSON(connectionIDs, "[]"), link.UpdatedTs, link.StoryID,
		); err != nil {
			return errors.Wrap(err, "failed to update story connection ids")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit link transaction")
}
