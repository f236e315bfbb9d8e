package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/lifetales/lifetales/store"
)

func (d *DB) CreateConnection(ctx context.Context, create *store.Connection) (*store.Connection, error) {
	stmt := `
		INSERT INTO connection (uid, creator_id, name, normalized_name, relationship, notes, first_appearance, stories, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.CreatorID, create.Name, create.NormalizedName,
		create.Relationship, create.Notes,
		marshalJSON(create.FirstAppearance, "{}"), marshalJSON(create.Stories, "[]"),
		create.CreatedTs, create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create connection")
	}
	return create, nil
}

func (d *DB) ListConnections(ctx context.Context, find *store.FindConnection) ([]*store.Connection, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		args = append(args, *find.ID)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}
	if find.CreatorID != nil {
		args = append(args, *find.CreatorID)
		where = append(where, fmt.Sprintf("creator_id = $%d", len(args)))
	}
	if find.NormalizedName != nil {
		args = append(args, *find.NormalizedName)
		where = append(where, fmt.Sprintf("normalized_name = $%d", len(args)))
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
	add := func(col string, val any) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if update.Relationship != nil {
		add("relationship", *update.Relationship)
	}
	if update.Notes != nil {
		add("notes", *update.Notes)
	}
	if update.UpdatedTs != nil {
		add("updated_ts", *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := fmt.Sprintf("UPDATE connection SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update connection")
	}
	return nil
}

func (d *DB) DeleteConnection(ctx context.Context, delete *store.DeleteConnection) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM connection WHERE id = $1", delete.ID); err != nil {
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
		"SELECT stories FROM connection WHERE id = $1 FOR UPDATE", link.ConnectionID,
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
			"UPDATE connection SET stories = $1, updated_ts = $2 WHERE id = $3",
			marshalJSON(refs, "[]"), link.UpdatedTs, link.ConnectionID,
		); err != nil {
			return errors.Wrap(err, "failed to update connection stories")
		}
	}
	if !idLinked {
		connectionIDs = append(connectionIDs, link.ConnectionID)
		if _, err := tx.ExecContext(ctx,
			"UPDATE story SET connection_ids = $1, updated_ts = $2 WHERE id = $3",
			marshalJSON(connectionIDs, "[]"), link.UpdatedTs, link.StoryID,
		); err != nil {
			return errors.Wrap(err, "failed to update story connection ids")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit link transaction")
}
