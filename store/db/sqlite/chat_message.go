package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/lifetales/lifetales/store"
)

func (d *DB) CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	stmt := `
		INSERT INTO chat_message (id, story_id, sender, content, is_greeting, quick_replies, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.StoryID, create.Sender, create.Content,
		create.IsGreeting, marshalJSON(create.QuickReplies, "[]"), create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create chat message")
	}
	return create, nil
}

func (d *DB) ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.StoryID != nil {
		where, args = append(where, "story_id = ?"), append(args, *find.StoryID)
	}

	query := `
		SELECT id, story_id, sender, content, is_greeting, quick_replies, created_ts
		FROM chat_message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC
	`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat messages")
	}
	defer rows.Close()

	messages := []*store.ChatMessage{}
	for rows.Next() {
		var message store.ChatMessage
		var quickReplies string
		if err := rows.Scan(
			&message.ID, &message.StoryID, &message.Sender, &message.Content,
			&message.IsGreeting, &quickReplies, &message.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat message")
		}
		message.QuickReplies = unmarshalStrings(quickReplies)
		messages = append(messages, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat messages")
	}
	return messages, nil
}

func (d *DB) DeleteChatMessages(ctx context.Context, delete *store.DeleteChatMessages) error {
	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM chat_message WHERE story_id = ?", delete.StoryID,
	); err != nil {
		return errors.Wrap(err, "failed to delete chat messages")
	}
	return nil
}
