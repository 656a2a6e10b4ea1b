package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

func (r *Repository) InsertMessage(
	ctx context.Context,
	tx *sql.Tx,
	msg *domain.Message,
) error {
	defer timeQuery("insert_message")()

	var filename interface{}
	if msg.Filename != "" {
		filename = msg.Filename
	}

	q := r.getter(tx)
	err := q.QueryRowContext(ctx, `
		INSERT INTO messages (body, conversation_id, user_id, type, filename)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`,
		msg.Body,
		msg.ConversationID,
		msg.SenderID,
		msg.Type,
		filename,
	).Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)

	return mapError(err)
}

func (r *Repository) GetMessage(
	ctx context.Context,
	tx *sql.Tx,
	messageID int64,
) (*domain.Message, error) {

	q := r.getter(tx)
	var msg domain.Message
	err := q.QueryRowContext(ctx, `
		SELECT id, body, conversation_id, user_id, type,
		       COALESCE(filename, ''), created_at, updated_at
		FROM messages
		WHERE id = $1
	`, messageID).Scan(
		&msg.ID,
		&msg.Body,
		&msg.ConversationID,
		&msg.SenderID,
		&msg.Type,
		&msg.Filename,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// ListInboxMessages joins the message log with the user's delivery rows. The
// active view keeps rows whose deleted_at is null, the trashed view the rest.
func (r *Repository) ListInboxMessages(
	ctx context.Context,
	convID int64,
	userID domain.UserID,
	q domain.MessageQuery,
) ([]domain.InboxMessage, int, error) {
	defer timeQuery("list_messages")()

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM message_notification n
		WHERE n.conversation_id = $1
		  AND n.user_id = $2
		  AND (n.deleted_at IS NOT NULL) = $3
	`, convID, userID, q.Deleted).Scan(&total); err != nil {
		return nil, 0, err
	}

	direction := "ASC"
	if q.Sorting == domain.SortDesc {
		direction = "DESC"
	}

	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT m.id, m.body, m.conversation_id, m.user_id, m.type,
		       COALESCE(m.filename, ''), m.created_at, m.updated_at,
		       n.id, n.is_seen, n.is_sender, n.flagged, n.seen_at, n.deleted_at
		FROM messages m
		JOIN message_notification n ON n.message_id = m.id
		WHERE m.conversation_id = $1
		  AND n.user_id = $2
		  AND (n.deleted_at IS NOT NULL) = $3
		ORDER BY m.id %s
		LIMIT $4 OFFSET $5
	`, direction), convID, userID, q.Deleted, q.PerPage, q.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages []domain.InboxMessage
	for rows.Next() {
		var m domain.InboxMessage
		var seenAt, deletedAt sql.NullTime
		if err := rows.Scan(
			&m.ID,
			&m.Body,
			&m.ConversationID,
			&m.SenderID,
			&m.Type,
			&m.Filename,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.NotificationID,
			&m.IsSeen,
			&m.IsSender,
			&m.Flagged,
			&seenAt,
			&deletedAt,
		); err != nil {
			return nil, 0, err
		}
		m.SeenAt = timePtr(seenAt)
		m.DeletedAt = timePtr(deletedAt)
		messages = append(messages, m)
	}

	return messages, total, rows.Err()
}
