package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

// InsertNotifications is the fan-out: a single statement over the
// conversation's current participants, so either every row lands or none.
func (r *Repository) InsertNotifications(
	ctx context.Context,
	tx *sql.Tx,
	msg *domain.Message,
) (int64, error) {
	defer timeQuery("fanout")()

	q := r.getter(tx)
	res, err := q.ExecContext(ctx, `
		INSERT INTO message_notification (message_id, conversation_id, user_id, is_sender)
		SELECT $1, cu.conversation_id, cu.user_id, cu.user_id = $3
		FROM conversation_user cu
		WHERE cu.conversation_id = $2
	`, msg.ID, msg.ConversationID, msg.SenderID)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (r *Repository) GetNotification(
	ctx context.Context,
	tx *sql.Tx,
	messageID int64,
	userID domain.UserID,
) (*domain.Notification, error) {
	q := r.getter(tx)
	n, err := scanNotification(q.QueryRowContext(ctx, `
		SELECT id, message_id, conversation_id, user_id, is_seen, is_sender, flagged,
		       seen_at, created_at, updated_at, deleted_at
		FROM message_notification
		WHERE message_id = $1 AND user_id = $2
	`, messageID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *Repository) MarkSeen(
	ctx context.Context,
	tx *sql.Tx,
	messageID int64,
	userID domain.UserID,
) error {
	q := r.getter(tx)
	res, err := q.ExecContext(ctx, `
		UPDATE message_notification
		SET is_seen = TRUE,
		    seen_at = COALESCE(seen_at, NOW()),
		    updated_at = NOW()
		WHERE message_id = $1 AND user_id = $2
	`, messageID, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res, domain.ErrNotificationNotFound)
}

func (r *Repository) MarkConversationSeen(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
	userID domain.UserID,
) (int64, error) {
	q := r.getter(tx)
	res, err := q.ExecContext(ctx, `
		UPDATE message_notification
		SET is_seen = TRUE,
		    seen_at = COALESCE(seen_at, NOW()),
		    updated_at = NOW()
		WHERE conversation_id = $1 AND user_id = $2 AND is_seen = FALSE
	`, convID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) SoftDelete(
	ctx context.Context,
	tx *sql.Tx,
	messageID int64,
	userID domain.UserID,
) error {
	q := r.getter(tx)
	res, err := q.ExecContext(ctx, `
		UPDATE message_notification
		SET deleted_at = COALESCE(deleted_at, NOW()),
		    updated_at = NOW()
		WHERE message_id = $1 AND user_id = $2
	`, messageID, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res, domain.ErrNotificationNotFound)
}

func (r *Repository) ToggleFlag(
	ctx context.Context,
	tx *sql.Tx,
	messageID int64,
	userID domain.UserID,
) (bool, error) {
	var flagged bool
	q := r.getter(tx)
	err := q.QueryRowContext(ctx, `
		UPDATE message_notification
		SET flagged = NOT flagged, updated_at = NOW()
		WHERE message_id = $1 AND user_id = $2
		RETURNING flagged
	`, messageID, userID).Scan(&flagged)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrNotificationNotFound
		}
		return false, err
	}
	return flagged, nil
}

func (r *Repository) DeleteNotifications(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
	userID domain.UserID,
) (int64, error) {
	q := r.getter(tx)
	res, err := q.ExecContext(ctx, `
		DELETE FROM message_notification
		WHERE conversation_id = $1 AND user_id = $2
	`, convID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) CountUnread(
	ctx context.Context,
	userID domain.UserID,
	convID int64,
) (int, error) {
	defer timeQuery("count_unread")()

	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM message_notification
		WHERE user_id = $1
		  AND is_seen = FALSE
		  AND deleted_at IS NULL
		  AND ($2::bigint = 0 OR conversation_id = $2::bigint)
	`, userID, convID).Scan(&n)
	return n, err
}

func (r *Repository) ListNotifications(
	ctx context.Context,
	convID int64,
	userID domain.UserID,
	unseenOnly bool,
) ([]domain.Notification, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, message_id, conversation_id, user_id, is_seen, is_sender, flagged,
		       seen_at, created_at, updated_at, deleted_at
		FROM message_notification
		WHERE conversation_id = $1
		  AND user_id = $2
		  AND (NOT $3 OR is_seen = FALSE)
		ORDER BY message_id
	`, convID, userID, unseenOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(s scanner) (*domain.Notification, error) {
	var n domain.Notification
	var seenAt, deletedAt sql.NullTime
	if err := s.Scan(
		&n.ID,
		&n.MessageID,
		&n.ConversationID,
		&n.UserID,
		&n.IsSeen,
		&n.IsSender,
		&n.Flagged,
		&seenAt,
		&n.CreatedAt,
		&n.UpdatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	n.SeenAt = timePtr(seenAt)
	n.DeletedAt = timePtr(deletedAt)
	return &n, nil
}
