package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

// A send later updates conversations.updated_at in the same transaction, so
// it must start with a lock that allows that update. Starting from FOR SHARE
// would need an upgrade, and two senders would deadlock on it. FOR NO KEY
// UPDATE still conflicts with the FOR UPDATE taken by membership changes.
const (
	lockMembership = " FOR UPDATE"
	lockSend       = " FOR NO KEY UPDATE"
)

func (r *Repository) InsertConversation(
	ctx context.Context,
	tx *sql.Tx,
	data map[string]any,
) (*domain.Conversation, error) {
	defer timeQuery("insert_conversation")()

	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation data: %w", err)
	}

	conv := &domain.Conversation{Private: true, Data: data}

	q := r.getter(tx)
	err = q.QueryRowContext(ctx, `
		INSERT INTO conversations (private, data)
		VALUES (TRUE, $1)
		RETURNING id, created_at, updated_at
	`, payload).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	return conv, nil
}

func (r *Repository) GetConversationLocked(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
) (*domain.Conversation, error) {
	return r.fetchConversation(ctx, tx, convID, lockMembership)
}

func (r *Repository) GetConversationForSend(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
) (*domain.Conversation, error) {
	return r.fetchConversation(ctx, tx, convID, lockSend)
}

func (r *Repository) GetConversation(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
) (*domain.Conversation, error) {
	// Inside a transaction the caller needs what the transaction sees.
	useCache := r.Cache != nil && tx == nil

	if useCache {
		conv, err := r.Cache.GetConversation(ctx, convID)
		if err == nil && conv != nil {
			return conv, nil
		}
	}

	conv, err := r.fetchConversation(ctx, tx, convID, "")
	if err != nil {
		return nil, err
	}

	if useCache {
		_ = r.Cache.SetConversation(ctx, conv)
	}

	return conv, nil
}

func (r *Repository) InvalidateConversation(
	ctx context.Context,
	convID int64,
) error {
	if r.Cache != nil {
		return r.Cache.DeleteConversation(ctx, convID)
	}
	return nil
}

func (r *Repository) fetchConversation(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
	lock string,
) (*domain.Conversation, error) {
	defer timeQuery("get_conversation")()

	q := r.getter(tx)

	var conv domain.Conversation
	var data []byte
	err := q.QueryRowContext(ctx, `
		SELECT id, private, data, created_at, updated_at
		FROM conversations
		WHERE id = $1`+lock,
		convID,
	).Scan(&conv.ID, &conv.Private, &data, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	if conv.Data, err = decodeData(data); err != nil {
		return nil, err
	}

	conv.Participants, err = r.ListParticipants(ctx, tx, convID)
	if err != nil {
		return nil, err
	}

	return &conv, nil
}

func (r *Repository) SetPrivate(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
	private bool,
) error {
	q := r.getter(tx)
	res, err := q.ExecContext(ctx, `
		UPDATE conversations
		SET private = $2, updated_at = NOW()
		WHERE id = $1
	`, convID, private)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res, domain.ErrConversationNotFound)
}

func (r *Repository) TouchConversation(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		UPDATE conversations SET updated_at = NOW() WHERE id = $1
	`, convID)
	return err
}

func (r *Repository) InsertParticipant(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
	userID domain.UserID,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversation_user (conversation_id, user_id)
		VALUES ($1, $2)
	`, convID, userID)
	return mapError(err)
}

func (r *Repository) DeleteParticipant(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
	userID domain.UserID,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		DELETE FROM conversation_user
		WHERE conversation_id = $1 AND user_id = $2
	`, convID, userID)
	return err
}

func (r *Repository) CountParticipants(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
) (int, error) {
	var n int
	q := r.getter(tx)
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM conversation_user WHERE conversation_id = $1
	`, convID).Scan(&n)
	return n, err
}

func (r *Repository) ListParticipants(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
) ([]domain.UserID, error) {
	q := r.getter(tx)
	rows, err := q.QueryContext(ctx, `
		SELECT user_id
		FROM conversation_user
		WHERE conversation_id = $1
		ORDER BY created_at, user_id
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserID
	for rows.Next() {
		var u domain.UserID
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *Repository) MissingUsers(
	ctx context.Context,
	tx *sql.Tx,
	userIDs []domain.UserID,
) ([]domain.UserID, error) {
	if r.UsersTable == "" || len(userIDs) == 0 {
		return nil, nil
	}

	q := r.getter(tx)
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT want.id
		FROM unnest($1::text[]) AS want(id)
		WHERE NOT EXISTS (
			SELECT 1 FROM %s u WHERE u.id::text = want.id
		)
	`, pq.QuoteIdentifier(r.UsersTable)), pq.Array(userStrings(userIDs)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []domain.UserID
	for rows.Next() {
		var u domain.UserID
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		missing = append(missing, u)
	}
	return missing, rows.Err()
}

// FindCommonConversations keeps only conversations whose participant set has
// the same size as userIDs and contains all of them.
func (r *Repository) FindCommonConversations(
	ctx context.Context,
	userIDs []domain.UserID,
) ([]*domain.Conversation, error) {
	defer timeQuery("common_conversations")()

	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.private, c.data, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_user cu ON cu.conversation_id = c.id
		GROUP BY c.id
		HAVING COUNT(*) = $2
		   AND COUNT(*) FILTER (WHERE cu.user_id = ANY($1)) = $2
		ORDER BY c.id
	`, pq.Array(userStrings(userIDs)), len(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		var data []byte
		if err := rows.Scan(&c.ID, &c.Private, &data, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if c.Data, err = decodeData(data); err != nil {
			return nil, err
		}
		c.Participants = append([]domain.UserID(nil), userIDs...)
		conversations = append(conversations, &c)
	}
	return conversations, rows.Err()
}

func (r *Repository) ListPrivateConversationIDs(
	ctx context.Context,
	userID domain.UserID,
) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id
		FROM conversations c
		JOIN conversation_user cu ON cu.conversation_id = c.id
		WHERE cu.user_id = $1
		  AND c.private = TRUE
		ORDER BY c.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListConversationSummaries pages through a user's conversations, most
// recently active first, each with its latest message and the user's
// delivery row for it.
func (r *Repository) ListConversationSummaries(
	ctx context.Context,
	userID domain.UserID,
	page domain.PageRequest,
) ([]domain.ConversationSummary, int, error) {
	defer timeQuery("list_conversations")()

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM conversation_user WHERE user_id = $1
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.private, c.data, c.created_at, c.updated_at,
		       m.id, m.body, m.user_id, m.type, m.filename, m.created_at, m.updated_at,
		       n.id, n.is_seen, n.is_sender, n.flagged, n.seen_at, n.deleted_at,
		       p.participants
		FROM conversations c
		JOIN conversation_user cu ON cu.conversation_id = c.id
		LEFT JOIN LATERAL (
			SELECT array_agg(user_id ORDER BY created_at, user_id) AS participants
			FROM conversation_user
			WHERE conversation_id = c.id
		) p ON TRUE
		LEFT JOIN LATERAL (
			SELECT id, body, user_id, type, filename, created_at, updated_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY id DESC
			LIMIT 1
		) m ON TRUE
		LEFT JOIN message_notification n
		       ON n.message_id = m.id AND n.user_id = cu.user_id
		WHERE cu.user_id = $1
		ORDER BY c.updated_at DESC, c.id DESC
		LIMIT $2 OFFSET $3
	`, userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []domain.ConversationSummary
	for rows.Next() {
		var (
			s    domain.ConversationSummary
			data []byte

			msgID                   sql.NullInt64
			body, sender, typ, file sql.NullString
			msgCreated, msgUpdated  sql.NullTime
			notifID                 sql.NullInt64
			seen, isSender, flagged sql.NullBool
			seenAt, deletedAt       sql.NullTime
			participants            []string
		)
		if err := rows.Scan(
			&s.Conversation.ID, &s.Conversation.Private, &data,
			&s.Conversation.CreatedAt, &s.Conversation.UpdatedAt,
			&msgID, &body, &sender, &typ, &file, &msgCreated, &msgUpdated,
			&notifID, &seen, &isSender, &flagged, &seenAt, &deletedAt,
			pq.Array(&participants),
		); err != nil {
			return nil, 0, err
		}
		if s.Conversation.Data, err = decodeData(data); err != nil {
			return nil, 0, err
		}
		s.Conversation.Participants = toUserIDs(participants)

		if msgID.Valid {
			s.LastMessage = &domain.InboxMessage{
				Message: domain.Message{
					ID:             msgID.Int64,
					Body:           body.String,
					ConversationID: s.Conversation.ID,
					SenderID:       domain.UserID(sender.String),
					Type:           typ.String,
					Filename:       file.String,
					CreatedAt:      msgCreated.Time,
					UpdatedAt:      msgUpdated.Time,
				},
				NotificationID: notifID.Int64,
				IsSeen:         seen.Bool,
				IsSender:       isSender.Bool,
				Flagged:        flagged.Bool,
				SeenAt:         timePtr(seenAt),
				DeletedAt:      timePtr(deletedAt),
			}
		}
		summaries = append(summaries, s)
	}

	return summaries, total, rows.Err()
}

func decodeData(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode conversation data: %w", err)
	}
	return data, nil
}

func userStrings(ids []domain.UserID) []string {
	return lo.Map(ids, func(id domain.UserID, _ int) string { return string(id) })
}

func toUserIDs(ids []string) []domain.UserID {
	return lo.Map(ids, func(id string, _ int) domain.UserID { return domain.UserID(id) })
}
