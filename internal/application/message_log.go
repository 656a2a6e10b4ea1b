package application

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
	"github.com/SARVESHVARADKAR123/chatbox/internal/repository"
)

// MessageLog appends messages and delivers them to every participant.
type MessageLog struct {
	repo repository.Repository
	now  func() time.Time
}

func NewMessageLog(repo repository.Repository) *MessageLog {
	return &MessageLog{repo: repo, now: clock}
}

// Append must run inside a transaction. The conversation row stays locked
// until commit, so the participant set cannot change between the check and
// the fan-out. Concurrent sends into one conversation queue behind each other.
func (l *MessageLog) Append(
	ctx context.Context,
	tx *sql.Tx,
	draft domain.MessageDraft,
	queue *domain.EventQueue,
) (*domain.Message, error) {

	conv, err := l.repo.GetConversationForSend(ctx, tx, draft.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(draft.SenderID) {
		return nil, domain.ErrNotParticipant
	}

	msg := &domain.Message{
		Body:           draft.Body,
		ConversationID: draft.ConversationID,
		SenderID:       draft.SenderID,
		Type:           draft.MessageType(),
		Filename:       draft.Filename,
	}
	if err := l.repo.InsertMessage(ctx, tx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	recipients, err := l.repo.InsertNotifications(ctx, tx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to fan out message %d: %w", msg.ID, err)
	}
	observability.FanoutRecipients.Observe(float64(recipients))

	if err := l.repo.TouchConversation(ctx, tx, msg.ConversationID); err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	queue.Record(domain.NewMessageSent(*msg, l.now()))
	return msg, nil
}
