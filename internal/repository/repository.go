package repository

import (
	"context"
	"database/sql"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

// Every method accepting a *sql.Tx runs on the transaction when it is
// non-nil and on the pool otherwise.

type ConversationRepository interface {
	InsertConversation(ctx context.Context, tx *sql.Tx, data map[string]any) (*domain.Conversation, error)

	// GetConversation (ReadOnly/Cached) - Best Effort consistency
	GetConversation(ctx context.Context, tx *sql.Tx, convID int64) (*domain.Conversation, error)

	// GetConversationLocked (Write/Strict) - SELECT ... FOR UPDATE
	GetConversationLocked(ctx context.Context, tx *sql.Tx, convID int64) (*domain.Conversation, error)

	// GetConversationForSend - SELECT ... FOR NO KEY UPDATE, held while a message fans out
	GetConversationForSend(ctx context.Context, tx *sql.Tx, convID int64) (*domain.Conversation, error)

	InvalidateConversation(ctx context.Context, convID int64) error

	SetPrivate(ctx context.Context, tx *sql.Tx, convID int64, private bool) error
	TouchConversation(ctx context.Context, tx *sql.Tx, convID int64) error

	InsertParticipant(ctx context.Context, tx *sql.Tx, convID int64, userID domain.UserID) error
	DeleteParticipant(ctx context.Context, tx *sql.Tx, convID int64, userID domain.UserID) error
	CountParticipants(ctx context.Context, tx *sql.Tx, convID int64) (int, error)
	ListParticipants(ctx context.Context, tx *sql.Tx, convID int64) ([]domain.UserID, error)

	// MissingUsers returns the ids absent from the configured users relation.
	MissingUsers(ctx context.Context, tx *sql.Tx, userIDs []domain.UserID) ([]domain.UserID, error)

	FindCommonConversations(ctx context.Context, userIDs []domain.UserID) ([]*domain.Conversation, error)
	ListPrivateConversationIDs(ctx context.Context, userID domain.UserID) ([]int64, error)
	ListConversationSummaries(ctx context.Context, userID domain.UserID, page domain.PageRequest) ([]domain.ConversationSummary, int, error)
}

type MessageRepository interface {
	// InsertMessage assigns ID and timestamps on msg.
	InsertMessage(ctx context.Context, tx *sql.Tx, msg *domain.Message) error
	GetMessage(ctx context.Context, tx *sql.Tx, messageID int64) (*domain.Message, error)
	ListInboxMessages(ctx context.Context, convID int64, userID domain.UserID, q domain.MessageQuery) ([]domain.InboxMessage, int, error)
}

type NotificationRepository interface {
	// InsertNotifications creates one row per current participant of the
	// message's conversation and returns how many were written.
	InsertNotifications(ctx context.Context, tx *sql.Tx, msg *domain.Message) (int64, error)

	GetNotification(ctx context.Context, tx *sql.Tx, messageID int64, userID domain.UserID) (*domain.Notification, error)
	MarkSeen(ctx context.Context, tx *sql.Tx, messageID int64, userID domain.UserID) error
	MarkConversationSeen(ctx context.Context, tx *sql.Tx, convID int64, userID domain.UserID) (int64, error)
	SoftDelete(ctx context.Context, tx *sql.Tx, messageID int64, userID domain.UserID) error
	ToggleFlag(ctx context.Context, tx *sql.Tx, messageID int64, userID domain.UserID) (bool, error)
	DeleteNotifications(ctx context.Context, tx *sql.Tx, convID int64, userID domain.UserID) (int64, error)

	// CountUnread counts unseen, untrashed rows; convID 0 means every conversation.
	CountUnread(ctx context.Context, userID domain.UserID, convID int64) (int, error)
	ListNotifications(ctx context.Context, convID int64, userID domain.UserID, unseenOnly bool) ([]domain.Notification, error)
}

type OutboxRepository interface {
	InsertOutbox(ctx context.Context, tx *sql.Tx, aggregateType, aggregateID, eventType string, payload []byte) error
}

type Repository interface {
	ConversationRepository
	MessageRepository
	NotificationRepository
	OutboxRepository
}
