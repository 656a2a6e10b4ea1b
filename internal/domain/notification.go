package domain

import "time"

// Notification is the delivery record of one message for one participant.
// It is the only place where read, trashed and flagged state is kept.
type Notification struct {
	ID             int64
	MessageID      int64
	ConversationID int64
	UserID         UserID
	IsSeen         bool
	IsSender       bool
	Flagged        bool
	SeenAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

func (n *Notification) Trashed() bool {
	return n.DeletedAt != nil
}

// InboxMessage is a message joined with the reading user's notification row.
type InboxMessage struct {
	Message
	NotificationID int64      `json:"notification_id"`
	IsSeen         bool       `json:"is_seen"`
	IsSender       bool       `json:"is_sender"`
	Flagged        bool       `json:"flagged"`
	SeenAt         *time.Time `json:"seen_at,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}
