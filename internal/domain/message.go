package domain

import "time"

const DefaultMessageType = "text"

// Message Invariants:
// 1. Ordering: ID is assigned monotonically by storage and defines listing order.
// 2. Immutability: no field changes after creation.
// 3. Per-user state lives in Notification rows, never on the message.
type Message struct {
	ID             int64     `json:"id"`
	Body           string    `json:"body"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       UserID    `json:"user_id"`
	Type           string    `json:"type"`
	Filename       string    `json:"filename,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MessageDraft carries everything needed to send a message. It is validated
// before a command is built.
type MessageDraft struct {
	ConversationID int64  `validate:"required"`
	SenderID       UserID `validate:"required"`
	Body           string `validate:"required"`
	Type           string
	Filename       string
}

func (d MessageDraft) MessageType() string {
	if d.Type == "" {
		return DefaultMessageType
	}
	return d.Type
}
