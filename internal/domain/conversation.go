package domain

import "time"

// UserID identifies a participant. Identity itself is owned outside this service.
type UserID string

// PublicThreshold is the participant count above which a conversation stops being private.
const PublicThreshold = 2

// Conversation Invariants:
//  1. Visibility: once more than PublicThreshold participants have been added,
//     Private is false. Removing participants never makes it private again.
//  2. Ownership: participants and messages reference the conversation; it is never hard-deleted here.
type Conversation struct {
	ID           int64
	Private      bool
	Data         map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Participants []UserID
}

// ShouldPromote reports whether a conversation with participantCount members
// must be flipped to public.
func (c *Conversation) ShouldPromote(participantCount int) bool {
	return c.Private && participantCount > PublicThreshold
}

func (c *Conversation) HasParticipant(userID UserID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

type Participant struct {
	ConversationID int64
	UserID         UserID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ConversationSummary is one row of a user's conversation list: the
// conversation plus its most recent message as seen by that user.
type ConversationSummary struct {
	Conversation Conversation
	LastMessage  *InboxMessage
}
