package domain

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventMessageSent = "chat.message.sent"

	channelPrefix = "chat-conversation."
)

// Event is a domain event released after a unit of work commits.
type Event interface {
	EventID() string
	EventName() string
	ConversationID() int64
	OccurredAt() time.Time
}

// ConversationChannel is the broadcast channel scoped to one conversation.
func ConversationChannel(conversationID int64) string {
	return channelPrefix + strconv.FormatInt(conversationID, 10)
}

// MessageSent carries the full message so subscribers need no lookup.
type MessageSent struct {
	ID      string
	Message Message
	At      time.Time
}

func NewMessageSent(msg Message, now time.Time) MessageSent {
	return MessageSent{
		ID:      uuid.NewString(),
		Message: msg,
		At:      now,
	}
}

func (e MessageSent) EventID() string       { return e.ID }
func (e MessageSent) EventName() string     { return EventMessageSent }
func (e MessageSent) ConversationID() int64 { return e.Message.ConversationID }
func (e MessageSent) OccurredAt() time.Time { return e.At }
func (e MessageSent) Channel() string       { return ConversationChannel(e.Message.ConversationID) }

// EventQueue collects events raised during one operation. Release hands them
// over exactly once.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
}

func (q *EventQueue) Record(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, e)
}

func (q *EventQueue) Release() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.events
	q.events = nil
	return events
}

func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
