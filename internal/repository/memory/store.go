// Package memory is an in-process implementation of the repository and
// transactor interfaces. A transaction holds the store lock for its whole
// duration and restores a snapshot when the unit of work fails, which gives
// the same all-or-nothing visibility the postgres implementation relies on.
package memory

import (
	"context"
	"database/sql"
	"maps"
	"sync"
	"time"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

type participantRow struct {
	userID    domain.UserID
	createdAt time.Time
	updatedAt time.Time
}

type OutboxEvent struct {
	ID            int64
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

type state struct {
	nextConversation int64
	nextMessage      int64
	nextNotification int64
	nextOutbox       int64

	conversations map[int64]domain.Conversation
	participants  map[int64][]participantRow
	messages      map[int64]domain.Message
	notifications map[int64]domain.Notification
	outbox        []OutboxEvent
}

func newState() state {
	return state{
		conversations: make(map[int64]domain.Conversation),
		participants:  make(map[int64][]participantRow),
		messages:      make(map[int64]domain.Message),
		notifications: make(map[int64]domain.Notification),
	}
}

func (s state) clone() state {
	c := s
	c.conversations = make(map[int64]domain.Conversation, len(s.conversations))
	for id, conv := range s.conversations {
		conv.Data = maps.Clone(conv.Data)
		c.conversations[id] = conv
	}
	c.participants = make(map[int64][]participantRow, len(s.participants))
	for id, rows := range s.participants {
		c.participants[id] = append([]participantRow(nil), rows...)
	}
	c.messages = maps.Clone(s.messages)
	c.notifications = maps.Clone(s.notifications)
	c.outbox = append([]OutboxEvent(nil), s.outbox...)
	return c
}

type Store struct {
	mu    sync.Mutex
	state state
	last  time.Time
	users map[domain.UserID]struct{}

	// FailFanout, when set, is returned by InsertNotifications. Tests use it
	// to prove a failed fan-out leaves nothing behind.
	FailFanout error
}

func New() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

// WithTx runs fn under the store lock. Any error rolls the store back to its
// state before fn ran.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if s.inTx(ctx) {
		return fn(ctx, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s), nil); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// RegisterUsers turns on the user existence check used when participants are
// added. Without it every id is accepted.
func (s *Store) RegisterUsers(ids ...domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[domain.UserID]struct{})
	}
	for _, id := range ids {
		s.users[id] = struct{}{}
	}
}

// Outbox returns a copy of the recorded outbox events.
func (s *Store) Outbox() []OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OutboxEvent(nil), s.state.outbox...)
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// now is strictly increasing so ordering by timestamp is deterministic.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}
