package memory

import (
	"context"
	"database/sql"
	"sort"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

func (s *Store) InsertNotifications(ctx context.Context, _ *sql.Tx, msg *domain.Message) (int64, error) {
	defer s.lock(ctx)()

	if s.FailFanout != nil {
		return 0, s.FailFanout
	}

	now := s.now()
	var written int64
	for _, row := range s.state.participants[msg.ConversationID] {
		s.state.nextNotification++
		n := domain.Notification{
			ID:             s.state.nextNotification,
			MessageID:      msg.ID,
			ConversationID: msg.ConversationID,
			UserID:         row.userID,
			IsSender:       row.userID == msg.SenderID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		s.state.notifications[n.ID] = n
		written++
	}
	return written, nil
}

func (s *Store) GetNotification(ctx context.Context, _ *sql.Tx, messageID int64, userID domain.UserID) (*domain.Notification, error) {
	defer s.lock(ctx)()

	n, ok := s.notificationFor(messageID, userID)
	if !ok {
		return nil, domain.ErrNotificationNotFound
	}
	return &n, nil
}

func (s *Store) MarkSeen(ctx context.Context, _ *sql.Tx, messageID int64, userID domain.UserID) error {
	defer s.lock(ctx)()

	return s.update(messageID, userID, func(n *domain.Notification) {
		s.markSeen(n)
	})
}

func (s *Store) MarkConversationSeen(ctx context.Context, _ *sql.Tx, convID int64, userID domain.UserID) (int64, error) {
	defer s.lock(ctx)()

	var changed int64
	for id, n := range s.state.notifications {
		if n.ConversationID != convID || n.UserID != userID || n.IsSeen {
			continue
		}
		s.markSeen(&n)
		s.state.notifications[id] = n
		changed++
	}
	return changed, nil
}

func (s *Store) SoftDelete(ctx context.Context, _ *sql.Tx, messageID int64, userID domain.UserID) error {
	defer s.lock(ctx)()

	return s.update(messageID, userID, func(n *domain.Notification) {
		now := s.now()
		if n.DeletedAt == nil {
			n.DeletedAt = &now
		}
		n.UpdatedAt = now
	})
}

func (s *Store) ToggleFlag(ctx context.Context, _ *sql.Tx, messageID int64, userID domain.UserID) (bool, error) {
	defer s.lock(ctx)()

	var flagged bool
	err := s.update(messageID, userID, func(n *domain.Notification) {
		n.Flagged = !n.Flagged
		n.UpdatedAt = s.now()
		flagged = n.Flagged
	})
	return flagged, err
}

func (s *Store) DeleteNotifications(ctx context.Context, _ *sql.Tx, convID int64, userID domain.UserID) (int64, error) {
	defer s.lock(ctx)()

	var deleted int64
	for id, n := range s.state.notifications {
		if n.ConversationID == convID && n.UserID == userID {
			delete(s.state.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) CountUnread(ctx context.Context, userID domain.UserID, convID int64) (int, error) {
	defer s.lock(ctx)()

	count := 0
	for _, n := range s.state.notifications {
		if n.UserID != userID || n.IsSeen || n.Trashed() {
			continue
		}
		if convID != 0 && n.ConversationID != convID {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) ListNotifications(ctx context.Context, convID int64, userID domain.UserID, unseenOnly bool) ([]domain.Notification, error) {
	defer s.lock(ctx)()

	var out []domain.Notification
	for _, n := range s.state.notifications {
		if n.ConversationID != convID || n.UserID != userID {
			continue
		}
		if unseenOnly && n.IsSeen {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID < out[j].MessageID })
	return out, nil
}

// NotificationsForMessage lists every delivery row of a message, ordered by
// user id. It has no postgres counterpart and exists for inspection.
func (s *Store) NotificationsForMessage(messageID int64) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Notification
	for _, n := range s.state.notifications {
		if n.MessageID == messageID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (s *Store) InsertOutbox(ctx context.Context, _ *sql.Tx, aggregateType, aggregateID, eventType string, payload []byte) error {
	defer s.lock(ctx)()

	s.state.nextOutbox++
	s.state.outbox = append(s.state.outbox, OutboxEvent{
		ID:            s.state.nextOutbox,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       append([]byte(nil), payload...),
		CreatedAt:     s.now(),
	})
	return nil
}

func (s *Store) notificationFor(messageID int64, userID domain.UserID) (domain.Notification, bool) {
	for _, n := range s.state.notifications {
		if n.MessageID == messageID && n.UserID == userID {
			return n, true
		}
	}
	return domain.Notification{}, false
}

func (s *Store) update(messageID int64, userID domain.UserID, fn func(n *domain.Notification)) error {
	n, ok := s.notificationFor(messageID, userID)
	if !ok {
		return domain.ErrNotificationNotFound
	}
	fn(&n)
	s.state.notifications[n.ID] = n
	return nil
}

func (s *Store) markSeen(n *domain.Notification) {
	now := s.now()
	if n.SeenAt == nil {
		n.SeenAt = &now
	}
	n.IsSeen = true
	n.UpdatedAt = now
}

func applyNotification(row *domain.InboxMessage, n domain.Notification) {
	row.NotificationID = n.ID
	row.IsSeen = n.IsSeen
	row.IsSender = n.IsSender
	row.Flagged = n.Flagged
	row.SeenAt = n.SeenAt
	row.DeletedAt = n.DeletedAt
}
