package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

func (s *Store) InsertMessage(ctx context.Context, _ *sql.Tx, msg *domain.Message) error {
	defer s.lock(ctx)()

	if _, ok := s.state.conversations[msg.ConversationID]; !ok {
		return fmt.Errorf("%w: conversation %d does not exist", domain.ErrIntegrityViolation, msg.ConversationID)
	}

	now := s.now()
	s.state.nextMessage++
	msg.ID = s.state.nextMessage
	msg.CreatedAt = now
	msg.UpdatedAt = now
	s.state.messages[msg.ID] = *msg
	return nil
}

func (s *Store) GetMessage(ctx context.Context, _ *sql.Tx, messageID int64) (*domain.Message, error) {
	defer s.lock(ctx)()

	msg, ok := s.state.messages[messageID]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	return &msg, nil
}

func (s *Store) ListInboxMessages(ctx context.Context, convID int64, userID domain.UserID, q domain.MessageQuery) ([]domain.InboxMessage, int, error) {
	defer s.lock(ctx)()

	var rows []domain.InboxMessage
	for _, n := range s.state.notifications {
		if n.ConversationID != convID || n.UserID != userID || n.Trashed() != q.Deleted {
			continue
		}
		msg, ok := s.state.messages[n.MessageID]
		if !ok {
			continue
		}
		row := domain.InboxMessage{Message: msg}
		applyNotification(&row, n)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if q.Sorting == domain.SortDesc {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].ID < rows[j].ID
	})

	return paginate(rows, q.PageRequest), len(rows), nil
}

func (s *Store) lastMessage(convID int64) (domain.Message, bool) {
	var last domain.Message
	found := false
	for _, m := range s.state.messages {
		if m.ConversationID == convID && (!found || m.ID > last.ID) {
			last = m
			found = true
		}
	}
	return last, found
}
