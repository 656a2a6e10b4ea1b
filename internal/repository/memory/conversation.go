package memory

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"sort"

	"github.com/samber/lo"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

func (s *Store) InsertConversation(ctx context.Context, _ *sql.Tx, data map[string]any) (*domain.Conversation, error) {
	defer s.lock(ctx)()

	if data == nil {
		data = map[string]any{}
	}
	now := s.now()
	s.state.nextConversation++
	conv := domain.Conversation{
		ID:        s.state.nextConversation,
		Private:   true,
		Data:      maps.Clone(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.state.conversations[conv.ID] = conv

	out := conv
	out.Data = maps.Clone(conv.Data)
	return &out, nil
}

func (s *Store) GetConversation(ctx context.Context, _ *sql.Tx, convID int64) (*domain.Conversation, error) {
	defer s.lock(ctx)()
	return s.conversation(convID)
}

func (s *Store) GetConversationLocked(ctx context.Context, tx *sql.Tx, convID int64) (*domain.Conversation, error) {
	return s.GetConversation(ctx, tx, convID)
}

func (s *Store) GetConversationForSend(ctx context.Context, tx *sql.Tx, convID int64) (*domain.Conversation, error) {
	return s.GetConversation(ctx, tx, convID)
}

func (s *Store) InvalidateConversation(context.Context, int64) error {
	return nil
}

func (s *Store) conversation(convID int64) (*domain.Conversation, error) {
	conv, ok := s.state.conversations[convID]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	conv.Data = maps.Clone(conv.Data)
	conv.Participants = s.participantIDs(convID)
	return &conv, nil
}

func (s *Store) participantIDs(convID int64) []domain.UserID {
	rows := s.state.participants[convID]
	if len(rows) == 0 {
		return nil
	}
	return lo.Map(rows, func(r participantRow, _ int) domain.UserID { return r.userID })
}

func (s *Store) SetPrivate(ctx context.Context, _ *sql.Tx, convID int64, private bool) error {
	defer s.lock(ctx)()

	conv, ok := s.state.conversations[convID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	conv.Private = private
	conv.UpdatedAt = s.now()
	s.state.conversations[convID] = conv
	return nil
}

func (s *Store) TouchConversation(ctx context.Context, _ *sql.Tx, convID int64) error {
	defer s.lock(ctx)()

	if conv, ok := s.state.conversations[convID]; ok {
		conv.UpdatedAt = s.now()
		s.state.conversations[convID] = conv
	}
	return nil
}

func (s *Store) InsertParticipant(ctx context.Context, _ *sql.Tx, convID int64, userID domain.UserID) error {
	defer s.lock(ctx)()

	if _, ok := s.state.conversations[convID]; !ok {
		return fmt.Errorf("%w: conversation %d does not exist", domain.ErrIntegrityViolation, convID)
	}
	for _, row := range s.state.participants[convID] {
		if row.userID == userID {
			return fmt.Errorf("%w: duplicate participant %s in conversation %d", domain.ErrIntegrityViolation, userID, convID)
		}
	}
	now := s.now()
	s.state.participants[convID] = append(s.state.participants[convID], participantRow{
		userID:    userID,
		createdAt: now,
		updatedAt: now,
	})
	return nil
}

func (s *Store) DeleteParticipant(ctx context.Context, _ *sql.Tx, convID int64, userID domain.UserID) error {
	defer s.lock(ctx)()

	s.state.participants[convID] = lo.Reject(s.state.participants[convID], func(r participantRow, _ int) bool {
		return r.userID == userID
	})
	return nil
}

func (s *Store) CountParticipants(ctx context.Context, _ *sql.Tx, convID int64) (int, error) {
	defer s.lock(ctx)()
	return len(s.state.participants[convID]), nil
}

func (s *Store) ListParticipants(ctx context.Context, _ *sql.Tx, convID int64) ([]domain.UserID, error) {
	defer s.lock(ctx)()
	return s.participantIDs(convID), nil
}

func (s *Store) MissingUsers(ctx context.Context, _ *sql.Tx, userIDs []domain.UserID) ([]domain.UserID, error) {
	defer s.lock(ctx)()

	if s.users == nil {
		return nil, nil
	}
	return lo.Filter(userIDs, func(id domain.UserID, _ int) bool {
		_, ok := s.users[id]
		return !ok
	}), nil
}

func (s *Store) FindCommonConversations(ctx context.Context, userIDs []domain.UserID) ([]*domain.Conversation, error) {
	defer s.lock(ctx)()

	var out []*domain.Conversation
	for _, id := range s.sortedConversationIDs() {
		members := s.participantIDs(id)
		if len(members) != len(userIDs) {
			continue
		}
		if !lo.Every(members, userIDs) {
			continue
		}
		conv, _ := s.conversation(id)
		out = append(out, conv)
	}
	return out, nil
}

func (s *Store) ListPrivateConversationIDs(ctx context.Context, userID domain.UserID) ([]int64, error) {
	defer s.lock(ctx)()

	var ids []int64
	for _, id := range s.sortedConversationIDs() {
		if s.state.conversations[id].Private && s.isParticipant(id, userID) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) ListConversationSummaries(ctx context.Context, userID domain.UserID, page domain.PageRequest) ([]domain.ConversationSummary, int, error) {
	defer s.lock(ctx)()

	var convs []domain.Conversation
	for _, id := range s.sortedConversationIDs() {
		if s.isParticipant(id, userID) {
			convs = append(convs, s.state.conversations[id])
		}
	}
	sort.SliceStable(convs, func(i, j int) bool {
		if convs[i].UpdatedAt.Equal(convs[j].UpdatedAt) {
			return convs[i].ID > convs[j].ID
		}
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})

	total := len(convs)
	window := paginate(convs, page)

	summaries := make([]domain.ConversationSummary, 0, len(window))
	for _, c := range window {
		conv, _ := s.conversation(c.ID)
		summary := domain.ConversationSummary{Conversation: *conv}
		if last, ok := s.lastMessage(c.ID); ok {
			inbox := domain.InboxMessage{Message: last}
			if n, ok := s.notificationFor(last.ID, userID); ok {
				applyNotification(&inbox, n)
			}
			summary.LastMessage = &inbox
		}
		summaries = append(summaries, summary)
	}
	return summaries, total, nil
}

func (s *Store) isParticipant(convID int64, userID domain.UserID) bool {
	return lo.ContainsBy(s.state.participants[convID], func(r participantRow) bool {
		return r.userID == userID
	})
}

func (s *Store) sortedConversationIDs() []int64 {
	ids := lo.Keys(s.state.conversations)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func paginate[T any](items []T, page domain.PageRequest) []T {
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + page.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
