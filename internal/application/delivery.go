package application

import (
	"context"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

// MarkRead marks one message read for user. Marking twice keeps the first
// read time.
func (s *Service) MarkRead(ctx context.Context, messageID int64, user domain.UserID) error {
	return s.repo.MarkSeen(ctx, nil, messageID, user)
}

// Trash hides a message from user's active listing only.
func (s *Service) Trash(ctx context.Context, messageID int64, user domain.UserID) error {
	return s.repo.SoftDelete(ctx, nil, messageID, user)
}

func (s *Service) ToggleFlag(ctx context.Context, messageID int64, user domain.UserID) (bool, error) {
	return s.repo.ToggleFlag(ctx, nil, messageID, user)
}

func (s *Service) Flagged(ctx context.Context, messageID int64, user domain.UserID) (bool, error) {
	n, err := s.repo.GetNotification(ctx, nil, messageID, user)
	if err != nil {
		return false, err
	}
	return n.Flagged, nil
}

// UnreadCount counts unseen messages across all of user's conversations.
// Trashed messages are not counted.
func (s *Service) UnreadCount(ctx context.Context, user domain.UserID) (int, error) {
	return s.repo.CountUnread(ctx, user, 0)
}

func (s *Service) ConversationUnreadCount(ctx context.Context, convID int64, user domain.UserID) (int, error) {
	return s.repo.CountUnread(ctx, user, convID)
}

// ReadAll marks every message of the conversation read for user and returns
// how many changed.
func (s *Service) ReadAll(ctx context.Context, convID int64, user domain.UserID) (int64, error) {
	return s.repo.MarkConversationSeen(ctx, nil, convID, user)
}

func (s *Service) Notifications(ctx context.Context, convID int64, user domain.UserID) ([]domain.Notification, error) {
	return s.repo.ListNotifications(ctx, convID, user, false)
}

func (s *Service) UnreadNotifications(ctx context.Context, convID int64, user domain.UserID) ([]domain.Notification, error) {
	return s.repo.ListNotifications(ctx, convID, user, true)
}

// Messages lists the conversation as user sees it: active or trashed rows,
// ordered by message id.
func (s *Service) Messages(
	ctx context.Context,
	convID int64,
	user domain.UserID,
	q domain.MessageQuery,
) (domain.Page[domain.InboxMessage], error) {

	q = q.Normalize()
	rows, total, err := s.repo.ListInboxMessages(ctx, convID, user, q)
	if err != nil {
		return domain.Page[domain.InboxMessage]{}, err
	}
	return domain.NewPage(rows, total, q.PageRequest), nil
}

// ConversationList returns user's conversations, most recently active first,
// each with its last message.
func (s *Service) ConversationList(
	ctx context.Context,
	user domain.UserID,
	page domain.PageRequest,
) (domain.Page[domain.ConversationSummary], error) {

	page = page.Normalize()
	rows, total, err := s.repo.ListConversationSummaries(ctx, user, page)
	if err != nil {
		return domain.Page[domain.ConversationSummary]{}, err
	}
	return domain.NewPage(rows, total, page), nil
}

func (s *Service) Message(ctx context.Context, messageID int64) (*domain.Message, error) {
	return s.repo.GetMessage(ctx, nil, messageID)
}
