package application

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
)

// Start creates a conversation and attaches the participants in one
// transaction.
func (s *Service) Start(
	ctx context.Context,
	participants []domain.UserID,
	data map[string]any,
) (*domain.Conversation, error) {

	var conv *domain.Conversation

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		created, err := s.repo.InsertConversation(ctx, tx, data)
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}

		if err := s.addParticipants(ctx, tx, created.ID, participants); err != nil {
			return err
		}

		conv, err = s.repo.GetConversation(ctx, tx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.GetLogger(ctx).Info("conversation started",
		zap.Int64("conversation_id", conv.ID),
		zap.Int("participants", len(conv.Participants)),
		zap.Bool("private", conv.Private),
	)
	return conv, nil
}

func (s *Service) AddParticipants(ctx context.Context, convID int64, userIDs ...domain.UserID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.addParticipants(ctx, tx, convID, userIDs)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, convID)
	return nil
}

func (s *Service) addParticipants(
	ctx context.Context,
	tx *sql.Tx,
	convID int64,
	userIDs []domain.UserID,
) error {

	conv, err := s.repo.GetConversationLocked(ctx, tx, convID)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	missing, err := s.repo.MissingUsers(ctx, tx, userIDs)
	if err != nil {
		return fmt.Errorf("failed to check users: %w", err)
	}
	if len(missing) > 0 {
		names := lo.Map(missing, func(id domain.UserID, _ int) string { return string(id) })
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, strings.Join(names, ", "))
	}

	for _, userID := range userIDs {
		if err := s.repo.InsertParticipant(ctx, tx, convID, userID); err != nil {
			return fmt.Errorf("failed to add participant %s: %w", userID, err)
		}
	}

	if !s.opts.AutoPromotePublic {
		return nil
	}

	count, err := s.repo.CountParticipants(ctx, tx, convID)
	if err != nil {
		return err
	}
	if conv.ShouldPromote(count) {
		if err := s.repo.SetPrivate(ctx, tx, convID, false); err != nil {
			return fmt.Errorf("failed to make conversation public: %w", err)
		}
		observability.GetLogger(ctx).Info("conversation made public",
			zap.Int64("conversation_id", convID),
			zap.Int("participants", count),
		)
	}
	return nil
}

// RemoveUsers detaches users. Visibility is left as it is.
func (s *Service) RemoveUsers(ctx context.Context, convID int64, userIDs ...domain.UserID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.repo.GetConversationLocked(ctx, tx, convID); err != nil {
			return err
		}
		for _, userID := range userIDs {
			if err := s.repo.DeleteParticipant(ctx, tx, convID, userID); err != nil {
				return fmt.Errorf("failed to remove participant %s: %w", userID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, convID)
	return nil
}

// Common returns the conversations whose participants are exactly users.
func (s *Service) Common(ctx context.Context, users []domain.UserID) ([]*domain.Conversation, error) {
	set := lo.Uniq(users)
	if len(set) == 0 {
		return nil, nil
	}
	return s.repo.FindCommonConversations(ctx, set)
}

// UserConversations returns the ids of the private conversations user is in.
func (s *Service) UserConversations(ctx context.Context, user domain.UserID) ([]int64, error) {
	return s.repo.ListPrivateConversationIDs(ctx, user)
}

func (s *Service) Conversation(ctx context.Context, convID int64) (*domain.Conversation, error) {
	return s.repo.GetConversation(ctx, nil, convID)
}

func (s *Service) Participants(ctx context.Context, convID int64) ([]domain.UserID, error) {
	conv, err := s.repo.GetConversation(ctx, nil, convID)
	if err != nil {
		return nil, err
	}
	return conv.Participants, nil
}

// IsParticipant reads membership from storage rather than the conversation
// cache, so a removal is visible as soon as it commits.
func (s *Service) IsParticipant(ctx context.Context, convID int64, user domain.UserID) (bool, error) {
	participants, err := s.repo.ListParticipants(ctx, nil, convID)
	if err != nil {
		return false, err
	}
	if lo.Contains(participants, user) {
		return true, nil
	}
	// No members can also mean no conversation.
	if _, err := s.repo.GetConversation(ctx, nil, convID); err != nil {
		return false, err
	}
	return false, nil
}

// Clear hard-deletes every notification user has in the conversation.
// Messages and other users' rows are untouched.
func (s *Service) Clear(ctx context.Context, convID int64, user domain.UserID) (int64, error) {
	n, err := s.repo.DeleteNotifications(ctx, nil, convID, user)
	if err != nil {
		return 0, err
	}

	observability.GetLogger(ctx).Info("conversation cleared",
		zap.Int64("conversation_id", convID),
		zap.String("user_id", string(user)),
		zap.Int64("removed", n),
	)
	return n, nil
}

func (s *Service) invalidate(ctx context.Context, convID int64) {
	if err := s.repo.InvalidateConversation(ctx, convID); err != nil {
		observability.GetLogger(ctx).Warn("failed to invalidate conversation cache",
			zap.Int64("conversation_id", convID),
			zap.Error(err),
		)
	}
}
