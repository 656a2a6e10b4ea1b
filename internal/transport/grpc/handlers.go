package grpc

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SARVESHVARADKAR123/chatbox/internal/auth"
	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func checkRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func actor(ctx context.Context) (domain.UserID, error) {
	userID, err := auth.GetUserID(ctx)
	if err != nil {
		return "", status.Error(codes.Unauthenticated, err.Error())
	}
	return userID, nil
}

// member resolves the acting user and checks they belong to the conversation.
func (s *Server) member(ctx context.Context, convID int64) (domain.UserID, error) {
	userID, err := actor(ctx)
	if err != nil {
		return "", err
	}
	ok, err := s.app.IsParticipant(ctx, convID, userID)
	if err != nil {
		return "", MapError(err)
	}
	if !ok {
		return "", MapError(domain.ErrNotParticipant)
	}
	return userID, nil
}

func (s *Server) StartConversation(
	ctx context.Context,
	req *StartConversationRequest,
) (*ConversationResponse, error) {

	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	// The caller is always a participant of what they start.
	participants := lo.Uniq(append([]domain.UserID{userID}, userIDs(req.Participants)...))

	conv, err := s.app.Start(ctx, participants, req.Data)
	if err != nil {
		return nil, MapError(err)
	}
	return &ConversationResponse{Conversation: toConversation(conv)}, nil
}

func (s *Server) AddParticipants(ctx context.Context, req *ParticipantsRequest) (*Empty, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.member(ctx, req.ConversationID); err != nil {
		return nil, err
	}

	if err := s.app.AddParticipants(ctx, req.ConversationID, userIDs(req.UserIDs)...); err != nil {
		return nil, MapError(err)
	}
	return &Empty{}, nil
}

func (s *Server) RemoveParticipants(ctx context.Context, req *ParticipantsRequest) (*Empty, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.member(ctx, req.ConversationID); err != nil {
		return nil, err
	}

	if err := s.app.RemoveUsers(ctx, req.ConversationID, userIDs(req.UserIDs)...); err != nil {
		return nil, MapError(err)
	}
	return &Empty{}, nil
}

func (s *Server) CommonConversations(
	ctx context.Context,
	req *CommonConversationsRequest,
) (*CommonConversationsResponse, error) {

	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	users := lo.Uniq(append([]domain.UserID{userID}, userIDs(req.UserIDs)...))
	convs, err := s.app.Common(ctx, users)
	if err != nil {
		return nil, MapError(err)
	}

	return &CommonConversationsResponse{
		Conversations: lo.Map(convs, func(c *domain.Conversation, _ int) Conversation { return toConversation(c) }),
	}, nil
}

func (s *Server) ListConversations(
	ctx context.Context,
	req *ListConversationsRequest,
) (*ListConversationsResponse, error) {

	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	page, err := s.app.ConversationList(ctx, userID, domain.PageRequest{Page: req.Page, PerPage: req.PerPage})
	if err != nil {
		return nil, MapError(err)
	}

	items := make([]ConversationSummary, 0, len(page.Items))
	for _, row := range page.Items {
		summary := ConversationSummary{Conversation: toConversation(&row.Conversation)}
		if row.LastMessage != nil {
			last := toInboxMessage(*row.LastMessage)
			summary.LastMessage = &last
		}
		items = append(items, summary)
	}
	return &ListConversationsResponse{Items: items, PageInfo: toPageInfo(page)}, nil
}

// SendMessage reports a failed broadcast in the response instead of failing
// the call, since the message is already stored.
func (s *Server) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := s.app.NewMessage().
		From(userID).
		To(req.ConversationID).
		Body(req.Body).
		Type(req.Type).
		Filename(req.Filename).
		Send(ctx)

	var dispatchErr *domain.DispatchError
	switch {
	case err == nil:
		return &SendMessageResponse{Message: toMessage(*msg)}, nil
	case errors.As(err, &dispatchErr) && msg != nil:
		return &SendMessageResponse{Message: toMessage(*msg), DispatchError: dispatchErr.Error()}, nil
	default:
		return nil, MapError(err)
	}
}

func (s *Server) MarkRead(ctx context.Context, req *MessageRequest) (*Empty, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	if err := s.app.MarkRead(ctx, req.MessageID, userID); err != nil {
		return nil, MapError(err)
	}
	return &Empty{}, nil
}

func (s *Server) TrashMessage(ctx context.Context, req *MessageRequest) (*Empty, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	if err := s.app.Trash(ctx, req.MessageID, userID); err != nil {
		return nil, MapError(err)
	}
	return &Empty{}, nil
}

func (s *Server) ToggleFlag(ctx context.Context, req *MessageRequest) (*ToggleFlagResponse, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	flagged, err := s.app.ToggleFlag(ctx, req.MessageID, userID)
	if err != nil {
		return nil, MapError(err)
	}
	return &ToggleFlagResponse{Flagged: flagged}, nil
}

func (s *Server) UnreadCount(ctx context.Context, req *UnreadCountRequest) (*UnreadCountResponse, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	var (
		userID domain.UserID
		count  int
		err    error
	)
	if req.ConversationID == 0 {
		if userID, err = actor(ctx); err != nil {
			return nil, err
		}
		count, err = s.app.UnreadCount(ctx, userID)
	} else {
		if userID, err = s.member(ctx, req.ConversationID); err != nil {
			return nil, err
		}
		count, err = s.app.ConversationUnreadCount(ctx, req.ConversationID, userID)
	}
	if err != nil {
		return nil, MapError(err)
	}
	return &UnreadCountResponse{Count: count}, nil
}

func (s *Server) ReadAll(ctx context.Context, req *ConversationRequest) (*AffectedResponse, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	userID, err := s.member(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	n, err := s.app.ReadAll(ctx, req.ConversationID, userID)
	if err != nil {
		return nil, MapError(err)
	}
	return &AffectedResponse{Affected: n}, nil
}

func (s *Server) ClearConversation(ctx context.Context, req *ConversationRequest) (*AffectedResponse, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	userID, err := s.member(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	n, err := s.app.Clear(ctx, req.ConversationID, userID)
	if err != nil {
		return nil, MapError(err)
	}
	return &AffectedResponse{Affected: n}, nil
}

func (s *Server) ListMessages(ctx context.Context, req *ListMessagesRequest) (*ListMessagesResponse, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	userID, err := s.member(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	page, err := s.app.Messages(ctx, req.ConversationID, userID, domain.MessageQuery{
		PageRequest: domain.PageRequest{
			Page:     req.Page,
			PerPage:  req.PerPage,
			PageName: req.PageName,
		},
		Sorting: domain.SortDirection(req.Sorting),
		Deleted: req.Deleted,
	})
	if err != nil {
		return nil, MapError(err)
	}

	return &ListMessagesResponse{
		Items:    lo.Map(page.Items, func(m domain.InboxMessage, _ int) InboxMessage { return toInboxMessage(m) }),
		PageInfo: toPageInfo(page),
	}, nil
}
