package grpc

import (
	"time"

	"github.com/samber/lo"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

type Empty struct{}

type Conversation struct {
	ID           int64          `json:"id"`
	Private      bool           `json:"private"`
	Data         map[string]any `json:"data,omitempty"`
	Participants []string       `json:"participants"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	Type           string    `json:"type"`
	Filename       string    `json:"filename,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// InboxMessage is a message as one user sees it.
type InboxMessage struct {
	Message
	IsSeen    bool       `json:"is_seen"`
	IsSender  bool       `json:"is_sender"`
	Flagged   bool       `json:"flagged"`
	SeenAt    *time.Time `json:"seen_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

type ConversationSummary struct {
	Conversation Conversation  `json:"conversation"`
	LastMessage  *InboxMessage `json:"last_message,omitempty"`
}

type PageInfo struct {
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
	PageName string `json:"page_name"`
	LastPage int    `json:"last_page"`
}

type StartConversationRequest struct {
	Participants []string       `json:"participants" validate:"dive,required"`
	Data         map[string]any `json:"data"`
}

type ConversationResponse struct {
	Conversation Conversation `json:"conversation"`
}

type ParticipantsRequest struct {
	ConversationID int64    `json:"conversation_id" validate:"required,gt=0"`
	UserIDs        []string `json:"user_ids" validate:"required,min=1,dive,required"`
}

type CommonConversationsRequest struct {
	UserIDs []string `json:"user_ids" validate:"dive,required"`
}

type CommonConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type ListConversationsRequest struct {
	Page    int `json:"page" validate:"gte=0"`
	PerPage int `json:"per_page" validate:"gte=0"`
}

type ListConversationsResponse struct {
	Items []ConversationSummary `json:"items"`
	PageInfo
}

type SendMessageRequest struct {
	ConversationID int64  `json:"conversation_id"`
	Body           string `json:"body"`
	Type           string `json:"type"`
	Filename       string `json:"filename"`
}

// SendMessageResponse carries the stored message. DispatchError is set when
// the message was sent but broadcasting it failed.
type SendMessageResponse struct {
	Message       Message `json:"message"`
	DispatchError string  `json:"dispatch_error,omitempty"`
}

type MessageRequest struct {
	MessageID int64 `json:"message_id" validate:"required,gt=0"`
}

type ToggleFlagResponse struct {
	Flagged bool `json:"flagged"`
}

type UnreadCountRequest struct {
	// ConversationID 0 counts across every conversation.
	ConversationID int64 `json:"conversation_id" validate:"gte=0"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type ConversationRequest struct {
	ConversationID int64 `json:"conversation_id" validate:"required,gt=0"`
}

type AffectedResponse struct {
	Affected int64 `json:"affected"`
}

type ListMessagesRequest struct {
	ConversationID int64  `json:"conversation_id" validate:"required,gt=0"`
	Page           int    `json:"page" validate:"gte=0"`
	PerPage        int    `json:"per_page" validate:"gte=0"`
	PageName       string `json:"page_name"`
	Sorting        string `json:"sorting" validate:"omitempty,oneof=asc desc"`
	Deleted        bool   `json:"deleted"`
}

type ListMessagesResponse struct {
	Items []InboxMessage `json:"items"`
	PageInfo
}

func toConversation(c *domain.Conversation) Conversation {
	return Conversation{
		ID:           c.ID,
		Private:      c.Private,
		Data:         c.Data,
		Participants: userStrings(c.Participants),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toMessage(m domain.Message) Message {
	return Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       string(m.SenderID),
		Body:           m.Body,
		Type:           m.Type,
		Filename:       m.Filename,
		CreatedAt:      m.CreatedAt,
	}
}

func toInboxMessage(m domain.InboxMessage) InboxMessage {
	return InboxMessage{
		Message:   toMessage(m.Message),
		IsSeen:    m.IsSeen,
		IsSender:  m.IsSender,
		Flagged:   m.Flagged,
		SeenAt:    m.SeenAt,
		DeletedAt: m.DeletedAt,
	}
}

func toPageInfo[T any](p domain.Page[T]) PageInfo {
	return PageInfo{
		Total:    p.Total,
		Page:     p.CurrentPage,
		PerPage:  p.PerPage,
		PageName: p.PageName,
		LastPage: p.LastPage(),
	}
}

func userStrings(ids []domain.UserID) []string {
	return lo.Map(ids, func(id domain.UserID, _ int) string { return string(id) })
}

func userIDs(ids []string) []domain.UserID {
	return lo.Map(ids, func(id string, _ int) domain.UserID { return domain.UserID(id) })
}
