package application

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/chatbox/internal/commanding"
	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/eventing"
	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
	"github.com/SARVESHVARADKAR123/chatbox/internal/repository"
	"github.com/SARVESHVARADKAR123/chatbox/internal/tx"
)

type SendMessageCommand struct {
	Draft domain.MessageDraft
}

func (SendMessageCommand) CommandName() string { return "SendMessage" }

type SendMessageHandler struct {
	tx         tx.Transactor
	repo       repository.Repository
	log        *MessageLog
	dispatcher eventing.Dispatcher
}

// Handle persists the message and its deliveries in one transaction, then
// dispatches the released events. A dispatch failure does not undo the send:
// the message is returned together with a *domain.DispatchError.
func (h *SendMessageHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*domain.Message, error) {
	if err := cmd.Draft.Validate(); err != nil {
		return nil, err
	}

	logger := observability.GetLogger(ctx).With(
		zap.Int64("conversation_id", cmd.Draft.ConversationID),
		zap.String("user_id", string(cmd.Draft.SenderID)),
	)

	var (
		msg   *domain.Message
		queue *domain.EventQueue
	)

	err := h.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// A retried attempt starts with an empty queue.
		queue = &domain.EventQueue{}

		var err error
		msg, err = h.log.Append(ctx, tx, cmd.Draft, queue)
		return err
	})
	if err != nil {
		logger.Warn("message not sent", zap.Error(err))
		return nil, err
	}

	observability.MessagesSentTotal.Inc()
	logger = logger.With(zap.Int64("message_id", msg.ID))
	logger.Info("message sent")

	if err := h.repo.InvalidateConversation(ctx, msg.ConversationID); err != nil {
		logger.Warn("failed to invalidate conversation cache", zap.Error(err))
	}

	events := queue.Release()
	if err := h.dispatcher.Dispatch(ctx, events); err != nil {
		observability.EventDispatchFailuresTotal.WithLabelValues(eventing.Name(h.dispatcher)).Inc()
		logger.Error("failed to dispatch message events",
			zap.Int("events", len(events)),
			zap.Error(err),
		)
		return msg, &domain.DispatchError{MessageID: msg.ID, Err: err}
	}

	return msg, nil
}

// MessageBuilder assembles a message before it is sent.
type MessageBuilder struct {
	bus   *commanding.Bus
	draft domain.MessageDraft
}

func (s *Service) NewMessage() *MessageBuilder {
	return &MessageBuilder{bus: s.bus}
}

func (b *MessageBuilder) From(sender domain.UserID) *MessageBuilder {
	b.draft.SenderID = sender
	return b
}

func (b *MessageBuilder) To(convID int64) *MessageBuilder {
	b.draft.ConversationID = convID
	return b
}

func (b *MessageBuilder) Body(body string) *MessageBuilder {
	b.draft.Body = body
	return b
}

func (b *MessageBuilder) Type(messageType string) *MessageBuilder {
	b.draft.Type = messageType
	return b
}

func (b *MessageBuilder) Filename(name string) *MessageBuilder {
	b.draft.Filename = name
	return b
}

func (b *MessageBuilder) Draft() domain.MessageDraft {
	return b.draft
}

// Send rejects an incomplete draft before any command is built.
func (b *MessageBuilder) Send(ctx context.Context) (*domain.Message, error) {
	if err := b.draft.Validate(); err != nil {
		return nil, err
	}
	return commanding.Execute[SendMessageCommand, *domain.Message](ctx, b.bus, SendMessageCommand{Draft: b.draft})
}

func (s *Service) SendMessage(ctx context.Context, draft domain.MessageDraft) (*domain.Message, error) {
	return s.NewMessage().
		From(draft.SenderID).
		To(draft.ConversationID).
		Body(draft.Body).
		Type(draft.Type).
		Filename(draft.Filename).
		Send(ctx)
}
