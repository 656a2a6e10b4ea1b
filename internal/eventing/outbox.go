package eventing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/repository"
)

const AggregateConversation = "conversation"

// OutboxDispatcher stores events in outbox_events. The outbox worker relays
// them to Kafka, keyed by conversation so per-conversation order holds.
type OutboxDispatcher struct {
	Repo   repository.OutboxRepository
	Source string
}

func NewOutboxDispatcher(repo repository.OutboxRepository) *OutboxDispatcher {
	return &OutboxDispatcher{Repo: repo, Source: DefaultSource}
}

func (d *OutboxDispatcher) Name() string { return "outbox" }

func (d *OutboxDispatcher) Dispatch(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		data, err := Encode(d.Source, e)
		if err != nil {
			return err
		}
		if err := d.Repo.InsertOutbox(
			ctx, nil,
			AggregateConversation,
			strconv.FormatInt(e.ConversationID(), 10),
			e.EventName(),
			data,
		); err != nil {
			return fmt.Errorf("save outbox event %s: %w", e.EventID(), err)
		}
	}
	return nil
}
