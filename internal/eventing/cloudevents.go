package eventing

import (
	"encoding/json"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

const DefaultSource = "chatbox"

type channeled interface {
	Channel() string
}

// Channel is the broadcast channel an event belongs to.
func Channel(e domain.Event) string {
	if c, ok := e.(channeled); ok {
		return c.Channel()
	}
	return domain.ConversationChannel(e.ConversationID())
}

// Encode wraps an event in a CloudEvents 1.0 envelope and renders it as
// structured JSON. The subject is the broadcast channel.
func Encode(source string, e domain.Event) ([]byte, error) {
	ce := cloudevents.NewEvent()
	ce.SetID(e.EventID())
	ce.SetSource(source)
	ce.SetType(e.EventName())
	ce.SetSubject(Channel(e))
	ce.SetTime(e.OccurredAt())

	if err := ce.SetData(cloudevents.ApplicationJSON, payload(e)); err != nil {
		return nil, fmt.Errorf("set event data: %w", err)
	}
	if err := ce.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event %s: %w", e.EventID(), err)
	}
	return json.Marshal(ce)
}

func payload(e domain.Event) any {
	if sent, ok := e.(domain.MessageSent); ok {
		return sent.Message
	}
	return e
}

// DecodeMessageSent parses an envelope produced by Encode.
func DecodeMessageSent(data []byte) (domain.MessageSent, error) {
	var ce cloudevents.Event
	if err := json.Unmarshal(data, &ce); err != nil {
		return domain.MessageSent{}, fmt.Errorf("decode envelope: %w", err)
	}
	if ce.Type() != domain.EventMessageSent {
		return domain.MessageSent{}, fmt.Errorf("unexpected event type %q", ce.Type())
	}

	var msg domain.Message
	if err := ce.DataAs(&msg); err != nil {
		return domain.MessageSent{}, fmt.Errorf("decode message: %w", err)
	}
	return domain.MessageSent{ID: ce.ID(), Message: msg, At: ce.Time()}, nil
}
