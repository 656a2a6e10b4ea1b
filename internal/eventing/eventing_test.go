package eventing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/repository/memory"
)

func sampleEvent() domain.MessageSent {
	msg := domain.Message{
		ID:             7,
		Body:           "hello",
		ConversationID: 42,
		SenderID:       "alice",
		Type:           domain.DefaultMessageType,
	}
	return domain.NewMessageSent(msg, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestEncodeDecodeMessageSent(t *testing.T) {
	e := sampleEvent()

	data, err := Encode(DefaultSource, e)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"subject":"chat-conversation.42"`)
	assert.Contains(t, string(data), `"type":"chat.message.sent"`)

	got, err := DecodeMessageSent(data)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Message, got.Message)
	assert.True(t, e.At.Equal(got.At))
}

func TestRedisBroadcaster_PublishesOnConversationChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, "chat-conversation.42")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	b := NewRedisBroadcaster(client)
	require.NoError(t, b.Dispatch(ctx, []domain.Event{sampleEvent()}))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "chat-conversation.42", msg.Channel)
		got, err := DecodeMessageSent([]byte(msg.Payload))
		require.NoError(t, err)
		assert.EqualValues(t, 7, got.Message.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestOutboxDispatcher_StoresEnvelope(t *testing.T) {
	store := memory.New()
	d := NewOutboxDispatcher(store)

	require.NoError(t, d.Dispatch(context.Background(), []domain.Event{sampleEvent()}))

	rows := store.Outbox()
	require.Len(t, rows, 1)
	assert.Equal(t, AggregateConversation, rows[0].AggregateType)
	assert.Equal(t, "42", rows[0].AggregateID)
	assert.Equal(t, domain.EventMessageSent, rows[0].EventType)

	got, err := DecodeMessageSent(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Message.Body)
}

func TestMulti_JoinsErrorsAndKeepsGoing(t *testing.T) {
	boom := errors.New("boom")
	var delivered int
	m := Multi{
		DispatcherFunc(func(context.Context, []domain.Event) error { return boom }),
		DispatcherFunc(func(_ context.Context, events []domain.Event) error {
			delivered += len(events)
			return nil
		}),
		Nop{},
	}

	err := m.Dispatch(context.Background(), []domain.Event{sampleEvent()})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, "multi", Name(m))
	assert.Equal(t, "nop", Name(Nop{}))
}
