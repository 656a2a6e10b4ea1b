package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

func TestSend_FanOutOneRowPerParticipant(t *testing.T) {
	f := newFixture(t)
	conv := f.start(t, "alice", "bob", "carol")

	msg := f.send(t, conv.ID, "alice", "hello")

	assert.Equal(t, domain.DefaultMessageType, msg.Type)
	rows := f.store.NotificationsForMessage(msg.ID)
	require.Len(t, rows, 3)
	senders := 0
	for _, r := range rows {
		assert.Equal(t, conv.ID, r.ConversationID)
		assert.False(t, r.IsSeen)
		assert.False(t, r.Flagged)
		assert.Nil(t, r.DeletedAt)
		if r.IsSender {
			senders++
			assert.Equal(t, domain.UserID("alice"), r.UserID)
		}
	}
	assert.Equal(t, 1, senders)
}

func TestSend_LateJoinerGetsNoHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	conv := f.start(t, "alice", "bob")
	before := f.send(t, conv.ID, "alice", "before")

	require.NoError(t, f.svc.AddParticipants(ctx, conv.ID, "carol"))
	after := f.send(t, conv.ID, "alice", "after")

	assert.Len(t, f.store.NotificationsForMessage(before.ID), 2)
	assert.Len(t, f.store.NotificationsForMessage(after.ID), 3)
}

func TestSend_RejectsIncompleteDraft(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *MessageBuilder) *MessageBuilder
		wantErr error
	}{
		{
			name:    "missing sender",
			build:   func(b *MessageBuilder) *MessageBuilder { return b.To(1).Body("hi") },
			wantErr: domain.ErrMissingSender,
		},
		{
			name:    "missing body",
			build:   func(b *MessageBuilder) *MessageBuilder { return b.From("alice").To(1) },
			wantErr: domain.ErrMissingBody,
		},
		{
			name:    "missing recipient",
			build:   func(b *MessageBuilder) *MessageBuilder { return b.From("alice").Body("hi") },
			wantErr: domain.ErrMissingRecipient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			conv := f.start(t, "alice", "bob")
			require.EqualValues(t, 1, conv.ID)

			msg, err := tt.build(f.svc.NewMessage()).Send(context.Background())

			assert.Nil(t, msg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
			assert.Empty(t, f.dispatcher.events())
			_, err = f.svc.Message(context.Background(), 1)
			assert.ErrorIs(t, err, domain.ErrMessageNotFound)
		})
	}
}

func TestSend_NotParticipant(t *testing.T) {
	f := newFixture(t)
	conv := f.start(t, "alice", "bob")

	_, err := f.svc.NewMessage().From("mallory").To(conv.ID).Body("hi").Send(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotParticipant)
	assert.Empty(t, f.dispatcher.events())
}

func TestSend_UnknownConversation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.NewMessage().From("alice").To(404).Body("hi").Send(context.Background())

	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestSend_FailedFanoutLeavesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	conv := f.start(t, "alice", "bob")
	boom := errors.New("disk full")
	f.store.FailFanout = boom

	msg, err := f.svc.NewMessage().From("alice").To(conv.ID).Body("hi").Send(ctx)

	assert.Nil(t, msg)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrDispatchFailed)
	_, err = f.svc.Message(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
	assert.Empty(t, f.dispatcher.events())
}

func TestSend_DispatchFailureKeepsMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	conv := f.start(t, "alice", "bob")
	f.dispatcher.err = errors.New("broker down")

	msg, err := f.svc.NewMessage().From("alice").To(conv.ID).Body("hi").Send(ctx)

	require.NotNil(t, msg)
	assert.ErrorIs(t, err, domain.ErrDispatchFailed)
	var dispatchErr *domain.DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	assert.Equal(t, msg.ID, dispatchErr.MessageID)

	stored, err := f.svc.Message(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", stored.Body)
	assert.Len(t, f.store.NotificationsForMessage(msg.ID), 2)
}

func TestSend_DispatchesOneEventPerMessage(t *testing.T) {
	f := newFixture(t)
	conv := f.start(t, "alice", "bob")

	msg := f.send(t, conv.ID, "bob", "hey")

	events := f.dispatcher.events()
	require.Len(t, events, 1)
	sent, ok := events[0].(domain.MessageSent)
	require.True(t, ok)
	assert.Equal(t, *msg, sent.Message)
	assert.Equal(t, domain.EventMessageSent, sent.EventName())
	assert.Equal(t, fmt.Sprintf("chat-conversation.%d", conv.ID), sent.Channel())
	assert.NotEmpty(t, sent.EventID())
}

func TestSend_BroadcastDisabled(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.BroadcastEnabled = false })
	conv := f.start(t, "alice", "bob")

	f.send(t, conv.ID, "alice", "quiet")

	assert.Empty(t, f.dispatcher.events())
}

func TestSendMessage_FromDraft(t *testing.T) {
	f := newFixture(t)
	conv := f.start(t, "alice", "bob")

	msg, err := f.svc.SendMessage(context.Background(), domain.MessageDraft{
		ConversationID: conv.ID,
		SenderID:       "bob",
		Body:           "report.pdf",
		Type:           "file",
		Filename:       "report.pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, "file", msg.Type)
	assert.Equal(t, "report.pdf", msg.Filename)
}

func TestSend_ConcurrentSendersEachFanOutFully(t *testing.T) {
	f := newFixture(t)
	conv := f.start(t, "alice", "bob", "carol")
	senders := []domain.UserID{"alice", "bob", "carol"}

	const perSender = 20
	var wg sync.WaitGroup
	errs := make(chan error, len(senders)*perSender)
	for _, sender := range senders {
		wg.Add(1)
		go func(sender domain.UserID) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				_, err := f.svc.NewMessage().From(sender).To(conv.ID).Body(fmt.Sprintf("%s-%d", sender, i)).Send(context.Background())
				errs <- err
			}
		}(sender)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	page, err := f.svc.Messages(context.Background(), conv.ID, "alice", domain.MessageQuery{
		PageRequest: domain.PageRequest{PerPage: domain.MaxPerPage},
	})
	require.NoError(t, err)
	require.Equal(t, len(senders)*perSender, page.Total)

	var prev int64
	for _, m := range page.Items {
		assert.Greater(t, m.ID, prev)
		prev = m.ID
		assert.Len(t, f.store.NotificationsForMessage(m.ID), 3)
	}
}
