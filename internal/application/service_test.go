package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/repository/memory"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	batches [][]domain.Event
	err     error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, events []domain.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, events)
	return d.err
}

func (d *recordingDispatcher) events() []domain.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []domain.Event
	for _, b := range d.batches {
		out = append(out, b...)
	}
	return out
}

type fixture struct {
	svc        *Service
	store      *memory.Store
	dispatcher *recordingDispatcher
}

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()

	o := DefaultOptions()
	o.BroadcastEnabled = true
	for _, fn := range opts {
		fn(&o)
	}

	store := memory.New()
	d := &recordingDispatcher{}
	svc, err := New(store, store, d, o)
	require.NoError(t, err)

	return &fixture{svc: svc, store: store, dispatcher: d}
}

func (f *fixture) start(t *testing.T, users ...domain.UserID) *domain.Conversation {
	t.Helper()
	conv, err := f.svc.Start(context.Background(), users, map[string]any{})
	require.NoError(t, err)
	return conv
}

func (f *fixture) send(t *testing.T, convID int64, from domain.UserID, body string) *domain.Message {
	t.Helper()
	msg, err := f.svc.NewMessage().From(from).To(convID).Body(body).Send(context.Background())
	require.NoError(t, err)
	return msg
}
