package outbox

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	key   string
	value string
}

type fakePublisher struct {
	sent []published
	fail map[string]error
}

func (p *fakePublisher) Publish(_ context.Context, key string, value []byte) error {
	if err := p.fail[key]; err != nil {
		return err
	}
	p.sent = append(p.sent, published{key: key, value: string(value)})
	return nil
}

func (p *fakePublisher) Topic() string { return "chat.messages" }

type statement struct {
	query string
	args  []any
}

type fakeExecer struct {
	stmts []statement
	err   error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.stmts = append(f.stmts, statement{query: strings.Join(strings.Fields(query), " "), args: args})
	return nil, f.err
}

func (f *fakeExecer) kinds() []string {
	out := make([]string, 0, len(f.stmts))
	for _, s := range f.stmts {
		out = append(out, strings.Fields(s.query)[0]+" "+strings.Fields(s.query)[1])
	}
	return out
}

func events() []event {
	return []event{
		{id: 1, aggregateType: "conversation", aggregateID: "10", eventType: "chat.message.sent", payload: []byte("a")},
		{id: 2, aggregateType: "conversation", aggregateID: "20", eventType: "chat.message.sent", payload: []byte("b")},
		{id: 3, aggregateType: "conversation", aggregateID: "10", eventType: "chat.message.sent", payload: []byte("c")},
	}
}

func TestRelay_AllPublished(t *testing.T) {
	pub := &fakePublisher{}
	db := &fakeExecer{}
	w := &Worker{Producer: pub}

	batchErr, err := w.relay(context.Background(), db, events())

	require.NoError(t, err)
	require.NoError(t, batchErr)
	assert.Equal(t, []published{{"10", "a"}, {"20", "b"}, {"10", "c"}}, pub.sent)
	assert.Equal(t, []string{"UPDATE outbox_events", "UPDATE outbox_events", "UPDATE outbox_events"}, db.kinds())
}

func TestRelay_StopsAtFirstFailureAndCountsRetry(t *testing.T) {
	broker := errors.New("broker down")
	pub := &fakePublisher{fail: map[string]error{"20": broker}}
	db := &fakeExecer{}
	w := &Worker{Producer: pub, MaxRetries: 5}

	batchErr, err := w.relay(context.Background(), db, events())

	require.NoError(t, err)
	assert.ErrorIs(t, batchErr, broker)
	assert.Equal(t, []published{{"10", "a"}}, pub.sent)
	require.Len(t, db.stmts, 2)
	assert.Contains(t, db.stmts[1].query, "retry_count = retry_count + 1")
	assert.Equal(t, []any{int64(2), "broker down"}, db.stmts[1].args)
}

func TestRelay_DeadLettersAfterMaxRetries(t *testing.T) {
	broker := errors.New("broker down")
	pub := &fakePublisher{fail: map[string]error{"10": broker}}
	db := &fakeExecer{}
	w := &Worker{Producer: pub}

	evs := events()
	evs[0].retryCount = defaultMaxRetries

	batchErr, err := w.relay(context.Background(), db, evs)

	require.NoError(t, err)
	assert.ErrorIs(t, batchErr, broker)
	assert.Equal(t, []string{"INSERT INTO", "DELETE FROM"}, db.kinds())
	assert.Equal(t, defaultMaxRetries+1, db.stmts[0].args[7])
}

func TestRelay_StorageFailureAborts(t *testing.T) {
	dbErr := errors.New("connection reset")
	w := &Worker{Producer: &fakePublisher{}}

	_, err := w.relay(context.Background(), &fakeExecer{err: dbErr}, events())

	assert.ErrorIs(t, err, dbErr)
}
