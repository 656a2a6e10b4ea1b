package memory

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/repository"
)

var _ repository.Repository = (*Store)(nil)

func seedConversation(t *testing.T, s *Store, users ...domain.UserID) int64 {
	t.Helper()
	ctx := context.Background()
	conv, err := s.InsertConversation(ctx, nil, nil)
	require.NoError(t, err)
	for _, u := range users {
		require.NoError(t, s.InsertParticipant(ctx, nil, conv.ID, u))
	}
	return conv.ID
}

func TestStore_WithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, _ *sql.Tx) error {
		conv, err := s.InsertConversation(ctx, nil, map[string]any{"title": "x"})
		require.NoError(t, err)
		require.NoError(t, s.InsertParticipant(ctx, nil, conv.ID, "alice"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetConversation(ctx, nil, 1)
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestStore_DuplicateParticipant(t *testing.T) {
	s := New()
	id := seedConversation(t, s, "alice")

	err := s.InsertParticipant(context.Background(), nil, id, "alice")
	assert.ErrorIs(t, err, domain.ErrIntegrityViolation)
}

func TestStore_FanoutCoversParticipantsAtSendTime(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := seedConversation(t, s, "alice", "bob", "carol")

	msg := &domain.Message{ConversationID: id, SenderID: "alice", Body: "hi", Type: domain.DefaultMessageType}
	require.NoError(t, s.InsertMessage(ctx, nil, msg))
	n, err := s.InsertNotifications(ctx, nil, msg)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	require.NoError(t, s.InsertParticipant(ctx, nil, id, "dave"))

	rows := s.NotificationsForMessage(msg.ID)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, r.UserID == "alice", r.IsSender)
		assert.False(t, r.IsSeen)
	}
}

func TestStore_CommonIsExactSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	pair := seedConversation(t, s, "alice", "bob")
	seedConversation(t, s, "alice", "bob", "carol")

	convs, err := s.FindCommonConversations(ctx, []domain.UserID{"bob", "alice"})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, pair, convs[0].ID)
}

func TestStore_InboxExcludesTrashedUnlessAsked(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := seedConversation(t, s, "alice", "bob")

	var ids []int64
	for _, body := range []string{"one", "two", "three"} {
		msg := &domain.Message{ConversationID: id, SenderID: "alice", Body: body}
		require.NoError(t, s.InsertMessage(ctx, nil, msg))
		_, err := s.InsertNotifications(ctx, nil, msg)
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}
	require.NoError(t, s.SoftDelete(ctx, nil, ids[1], "bob"))

	q := domain.MessageQuery{}.Normalize()
	rows, total, err := s.ListInboxMessages(ctx, id, "bob", q)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []int64{ids[0], ids[2]}, []int64{rows[0].ID, rows[1].ID})

	q.Deleted = true
	rows, total, err = s.ListInboxMessages(ctx, id, "bob", q)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, ids[1], rows[0].ID)

	rows, total, err = s.ListInboxMessages(ctx, id, "alice", domain.MessageQuery{}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, rows, 3)
}

func TestStore_MissingUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	missing, err := s.MissingUsers(ctx, nil, []domain.UserID{"ghost"})
	require.NoError(t, err)
	assert.Empty(t, missing)

	s.RegisterUsers("alice")
	missing, err = s.MissingUsers(ctx, nil, []domain.UserID{"alice", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{"ghost"}, missing)
}
