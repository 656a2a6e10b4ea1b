package postgres

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

var conversationColumns = []string{"id", "private", "data", "created_at", "updated_at"}

func conversationAnswer(now time.Time) func(string, []driver.NamedValue) fakeResult {
	return func(query string, _ []driver.NamedValue) fakeResult {
		switch {
		case strings.Contains(query, "FROM conversations"):
			return fakeResult{
				columns: conversationColumns,
				rows:    [][]driver.Value{{int64(7), true, []byte(`{}`), now, now}},
			}
		case strings.Contains(query, "FROM conversation_user"):
			return fakeResult{
				columns: []string{"user_id"},
				rows:    [][]driver.Value{{"alice"}, {"bob"}},
			}
		}
		return fakeResult{}
	}
}

func TestGetConversationForSend_LocksWithoutUpgrade(t *testing.T) {
	ctx := context.Background()
	rec, db := newRecordingDB(t, conversationAnswer(time.Now()))
	repo := &Repository{DB: db}

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	conv, err := repo.GetConversationForSend(ctx, tx, 7)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{"alice", "bob"}, conv.Participants)

	require.NoError(t, repo.TouchConversation(ctx, tx, 7))

	statements := rec.recorded()
	require.Len(t, statements, 3)
	assert.Contains(t, statements[0], "FOR NO KEY UPDATE")
	for _, stmt := range statements {
		assert.NotContains(t, stmt, "FOR SHARE", "a shared lock cannot be upgraded for the updated_at write")
	}
	assert.Contains(t, statements[2], "UPDATE conversations")
}

func TestGetConversationLocked_ExclusiveLock(t *testing.T) {
	ctx := context.Background()
	rec, db := newRecordingDB(t, conversationAnswer(time.Now()))
	repo := &Repository{DB: db}

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = repo.GetConversationLocked(ctx, tx, 7)
	require.NoError(t, err)

	statements := rec.recorded()
	require.NotEmpty(t, statements)
	assert.Contains(t, statements[0], "FOR UPDATE")
	assert.NotContains(t, statements[0], "NO KEY")
}

func TestGetConversation_NotFound(t *testing.T) {
	_, db := newRecordingDB(t, nil)
	repo := &Repository{DB: db}

	_, err := repo.GetConversation(context.Background(), nil, 42)

	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestListConversationSummaries_CarriesParticipants(t *testing.T) {
	now := time.Now()
	_, db := newRecordingDB(t, func(query string, _ []driver.NamedValue) fakeResult {
		switch {
		case strings.Contains(query, "LEFT JOIN LATERAL"):
			row := []driver.Value{int64(7), false, []byte(`{"title":"trip"}`), now, now}
			// no message yet: message and notification columns are NULL
			for i := 0; i < 13; i++ {
				row = append(row, nil)
			}
			row = append(row, []byte(`{alice,bob,carol}`))
			return fakeResult{columns: make([]string, len(row)), rows: [][]driver.Value{row}}
		case strings.Contains(query, "COUNT(*)"):
			return fakeResult{columns: []string{"count"}, rows: [][]driver.Value{{int64(1)}}}
		}
		return fakeResult{}
	})
	repo := &Repository{DB: db}

	summaries, total, err := repo.ListConversationSummaries(
		context.Background(), "bob", domain.PageRequest{Page: 1, PerPage: 25},
	)
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, summaries, 1)
	assert.Equal(t, []domain.UserID{"alice", "bob", "carol"}, summaries[0].Conversation.Participants)
	assert.Equal(t, "trip", summaries[0].Conversation.Data["title"])
	assert.Nil(t, summaries[0].LastMessage)
}

func TestCountUnread_ConversationFilterIsBigint(t *testing.T) {
	var gotConv any
	rec, db := newRecordingDB(t, func(_ string, args []driver.NamedValue) fakeResult {
		gotConv = args[1].Value
		return fakeResult{columns: []string{"count"}, rows: [][]driver.Value{{int64(3)}}}
	})
	repo := &Repository{DB: db}

	convID := int64(1) << 40
	n, err := repo.CountUnread(context.Background(), "bob", convID)
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, convID, gotConv)
	statements := rec.recorded()
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], "$2::bigint = 0")
	assert.Contains(t, statements[0], "conversation_id = $2::bigint")
}
