package postgres

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantIntegrity bool
	}{
		{"Nil", nil, false},
		{"Unique violation", &pq.Error{Code: "23505", Message: "duplicate key"}, true},
		{"Foreign key violation", &pq.Error{Code: "23503"}, true},
		{"Not null violation", &pq.Error{Code: "23502"}, false},
		{"Other", errors.New("conn reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.wantIntegrity, errors.Is(got, domain.ErrIntegrityViolation))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestDecodeData(t *testing.T) {
	data, err := decodeData(nil)
	assert.NoError(t, err)
	assert.Empty(t, data)

	data, err = decodeData([]byte(`{"title":"ops","n":2}`))
	assert.NoError(t, err)
	assert.Equal(t, "ops", data["title"])
	assert.Equal(t, float64(2), data["n"])

	_, err = decodeData([]byte(`{`))
	assert.Error(t, err)
}

func TestTimePtr(t *testing.T) {
	assert.Nil(t, timePtr(sql.NullTime{}))

	now := time.Now()
	got := timePtr(sql.NullTime{Time: now, Valid: true})
	if assert.NotNil(t, got) {
		assert.True(t, now.Equal(*got))
	}
}

func TestUserStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, userStrings([]domain.UserID{"a", "b"}))
	assert.Empty(t, userStrings(nil))
}
