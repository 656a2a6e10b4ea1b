package tx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const maxRetries = 5

var ErrRetryExhausted = errors.New("transaction retry exhausted")

// Manager runs units of work on a *sql.DB, retrying the whole function when
// postgres reports a serialization failure or deadlock.
type Manager struct {
	DB        *sql.DB
	Isolation sql.IsolationLevel
}

func (m *Manager) WithTx(
	ctx context.Context,
	fn func(ctx context.Context, tx *sql.Tx) error,
) error {

	isolation := m.Isolation
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted
	}

	for i := 0; i < maxRetries; i++ {

		tx, err := m.DB.BeginTx(ctx, &sql.TxOptions{Isolation: isolation})
		if err != nil {
			return err
		}

		err = fn(ctx, tx)
		if err != nil {
			_ = tx.Rollback()
			if isRetryable(err) {
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isRetryable(err) {
				continue
			}
			return fmt.Errorf("commit: %w", err)
		}

		return nil
	}

	return ErrRetryExhausted
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return true
	}
	return false
}
