package outbox

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
)

const defaultMaxRetries = 3

// Publisher is the sink relayed events go to. *kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Topic() string
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Worker struct {
	DB         *sql.DB
	Producer   Publisher
	BatchSize  int
	PollDelay  time.Duration
	MaxRetries int
}

type event struct {
	id            int64
	aggregateType string
	aggregateID   string
	eventType     string
	payload       []byte
	createdAt     time.Time
	retryCount    int
}

// Start relays pending outbox events until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {

	log := observability.GetLogger(ctx)
	for {
		idle, err := w.processBatch(ctx)
		if err != nil {
			log.Error("outbox error", zap.Error(err))
		}

		var wait time.Duration
		switch {
		case err != nil:
			wait = time.Second
		case idle:
			wait = w.PollDelay
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) (idle bool, err error) {

	tx, err := w.DB.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at, retry_count
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, w.BatchSize)
	if err != nil {
		return false, err
	}

	var events []event
	for rows.Next() {
		var e event
		if err := rows.Scan(&e.id, &e.aggregateType, &e.aggregateID, &e.eventType, &e.payload, &e.createdAt, &e.retryCount); err != nil {
			rows.Close()
			return false, err
		}
		events = append(events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}

	if len(events) == 0 {
		return true, tx.Rollback()
	}

	batchErr, err := w.relay(ctx, tx, events)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return false, batchErr
}

// relay publishes events in order and records the outcome of each. It stops
// at the first publish failure so later events of the same conversation are
// not delivered ahead of it. The returned batchErr is that publish failure;
// err is a storage failure that must abort the transaction.
func (w *Worker) relay(ctx context.Context, q execer, events []event) (batchErr, err error) {

	maxRetries := w.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	for _, e := range events {
		pubErr := w.Producer.Publish(ctx, e.aggregateID, e.payload)
		if pubErr == nil {
			if _, err := q.ExecContext(ctx, `
				UPDATE outbox_events
				SET processed_at = now()
				WHERE id = $1
			`, e.id); err != nil {
				return nil, err
			}
			continue
		}

		observability.OutboxPublishFailuresTotal.WithLabelValues(w.Producer.Topic()).Inc()

		if e.retryCount >= maxRetries {
			if err := deadLetter(ctx, q, e, pubErr); err != nil {
				return nil, err
			}
			observability.GetLogger(ctx).Error("outbox event dead-lettered",
				zap.Int64("outbox_id", e.id),
				zap.String("event_type", e.eventType),
				zap.Error(pubErr),
			)
		} else if _, err := q.ExecContext(ctx, `
			UPDATE outbox_events
			SET retry_count = retry_count + 1, error = $2
			WHERE id = $1
		`, e.id, pubErr.Error()); err != nil {
			return nil, err
		}

		return pubErr, nil
	}
	return nil, nil
}

func deadLetter(ctx context.Context, q execer, e event, cause error) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO outbox_dlq (id, aggregate_type, aggregate_id, event_type, payload, created_at, failed_at, error, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, now(), $7, $8)
	`, e.id, e.aggregateType, e.aggregateID, e.eventType, e.payload, e.createdAt, cause.Error(), e.retryCount+1); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		DELETE FROM outbox_events WHERE id = $1
	`, e.id)
	return err
}
