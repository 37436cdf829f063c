package counter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"chatgate/internal/usage/models"
	"chatgate/pkg/sentinel"
)

// maxConsumeAttempts bounds internal retries on storage contention before
// surfacing unavailability to the caller.
const maxConsumeAttempts = 3

// PostgresCounterStore persists usage counters in PostgreSQL. The
// check-and-increment is a single conditional upsert, so concurrent consumes
// for the same (user, period) serialize at the row and can never exceed the
// limit.
type PostgresCounterStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresCounterStore {
	return &PostgresCounterStore{db: db}
}

func (s *PostgresCounterStore) TryConsume(ctx context.Context, userID, periodKey string, limit int) (models.ConsumeResult, error) {
	query := `
		INSERT INTO usage_counters (user_id, period_key, count_used, usage_limit)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (user_id, period_key) DO UPDATE SET
			count_used = usage_counters.count_used + 1,
			usage_limit = EXCLUDED.usage_limit
		WHERE usage_counters.count_used < usage_counters.usage_limit
		RETURNING count_used, usage_limit
	`

	var lastErr error
	for attempt := 0; attempt < maxConsumeAttempts; attempt++ {
		var used, storedLimit int
		err := s.db.QueryRowContext(ctx, query, userID, periodKey, limit).Scan(&used, &storedLimit)
		if err == nil {
			return models.ConsumeResult{Allowed: true, Remaining: storedLimit - used}, nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			// Conditional update matched nothing: the counter is at its limit.
			return models.ConsumeResult{Allowed: false, Remaining: 0}, nil
		}
		if !retryable(err) {
			return models.ConsumeResult{}, fmt.Errorf("consume usage counter: %w (%w)", err, sentinel.ErrUnavailable)
		}
		lastErr = err
	}
	return models.ConsumeResult{}, fmt.Errorf("consume usage counter after %d attempts: %w (%w)", maxConsumeAttempts, lastErr, sentinel.ErrUnavailable)
}

func (s *PostgresCounterStore) Get(ctx context.Context, userID, periodKey string) (*models.Counter, error) {
	query := `
		SELECT user_id, period_key, count_used, usage_limit
		FROM usage_counters
		WHERE user_id = $1 AND period_key = $2
	`
	var c models.Counter
	err := s.db.QueryRowContext(ctx, query, userID, periodKey).
		Scan(&c.UserID, &c.PeriodKey, &c.CountUsed, &c.Limit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get usage counter: %w (%w)", err, sentinel.ErrUnavailable)
	}
	return &c, nil
}

// retryable reports whether the error is transient contention
// (serialization failure or deadlock) worth one more attempt.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
