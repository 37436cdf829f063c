package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chatgate/internal/credentials/models"
)

// Store persists credential records in PostgreSQL.
// This store is pure I/O; fingerprinting and audit belong in the service.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, userID string) (*models.Record, error) {
	query := `
		SELECT user_id, fingerprint, updated_at
		FROM provider_credentials
		WHERE user_id = $1
	`
	var record models.Record
	err := s.db.QueryRowContext(ctx, query, userID).
		Scan(&record.UserID, &record.Fingerprint, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get provider credential: %w", err)
	}
	return &record, nil
}

func (s *Store) Upsert(ctx context.Context, record models.Record) error {
	query := `
		INSERT INTO provider_credentials (user_id, fingerprint, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, record.UserID, record.Fingerprint, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert provider credential: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM provider_credentials WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete provider credential: %w", err)
	}
	return nil
}
