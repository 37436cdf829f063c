package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatgate/internal/credentials/models"
	"chatgate/pkg/audit"
	dErrors "chatgate/pkg/domain-errors"
	"chatgate/pkg/secrets"
)

// Store is the persistence capability for credential records.
type Store interface {
	// Get returns the record for a user, or nil when absent.
	Get(ctx context.Context, userID string) (*models.Record, error)

	// Upsert creates or replaces the record for a user.
	Upsert(ctx context.Context, record models.Record) error

	// Delete removes the record for a user; missing records are a no-op.
	Delete(ctx context.Context, userID string) error
}

const defaultStoreTimeout = 2 * time.Second

// Service is the credential registry: it tracks, per user, whether a personal
// provider credential is registered. It never holds the plaintext key.
type Service struct {
	store          Store
	auditPublisher audit.Publisher
	logger         *slog.Logger
	storeTimeout   time.Duration
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithStoreTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = timeout
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("credential store is required")
	}

	svc := &Service{
		store:        store,
		storeTimeout: defaultStoreTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Has reports whether a personal credential is registered for the user.
// Store failures surface as errors so callers can fail closed.
func (s *Service) Has(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	record, err := s.store.Get(ctx, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential registry unavailable")
	}
	return record != nil, nil
}

// Set registers (or replaces) the user's personal provider key. The write is
// an idempotent upsert keyed by user ID.
func (s *Service) Set(ctx context.Context, userID, key string) error {
	if userID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}

	fingerprint, err := secrets.Fingerprint(key)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	record := models.Record{
		UserID:      userID,
		Fingerprint: fingerprint,
		UpdatedAt:   s.now(),
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to register provider key")
	}

	s.logAudit(ctx, "provider_key_registered", userID)
	return nil
}

// Clear revokes the user's personal provider key. Clearing an absent key is
// a no-op so revocation is idempotent.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to remove provider key")
	}

	s.logAudit(ctx, "provider_key_removed", userID)
	return nil
}

// Verify checks a presented key against the stored fingerprint, for support
// flows that need to confirm the registered key without reading it.
func (s *Service) Verify(ctx context.Context, userID, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	record, err := s.store.Get(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "credential registry unavailable")
	}
	if record == nil {
		return dErrors.New(dErrors.CodeNotFound, "no provider key registered")
	}
	return secrets.Verify(key, record.Fingerprint)
}

func (s *Service) logAudit(ctx context.Context, action, userID string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, action, "user_id", userID, "log_type", "audit")
	}
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{UserID: userID, Action: action}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}
