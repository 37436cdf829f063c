package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chatgate/internal/usage/metrics"
	"chatgate/internal/usage/models"
	"chatgate/internal/usage/period"
	"chatgate/internal/usage/ports"
	"chatgate/pkg/audit"
	dErrors "chatgate/pkg/domain-errors"
)

// Type aliases for shared interfaces.
type (
	CounterStore      = ports.CounterStore
	CredentialChecker = ports.CredentialChecker
)

const defaultStoreTimeout = 2 * time.Second

// Service is the usage accounting service: it decides whether a metered call
// may proceed and records it. Personal-credential users bypass the ledger
// entirely; everyone else goes through the atomic check-and-increment.
type Service struct {
	registry       CredentialChecker
	ledger         CounterStore
	clock          *period.Clock
	limit          int
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	storeTimeout   time.Duration
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithStoreTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = timeout
	}
}

func New(registry CredentialChecker, ledger CounterStore, clock *period.Clock, limit int, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("credential registry is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("period clock is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("call limit must be positive, got %d", limit)
	}

	svc := &Service{
		registry:     registry,
		ledger:       ledger,
		clock:        clock,
		limit:        limit,
		tracer:       otel.Tracer("chatgate/usage"),
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AuthorizeCall decides whether one metered call may proceed for the user and,
// on the metered path, consumes one unit of quota. Registry or ledger failure
// fails closed: the call is denied with an unavailability error, never
// silently allowed.
func (s *Service) AuthorizeCall(ctx context.Context, userID string) (models.Grant, error) {
	if userID == "" {
		return models.Grant{}, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}

	ctx, span := s.tracer.Start(ctx, "usage.AuthorizeCall")
	defer span.End()

	bypass, err := s.registry.Has(ctx, userID)
	if err != nil {
		s.metrics.RecordLedgerFailure()
		return models.Grant{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential registry unavailable")
	}
	if bypass {
		span.SetAttributes(attribute.String("reason", string(models.ReasonBypass)))
		s.metrics.RecordAuthorize(string(models.ReasonBypass))
		return models.Grant{Allowed: true, Reason: models.ReasonBypass}, nil
	}

	consumeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	periodKey := s.clock.CurrentKey()
	result, err := s.ledger.TryConsume(consumeCtx, userID, periodKey, s.limit)
	if err != nil {
		s.metrics.RecordLedgerFailure()
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "ledger consume failed, denying call",
				"user_id", userID, "period", periodKey, "error", err)
		}
		return models.Grant{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "usage ledger unavailable")
	}

	if !result.Allowed {
		span.SetAttributes(attribute.String("reason", string(models.ReasonQuotaExceeded)))
		s.metrics.RecordAuthorize(string(models.ReasonQuotaExceeded))
		s.logAudit(ctx, "quota_exceeded", userID, "period", periodKey, "limit", s.limit)
		return models.Grant{Allowed: false, Reason: models.ReasonQuotaExceeded}, nil
	}

	span.SetAttributes(attribute.String("reason", string(models.ReasonMetered)))
	s.metrics.RecordAuthorize(string(models.ReasonMetered))
	return models.Grant{Allowed: true, Reason: models.ReasonMetered, Remaining: result.Remaining}, nil
}

// Stats returns the usage snapshot for display. It reads the registry and the
// ledger without mutating either, so it is always consistent with the last
// consume decision.
func (s *Service) Stats(ctx context.Context, userID string) (models.Stats, error) {
	if userID == "" {
		return models.Stats{}, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}

	ctx, span := s.tracer.Start(ctx, "usage.Stats")
	defer span.End()

	bypass, err := s.registry.Has(ctx, userID)
	if err != nil {
		return models.Stats{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential registry unavailable")
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	counter, err := s.ledger.Get(readCtx, userID, s.clock.CurrentKey())
	if err != nil {
		return models.Stats{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "usage ledger unavailable")
	}

	used := 0
	if counter != nil {
		used = counter.CountUsed
	}
	remaining := s.limit - used
	if remaining < 0 {
		remaining = 0
	}

	return models.Stats{
		Used:         used,
		Limit:        s.limit,
		Remaining:    remaining,
		BypassActive: bypass,
	}, nil
}

func (s *Service) logAudit(ctx context.Context, action, userID string, attrs ...any) {
	if s.logger != nil {
		args := append(attrs, "user_id", userID, "event", action, "log_type", "audit")
		s.logger.InfoContext(ctx, action, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{UserID: userID, Action: action}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", action, "error", err)
	}
}
