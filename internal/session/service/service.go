package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatgate/internal/session/models"
)

// IdentityProvider is the narrow capability the validator depends on. It hides
// whichever session-backed auth system is in use; the provider may rotate the
// credential, in which case the refreshed token is returned.
type IdentityProvider interface {
	GetSession(ctx context.Context, credential string) (models.Identity, string, error)
}

const defaultTimeout = 3 * time.Second

// Validator resolves request credentials to an identity. It fails closed:
// provider errors, timeouts, and bad tokens all resolve to anonymous rather
// than surfacing an error to the route decision.
type Validator struct {
	provider IdentityProvider
	timeout  time.Duration
	logger   *slog.Logger
}

type Option func(*Validator)

func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithTimeout bounds the identity provider call.
func WithTimeout(timeout time.Duration) Option {
	return func(v *Validator) {
		v.timeout = timeout
	}
}

func New(provider IdentityProvider, opts ...Option) (*Validator, error) {
	if provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}

	v := &Validator{
		provider: provider,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate resolves credentials to an identity, never returning an error.
func (v *Validator) Validate(ctx context.Context, creds models.Credentials) models.Result {
	if creds.IsEmpty() {
		return models.Result{Identity: models.Anonymous}
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	identity, refreshed, err := v.provider.GetSession(ctx, creds.Token)
	if err != nil {
		if v.logger != nil {
			v.logger.DebugContext(ctx, "session validation failed, treating as anonymous", "error", err)
		}
		return models.Result{Identity: models.Anonymous}
	}

	return models.Result{Identity: identity, RefreshedToken: refreshed}
}
