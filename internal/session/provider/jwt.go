// Package provider implements identity providers behind the narrow GetSession
// capability the validator depends on, so any session-backed auth system can
// be substituted.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chatgate/internal/session/models"
	"chatgate/pkg/sentinel"
)

const issuer = "chatgate"

// JWT validates HMAC-signed session tokens and transparently re-signs tokens
// entering their refresh window, rotating the credential without a new sign-in.
type JWT struct {
	signingKey    []byte
	ttl           time.Duration
	refreshWindow time.Duration
	now           func() time.Time
}

type Option func(*JWT)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(p *JWT) {
		p.now = now
	}
}

func NewJWT(signingKey string, ttl, refreshWindow time.Duration, opts ...Option) (*JWT, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("signing key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}

	p := &JWT{
		signingKey:    []byte(signingKey),
		ttl:           ttl,
		refreshWindow: refreshWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Issue signs a fresh session token for a user. The sign-in flow (outside this
// core) calls this after the user proves who they are.
func (p *JWT) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	now := p.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// GetSession resolves a credential to an identity. When the token is inside
// its refresh window a rotated credential is returned alongside the identity.
// Invalid and expired tokens surface sentinel errors; the validator treats
// every error as anonymous.
func (p *JWT) GetSession(_ context.Context, credential string) (models.Identity, string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, p.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Anonymous, "", sentinel.ErrExpired
		}
		return models.Anonymous, "", fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return models.Anonymous, "", sentinel.ErrNotFound
	}

	identity := models.Identity{UserID: claims.Subject}

	if p.refreshWindow > 0 && claims.ExpiresAt != nil {
		remaining := claims.ExpiresAt.Time.Sub(p.now())
		if remaining < p.refreshWindow {
			refreshed, err := p.Issue(claims.Subject)
			if err != nil {
				// The current token is still valid; keep the session alive
				// and let a later request retry the rotation.
				return identity, "", nil
			}
			return identity, refreshed, nil
		}
	}

	return identity, "", nil
}

func (p *JWT) keyFunc(*jwt.Token) (any, error) {
	return p.signingKey, nil
}
