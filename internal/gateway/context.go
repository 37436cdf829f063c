package gateway

import (
	"context"

	"chatgate/internal/session/models"
)

type contextKeyIdentity struct{}

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, identity)
}

// IdentityFrom retrieves the identity placed by the gateway middleware.
// Returns anonymous when the middleware did not run or the request carried
// no valid session.
func IdentityFrom(ctx context.Context) models.Identity {
	identity, ok := ctx.Value(contextKeyIdentity{}).(models.Identity)
	if !ok {
		return models.Anonymous
	}
	return identity
}
