// Package ports defines shared interfaces for the usage module. Interfaces
// live here when consumed by the service and implemented by several stores.
package ports

import (
	"context"

	"chatgate/internal/usage/models"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// CounterStore is the quota ledger's persistence capability. TryConsume must
// be atomic at the storage layer: under concurrent calls for the same
// (user, period), at most `limit` calls may ever succeed.
type CounterStore interface {
	// TryConsume performs a single atomic check-and-increment. A counter is
	// created lazily on the first call of a new period. When the counter has
	// reached the limit nothing is mutated and Allowed is false.
	TryConsume(ctx context.Context, userID, periodKey string, limit int) (models.ConsumeResult, error)

	// Get returns the counter for (user, period) without mutating it,
	// or nil when no call has been made in that period.
	Get(ctx context.Context, userID, periodKey string) (*models.Counter, error)
}

// CredentialChecker answers whether a user registered a personal provider
// credential (the quota bypass gate).
type CredentialChecker interface {
	Has(ctx context.Context, userID string) (bool, error)
}
