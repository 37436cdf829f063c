package memory

import (
	"context"
	"sync"

	"chatgate/internal/credentials/models"
)

// Store is an in-memory credential registry for tests and dev mode.
type Store struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

func New() *Store {
	return &Store{
		records: make(map[string]models.Record),
	}
}

// Get returns the record for a user, or nil when absent.
func (s *Store) Get(_ context.Context, userID string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, exists := s.records[userID]; exists {
		copied := record
		return &copied, nil
	}
	return nil, nil
}

// Upsert creates or replaces the record for a user.
func (s *Store) Upsert(_ context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.UserID] = record
	return nil
}

// Delete removes the record for a user. Deleting a missing record is a no-op.
func (s *Store) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userID)
	return nil
}
