package counter

import (
	"context"
	"sync"

	"chatgate/internal/usage/models"
)

type counterKey struct {
	userID    string
	periodKey string
}

// InMemoryCounterStore implements CounterStore for tests and dev mode.
// The mutex makes check-and-increment atomic within the process; distributed
// deployments need the Postgres or Redis store.
type InMemoryCounterStore struct {
	mu       sync.Mutex
	counters map[counterKey]*models.Counter
}

func NewInMemory() *InMemoryCounterStore {
	return &InMemoryCounterStore{
		counters: make(map[counterKey]*models.Counter),
	}
}

func (s *InMemoryCounterStore) TryConsume(_ context.Context, userID, periodKey string, limit int) (models.ConsumeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := counterKey{userID: userID, periodKey: periodKey}
	c, exists := s.counters[key]
	if !exists {
		c = &models.Counter{UserID: userID, PeriodKey: periodKey, Limit: limit}
		s.counters[key] = c
	}
	c.Limit = limit

	if c.CountUsed >= limit {
		return models.ConsumeResult{Allowed: false, Remaining: 0}, nil
	}

	c.CountUsed++
	return models.ConsumeResult{Allowed: true, Remaining: limit - c.CountUsed}, nil
}

func (s *InMemoryCounterStore) Get(_ context.Context, userID, periodKey string) (*models.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.counters[counterKey{userID: userID, periodKey: periodKey}]
	if !exists {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}
