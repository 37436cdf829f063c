//go:build integration

package counter_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"chatgate/internal/usage/store/counter"
	"chatgate/pkg/testutil/containers"
)

type PostgresCounterSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *counter.PostgresCounterStore
}

func TestPostgresCounterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresCounterSuite))
}

func (s *PostgresCounterSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = counter.NewPostgres(s.postgres.DB)
}

func (s *PostgresCounterSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "usage_counters"))
}

func (s *PostgresCounterSuite) TestConsumeUpToLimit() {
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := s.store.TryConsume(ctx, "user-1", "2025-06-01", 3)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(3-i, res.Remaining)
	}

	res, err := s.store.TryConsume(ctx, "user-1", "2025-06-01", 3)
	s.Require().NoError(err)
	s.False(res.Allowed)

	c, err := s.store.Get(ctx, "user-1", "2025-06-01")
	s.Require().NoError(err)
	s.Require().NotNil(c)
	s.Equal(3, c.CountUsed, "denied consume must not mutate the counter")
}

// TestConcurrentConsume verifies that the conditional upsert enforces the
// limit under contention: exactly `limit` of the concurrent calls succeed.
func (s *PostgresCounterSuite) TestConcurrentConsume() {
	ctx := context.Background()
	const goroutines = 50
	const limit = 10

	var wg sync.WaitGroup
	var allowed atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.TryConsume(ctx, "user-1", "2025-06-01", limit)
			s.Require().NoError(err)
			if res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(limit), allowed.Load())
}

func (s *PostgresCounterSuite) TestPeriodsAreIndependent() {
	ctx := context.Background()

	res, err := s.store.TryConsume(ctx, "user-1", "2025-06-01", 1)
	s.Require().NoError(err)
	s.True(res.Allowed)

	res, err = s.store.TryConsume(ctx, "user-1", "2025-06-01", 1)
	s.Require().NoError(err)
	s.False(res.Allowed)

	// A new period starts fresh while the prior row is retained.
	res, err = s.store.TryConsume(ctx, "user-1", "2025-06-02", 1)
	s.Require().NoError(err)
	s.True(res.Allowed)

	prior, err := s.store.Get(ctx, "user-1", "2025-06-01")
	s.Require().NoError(err)
	s.Require().NotNil(prior)
	s.Equal(1, prior.CountUsed)
}

func (s *PostgresCounterSuite) TestGetMissingCounter() {
	c, err := s.store.Get(context.Background(), "nobody", "2025-06-01")
	s.Require().NoError(err)
	s.Nil(c)
}
