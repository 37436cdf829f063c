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

type RedisCounterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *counter.RedisCounterStore
}

func TestRedisCounterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCounterSuite))
}

func (s *RedisCounterSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = counter.NewRedis(s.redis.Client)
}

func (s *RedisCounterSuite) SetupTest() {
	s.Require().NoError(s.redis.Client.FlushAll(context.Background()).Err())
}

func (s *RedisCounterSuite) TestConsumeUpToLimit() {
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
	s.Equal(3, c.CountUsed)
}

func (s *RedisCounterSuite) TestConcurrentConsume() {
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

func (s *RedisCounterSuite) TestGetMissingCounter() {
	c, err := s.store.Get(context.Background(), "nobody", "2025-06-01")
	s.Require().NoError(err)
	s.Nil(c)
}
