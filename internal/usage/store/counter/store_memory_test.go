package counter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCounterStore_TryConsume(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	t.Run("first call of a period creates the counter lazily", func(t *testing.T) {
		res, err := store.TryConsume(ctx, "user-1", "2025-06-01", 5)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 4, res.Remaining)
	})

	t.Run("denies without mutation once the limit is reached", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			res, err := store.TryConsume(ctx, "user-1", "2025-06-01", 5)
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		}

		res, err := store.TryConsume(ctx, "user-1", "2025-06-01", 5)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)

		c, err := store.Get(ctx, "user-1", "2025-06-01")
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, 5, c.CountUsed, "denied calls must not mutate the counter")
	})

	t.Run("a new period starts a fresh counter and retains the prior one", func(t *testing.T) {
		res, err := store.TryConsume(ctx, "user-1", "2025-06-02", 5)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 4, res.Remaining)

		prior, err := store.Get(ctx, "user-1", "2025-06-01")
		require.NoError(t, err)
		require.NotNil(t, prior)
		assert.Equal(t, 5, prior.CountUsed)
	})

	t.Run("Get for an untouched period returns nil", func(t *testing.T) {
		c, err := store.Get(ctx, "user-2", "2025-06-01")
		require.NoError(t, err)
		assert.Nil(t, c)
	})
}

// TestInMemoryCounterStore_ConcurrentConsume verifies the central correctness
// property: for N concurrent consumes with limit L, exactly min(N, L) succeed.
func TestInMemoryCounterStore_ConcurrentConsume(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	const goroutines = 100
	const limit = 10

	var wg sync.WaitGroup
	var allowed atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.TryConsume(ctx, "user-1", "2025-06-01", limit)
			assert.NoError(t, err)
			if res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(limit), allowed.Load(), "exactly limit consumes may succeed")

	c, err := store.Get(ctx, "user-1", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, limit, c.CountUsed)
}
