package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgate/internal/credentials/models"
)

func TestStore(t *testing.T) {
	store := New()
	ctx := context.Background()

	t.Run("Get for missing user returns nil", func(t *testing.T) {
		record, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("Upsert then Get round-trips", func(t *testing.T) {
		record := models.Record{UserID: "user-1", Fingerprint: "fp-1", UpdatedAt: time.Now()}
		require.NoError(t, store.Upsert(ctx, record))

		got, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "fp-1", got.Fingerprint)
	})

	t.Run("Upsert replaces the existing record", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, models.Record{UserID: "user-1", Fingerprint: "fp-2"}))

		got, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "fp-2", got.Fingerprint)
	})

	t.Run("Get returns a copy the caller cannot mutate in place", func(t *testing.T) {
		got, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		got.Fingerprint = "mutated"

		again, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "fp-2", again.Fingerprint)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "user-1"))
		require.NoError(t, store.Delete(ctx, "user-1"))

		record, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Nil(t, record)
	})
}

func TestStore_Concurrent(t *testing.T) {
	store := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Upsert(ctx, models.Record{UserID: "user-1", Fingerprint: "fp"})
			_, _ = store.Get(ctx, "user-1")
			_ = store.Delete(ctx, "user-1")
		}()
	}
	wg.Wait()
}
