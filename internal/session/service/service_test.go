package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgate/internal/session/models"
)

type stubProvider struct {
	identity  models.Identity
	refreshed string
	err       error
	delay     time.Duration
}

func (s *stubProvider) GetSession(ctx context.Context, _ string) (models.Identity, string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return models.Anonymous, "", ctx.Err()
		}
	}
	return s.identity, s.refreshed, s.err
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("empty credentials are anonymous without a provider call", func(t *testing.T) {
		v, err := New(&stubProvider{err: errors.New("should not be called")})
		require.NoError(t, err)

		result := v.Validate(ctx, models.Credentials{})
		assert.True(t, result.Identity.IsAnonymous())
	})

	t.Run("valid session resolves identity", func(t *testing.T) {
		v, err := New(&stubProvider{identity: models.Identity{UserID: "user-1"}})
		require.NoError(t, err)

		result := v.Validate(ctx, models.Credentials{Token: "tok"})
		assert.Equal(t, "user-1", result.Identity.UserID)
		assert.Empty(t, result.RefreshedToken)
	})

	t.Run("rotated credential propagates", func(t *testing.T) {
		v, err := New(&stubProvider{
			identity:  models.Identity{UserID: "user-1"},
			refreshed: "rotated-token",
		})
		require.NoError(t, err)

		result := v.Validate(ctx, models.Credentials{Token: "tok"})
		assert.Equal(t, "rotated-token", result.RefreshedToken)
	})

	t.Run("provider failure resolves to anonymous", func(t *testing.T) {
		v, err := New(&stubProvider{err: errors.New("provider down")})
		require.NoError(t, err)

		result := v.Validate(ctx, models.Credentials{Token: "tok"})
		assert.True(t, result.Identity.IsAnonymous())
	})

	t.Run("provider timeout resolves to anonymous", func(t *testing.T) {
		v, err := New(
			&stubProvider{identity: models.Identity{UserID: "user-1"}, delay: time.Second},
			WithTimeout(10*time.Millisecond),
		)
		require.NoError(t, err)

		result := v.Validate(ctx, models.Credentials{Token: "tok"})
		assert.True(t, result.Identity.IsAnonymous())
	})
}

func TestNew_RequiresProvider(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
