package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentKey(t *testing.T) {
	instant := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

	t.Run("UTC", func(t *testing.T) {
		clock, err := NewClock(time.UTC, WithNow(func() time.Time { return instant }))
		require.NoError(t, err)
		assert.Equal(t, "2025-06-01", clock.CurrentKey())
	})

	t.Run("timezone shifts the midnight boundary", func(t *testing.T) {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)

		clock, err := NewClock(tokyo, WithNow(func() time.Time { return instant }))
		require.NoError(t, err)
		// 23:30 UTC is already 08:30 next day in Tokyo.
		assert.Equal(t, "2025-06-02", clock.CurrentKey())
	})
}

func TestKeyAt_RollsOverAtLocalMidnight(t *testing.T) {
	beforeMidnight := time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC)
	afterMidnight := beforeMidnight.Add(time.Second)

	assert.Equal(t, "2025-06-01", KeyAt(beforeMidnight, time.UTC))
	assert.Equal(t, "2025-06-02", KeyAt(afterMidnight, time.UTC))
}

func TestNewClock_RequiresLocation(t *testing.T) {
	_, err := NewClock(nil)
	assert.Error(t, err)
}
