package counter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"chatgate/internal/usage/models"
	"chatgate/pkg/sentinel"
)

const (
	// Redis key prefix for usage counters.
	counterKeyPrefix = "quota:"

	// counterTTL keeps recent periods around for stats and audit before Redis
	// garbage-collects them; the active period is always well inside it.
	counterTTL = 8 * 24 * time.Hour
)

// consumeScript performs the check-and-increment atomically server-side.
// Returns {allowed, used}.
var consumeScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local ttl = tonumber(ARGV[2])

	local used = tonumber(redis.call('GET', key) or '0')
	if used >= limit then
		return {0, used}
	end

	used = redis.call('INCR', key)
	if used == 1 then
		redis.call('EXPIRE', key, ttl)
	end
	return {1, used}
`)

// RedisCounterStore implements CounterStore on Redis. The Lua script runs
// atomically, so concurrent consumes for the same key serialize in Redis.
// Prior periods expire after counterTTL; durable history lives in Postgres.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) TryConsume(ctx context.Context, userID, periodKey string, limit int) (models.ConsumeResult, error) {
	key := redisKey(userID, periodKey)

	raw, err := consumeScript.Run(ctx, s.client, []string{key},
		limit, int(counterTTL.Seconds())).Slice()
	if err != nil {
		return models.ConsumeResult{}, fmt.Errorf("consume usage counter: %w (%w)", err, sentinel.ErrUnavailable)
	}
	if len(raw) != 2 {
		return models.ConsumeResult{}, fmt.Errorf("consume usage counter: unexpected script reply %v (%w)", raw, sentinel.ErrUnavailable)
	}

	allowed, err := toInt(raw[0])
	if err != nil {
		return models.ConsumeResult{}, fmt.Errorf("consume usage counter: %w (%w)", err, sentinel.ErrUnavailable)
	}
	used, err := toInt(raw[1])
	if err != nil {
		return models.ConsumeResult{}, fmt.Errorf("consume usage counter: %w (%w)", err, sentinel.ErrUnavailable)
	}

	if allowed == 0 {
		return models.ConsumeResult{Allowed: false, Remaining: 0}, nil
	}
	return models.ConsumeResult{Allowed: true, Remaining: limit - used}, nil
}

func (s *RedisCounterStore) Get(ctx context.Context, userID, periodKey string) (*models.Counter, error) {
	raw, err := s.client.Get(ctx, redisKey(userID, periodKey)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get usage counter: %w (%w)", err, sentinel.ErrUnavailable)
	}

	used, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("get usage counter: corrupt value %q: %w", raw, err)
	}
	return &models.Counter{UserID: userID, PeriodKey: periodKey, CountUsed: used}, nil
}

func redisKey(userID, periodKey string) string {
	return counterKeyPrefix + userID + ":" + periodKey
}

func toInt(v any) (int, error) {
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("expected int64 reply, got %T", v)
	}
	return int(n), nil
}
