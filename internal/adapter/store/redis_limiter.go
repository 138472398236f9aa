package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const usagePrefix = "usage:"

// RedisLimiter keeps a per-client budget of Gemini tokens.
type RedisLimiter struct {
	client *redis.Client
	limit  int // Max tokens allowed
	window time.Duration
}

// NewRedisLimiter returns a limiter; a zero window keeps usage forever.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (r *RedisLimiter) CheckLimit(ctx context.Context, clientID string) (bool, error) {
	val, err := r.client.Get(ctx, usagePrefix+clientID).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil // No usage yet
	}
	if err != nil {
		return false, err
	}
	usage, err := strconv.Atoi(val)
	if err != nil {
		return false, err
	}
	return usage < r.limit, nil
}

func (r *RedisLimiter) Increment(ctx context.Context, clientID string, tokens int) error {
	key := usagePrefix + clientID
	usage, err := r.client.IncrBy(ctx, key, int64(tokens)).Result()
	if err != nil {
		return err
	}
	// first write of the window starts the expiry clock
	if r.window > 0 && usage == int64(tokens) {
		return r.client.Expire(ctx, key, r.window).Err()
	}
	return nil
}
