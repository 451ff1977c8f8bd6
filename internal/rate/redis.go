package rate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindowLimiter is a fixed-window counter shared by every API instance.
type RedisWindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisWindowLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisWindowLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *RedisWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	current, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if current == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, err
		}
	}
	return current <= int64(l.limit), nil
}
