package limiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

const redisTimeout = 300 * time.Millisecond

// Limiter is a fixed-window per-client request counter backed by redis.
type Limiter struct {
	Redis    *redis.Client
	Limit    int
	FailOpen bool
}

// Allow increments the caller's counter for the current minute window and
// reports whether the request is within the limit.
func (l *Limiter) Allow(ctx context.Context, client string) (bool, error) {
	key := windowKey(client)

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	val, err := l.Redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("can't increment client counter: %w", err)
	}

	if val == 1 {
		if err := l.Redis.Expire(ctx, key, 2*time.Minute).Err(); err != nil {
			return false, fmt.Errorf("can't set counter expiration: %w", err)
		}
	}

	return val <= int64(l.Limit), nil
}

// windowKey is the client id concatenated with the current timestamp rounded
// down to the minute, so each minute gets a fresh counter.
func windowKey(client string) string {
	now := time.Now().Truncate(time.Minute).Unix()
	return keyPrefix + client + ":" + strconv.FormatInt(now, 10)
}
