package security

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NoiseLimiter counts malformed scans per terminal in a rolling window.
// A shelf barcode waved past the reader produces a burst of garbage; once
// the burst passes the limit the session widens its resume delay instead
// of hammering the feedback loop.
type NoiseLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewNoiseLimiter(redisClient *redis.Client, limit int, window time.Duration) *NoiseLimiter {
	return &NoiseLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// RecordInvalid registers one malformed scan and reports whether the
// terminal is over its noise budget. Redis being unreachable never blocks
// scanning; the limiter fails open.
func (n *NoiseLimiter) RecordInvalid(ctx context.Context, terminalID string) bool {
	if n.redis == nil {
		return false
	}

	key := fmt.Sprintf("noise:%s", terminalID)

	count, err := n.redis.Incr(ctx, key).Result()
	if err != nil {
		return false
	}
	if count == 1 {
		n.redis.Expire(ctx, key, n.window)
	}

	return count > int64(n.limit)
}
