package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit"

// Limiter is a fixed window request counter per client IP and purpose,
// backed by Redis.
type Limiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
}

func NewLimiter(client redis.Cmdable, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("%s:%s:ip:%s", keyPrefix, purpose, ip)
}

// AllowIPRequestWithPurpose counts one request for ip and reports whether it
// fits in the current window. The counter and its TTL go out in one
// MULTI/EXEC; EXPIRE NX is sent every time so a key that lost its TTL gets
// one back on the next request.
func (l *Limiter) AllowIPRequestWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	key := ipKey(ip, purpose)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to count rate limited request: %w", err)
	}

	return incr.Val() <= int64(l.limit), nil
}
