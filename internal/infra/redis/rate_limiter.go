package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter bounds job submissions per client using a counter with a
// rolling expiry window.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

// SubmitKey scopes the limit to one remote address.
func SubmitKey(remoteAddr string) string {
	return fmt.Sprintf("rate_limit:submit:%s", remoteAddr)
}
