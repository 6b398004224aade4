package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
)

const defaultRateLimitPrefix = "learnhub:ratelimit"

// LoginRateLimiter throttles credential-facing endpoints with per-identifier
// sliding windows persisted in Redis sorted sets.
type LoginRateLimiter struct {
	client *red.Client
	prefix string
	window time.Duration
	limit  int
}

// NewLoginRateLimiter constructs a limiter allowing limit attempts per window.
func NewLoginRateLimiter(client *red.Client, keyPrefix string, window time.Duration, limit int) *LoginRateLimiter {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRateLimitPrefix
	}

	return &LoginRateLimiter{client: client, prefix: prefix, window: window, limit: limit}
}

// Allow records an attempt for the identifier and reports whether it stays
// within the window's budget.
func (l *LoginRateLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	if strings.TrimSpace(identifier) == "" {
		return false, fmt.Errorf("identifier is required")
	}
	if l.window <= 0 || l.limit <= 0 {
		return true, nil
	}

	key := l.prefix + ":" + identifier
	now := time.Now().UTC()
	threshold := fmt.Sprintf("%d", now.Add(-l.window).UnixNano())

	if err := l.client.ZRemRangeByScore(ctx, key, "-inf", threshold).Err(); err != nil {
		return false, fmt.Errorf("redis zremrangebyscore: %w", err)
	}

	count, err := l.client.ZCard(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis zcard: %w", err)
	}
	if count >= int64(l.limit) {
		return false, nil
	}

	member := red.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()}
	if err := l.client.ZAdd(ctx, key, member).Err(); err != nil {
		return false, fmt.Errorf("redis zadd: %w", err)
	}
	if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
		return false, fmt.Errorf("redis expire: %w", err)
	}

	return true, nil
}
