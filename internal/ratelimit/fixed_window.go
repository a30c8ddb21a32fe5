package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "kitapsever:ratelimit"

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindowLimiter counts hits per key in fixed windows shared through Redis.
type FixedWindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewFixedWindowLimiter builds a limiter on an existing client. Several
// limiters may share one client as long as their prefixes differ.
func NewFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if client == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	if limit <= 0 || window < time.Millisecond {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &FixedWindowLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}, nil
}

// Allow reports whether key is still within quota and, when it is not, how
// long until the current window closes. Redis failures deny the request.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l == nil {
		return false, 0
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	nowMs := l.now().UTC().UnixMilli()
	slot := nowMs / windowMs
	retryAfter := time.Duration((slot+1)*windowMs-nowMs) * time.Millisecond

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)
	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, retryAfter
	}
	if count > int64(l.limit) {
		return false, retryAfter
	}
	return true, 0
}
