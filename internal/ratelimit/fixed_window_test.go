package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T, limit int, window time.Duration) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", limit, window)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	return limiter, mr
}

func TestFixedWindowLimiterBlocksOverLimit(t *testing.T) {
	limiter, _ := newLimiter(t, 2, time.Minute)
	ctx := context.Background()
	if ok, _ := limiter.Allow(ctx, "ip-1"); !ok {
		t.Fatalf("first request should pass")
	}
	if ok, _ := limiter.Allow(ctx, "ip-1"); !ok {
		t.Fatalf("second request should pass")
	}
	ok, retry := limiter.Allow(ctx, "ip-1")
	if ok {
		t.Fatalf("third request should be blocked")
	}
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("unexpected retry after %v", retry)
	}
	if ok, _ := limiter.Allow(ctx, "ip-2"); !ok {
		t.Fatalf("other keys keep their own quota")
	}
}

func TestFixedWindowLimiterResetsOnNextWindow(t *testing.T) {
	limiter, _ := newLimiter(t, 1, time.Minute)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "ip-1"); !ok {
		t.Fatalf("first request should pass")
	}
	if ok, _ := limiter.Allow(ctx, "ip-1"); ok {
		t.Fatalf("second request in window should be blocked")
	}
	limiter.now = func() time.Time { return base.Add(time.Minute) }
	if ok, _ := limiter.Allow(ctx, "ip-1"); !ok {
		t.Fatalf("request in next window should pass")
	}
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	limiter, mr := newLimiter(t, 1, time.Second)
	mr.Close()
	if ok, _ := limiter.Allow(context.Background(), "ip-1"); ok {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestNewFixedWindowLimiterValidates(t *testing.T) {
	if _, err := NewFixedWindowLimiter(nil, "", 1, time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	if _, err := NewFixedWindowLimiter(client, "", 0, time.Second); err == nil {
		t.Fatalf("expected error for zero limit")
	}
}
