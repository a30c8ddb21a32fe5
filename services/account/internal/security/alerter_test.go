package security

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newAlerter(t *testing.T) *AuditAlerter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAuditAlerter(client, "test:alerts")
}

func TestObserveTriggersAtThreshold(t *testing.T) {
	alerter := newAlerter(t)
	ctx := context.Background()
	for i := 1; i <= 10; i++ {
		result, err := alerter.Observe(ctx, EventLogin, OutcomeFail, "127.0.0.1")
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		if want := i >= 10; result.Triggered != want {
			t.Fatalf("attempt %d: triggered=%v", i, result.Triggered)
		}
	}
	result, _ := alerter.Observe(ctx, EventLogin, OutcomeFail, "10.0.0.1")
	if result.Triggered || result.Count != 1 {
		t.Fatalf("other clients count separately, got %+v", result)
	}
}

func TestObserveNewWindowResets(t *testing.T) {
	alerter := newAlerter(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	alerter.now = func() time.Time { return base }
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		_, _ = alerter.Observe(ctx, EventRegister, OutcomeRateLimited, "ip")
	}
	alerter.now = func() time.Time { return base.Add(time.Minute) }
	result, err := alerter.Observe(ctx, EventRegister, OutcomeRateLimited, "ip")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if result.Count != 1 || result.Triggered {
		t.Fatalf("expected a fresh window, got %+v", result)
	}
}

func TestObserveIgnoresUnknownRulesAndNil(t *testing.T) {
	alerter := newAlerter(t)
	result, err := alerter.Observe(context.Background(), EventLogin, "success", "ip")
	if err != nil || result.Triggered || result.Count != 0 {
		t.Fatalf("unexpected result %+v %v", result, err)
	}
	var none *AuditAlerter
	if _, err := none.Observe(context.Background(), EventLogin, OutcomeFail, "ip"); err != nil {
		t.Fatalf("nil alerter: %v", err)
	}
	if NewAuditAlerter(nil, "") != nil {
		t.Fatalf("expected nil alerter without a client")
	}
}
