// Package security counts failed account events per client and flags bursts.
package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Events observed by the account service.
const (
	EventLogin    = "account.login"
	EventRegister = "account.register"
	EventMe       = "account.me"
	EventComment  = "account.comment"

	OutcomeFail        = "fail"
	OutcomeRateLimited = "rate_limited"
)

var alertCounterScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// AlertResult is the evaluation of one observed event.
type AlertResult struct {
	Triggered bool
	Count     int64
	Threshold int64
	Window    time.Duration
}

// AuditAlerter keeps per-window counters in Redis. A nil alerter observes
// nothing.
type AuditAlerter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewAuditAlerter(client *redis.Client, prefix string) *AuditAlerter {
	if client == nil {
		return nil
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "kitapsever:account:alerts"
	}
	return &AuditAlerter{client: client, prefix: prefix, now: time.Now}
}

// Observe counts the event for ip and reports whether its rule's threshold
// has been reached in the current window.
func (a *AuditAlerter) Observe(ctx context.Context, event, outcome, ip string) (AlertResult, error) {
	result := AlertResult{}
	if a == nil {
		return result, nil
	}
	threshold, window, ok := alertRule(event, outcome)
	if !ok {
		return result, nil
	}
	windowMs := window.Milliseconds()
	slot := a.now().UTC().UnixMilli() / windowMs
	key := fmt.Sprintf("%s:%s:%s:%s:%d", a.prefix, segment(event), segment(outcome), segment(ip), slot)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := alertCounterScript.Run(ctx, a.client, []string{key}, windowMs).Int64()
	if err != nil {
		return result, err
	}
	result.Count = count
	result.Threshold = threshold
	result.Window = window
	result.Triggered = count >= threshold
	return result, nil
}

func alertRule(event, outcome string) (threshold int64, window time.Duration, ok bool) {
	switch outcome {
	case OutcomeRateLimited:
		return 20, time.Minute, true
	case OutcomeFail:
	default:
		return 0, 0, false
	}
	switch event {
	case EventLogin, EventRegister:
		return 10, 5 * time.Minute, true
	case EventMe, EventComment:
		return 25, 5 * time.Minute, true
	}
	return 0, 0, false
}

func segment(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}
	return strings.NewReplacer(":", "_", "|", "_", " ", "_").Replace(in)
}
