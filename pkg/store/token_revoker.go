package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker tracks revoked token ids (jti) until the token would expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryTokenRevoker keeps revoked ids in-memory (single instance only).
type MemoryTokenRevoker struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemoryTokenRevoker() *MemoryTokenRevoker {
	return &MemoryTokenRevoker{tokens: make(map[string]time.Time), now: time.Now}
}

func (r *MemoryTokenRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[jti] = r.now().Add(ttl)
	return nil
}

func (r *MemoryTokenRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiry, ok := r.tokens[jti]
	if !ok {
		return false, nil
	}
	if r.now().After(expiry) {
		delete(r.tokens, jti)
		return false, nil
	}
	return true, nil
}

// RedisTokenRevoker stores revoked ids in Redis with a TTL, so every replica
// of the account service sees a logout.
type RedisTokenRevoker struct {
	client *redis.Client
	prefix string
}

func NewRedisTokenRevoker(client *redis.Client, prefix string) *RedisTokenRevoker {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "kitapsever:revoked"
	}
	return &RedisTokenRevoker{client: client, prefix: prefix}
}

func (r *RedisTokenRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.key(jti), "1", ttl).Err()
}

func (r *RedisTokenRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisTokenRevoker) key(jti string) string {
	return r.prefix + ":" + jti
}

func newTokenID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return strings.ReplaceAll(time.Now().UTC().Format("20060102150405.000000000"), ".", "")
	}
	return hex.EncodeToString(buf)
}
