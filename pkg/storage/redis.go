package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "kitapsever:storage"

// RedisStorage stores keys under a namespace prefix so one Redis can hold
// several profiles.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisStorage(ctx context.Context, addr, password, prefix string) (*RedisStorage, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStorageWithClient(client, prefix), nil
}

func NewRedisStorageWithClient(client *redis.Client, prefix string) *RedisStorage {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStorage{client: client, prefix: strings.TrimSuffix(prefix, ":") + ":"}
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		if strings.Contains(err.Error(), "OOM") {
			return fmt.Errorf("set %q: %w", key, ErrQuotaExceeded)
		}
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
