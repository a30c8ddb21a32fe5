// Package storage provides the string key/value store the site keeps its
// client-side state in: cache entries, reading lists, reviews, chat logs and
// the session.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrQuotaExceeded is returned by bounded backends when a write does not fit.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Storage is a flat string key/value store.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Driver        string
	Path          string
	QuotaBytes    int // memory driver only
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
}

// Open returns the backend named by opts.Driver and a close func.
func Open(ctx context.Context, opts Options) (Storage, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverMemory:
		return NewMemoryStorage(opts.QuotaBytes), noop, nil
	case DriverFile:
		s, err := NewFileStorage(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case DriverRedis:
		s, err := NewRedisStorage(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

// KeysWithPrefix lists the keys of s starting with any of prefixes.
func KeysWithPrefix(ctx context.Context, s Storage, prefixes ...string) ([]string, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				out = append(out, key)
				break
			}
		}
	}
	return out, nil
}
