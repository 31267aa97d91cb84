package redis

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get and TTL when the key does not exist.
var ErrMiss = errors.New("cache: key not found")

// NoExpiry is returned by TTL for keys that never expire.
const NoExpiry time.Duration = -1

// Store is the key-value backing store of the cart cache. Values are opaque
// bytes; callers encode JSON.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, keys ...string) (int64, error)
	// MGet returns one entry per key, nil for missing keys.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)
	MSet(ctx context.Context, values map[string][]byte, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	// SAdd adds members to the set at key and resets its expiry.
	SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	// Incr increments the counter at key and resets its expiry.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// SetIfCounter sets key only while the counter at counterKey equals
	// expected, a missing counter reading as 0. It reports whether key was set.
	SetIfCounter(ctx context.Context, key string, value []byte, ttl time.Duration, counterKey string, expected int64) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
