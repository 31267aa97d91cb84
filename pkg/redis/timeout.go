package redis

import (
	"context"
	"time"
)

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout bounds every call to s by d. A non-positive d returns s as is.
func WithTimeout(s Store, d time.Duration) Store {
	if d <= 0 {
		return s
	}
	return &timeoutStore{next: s, timeout: d}
}

func (t *timeoutStore) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, t.timeout)
}

func (t *timeoutStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.Get(ctx, key)
}

func (t *timeoutStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.Set(ctx, key, value, ttl)
}

func (t *timeoutStore) Del(ctx context.Context, keys ...string) (int64, error) {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.Del(ctx, keys...)
}

func (t *timeoutStore) Exists(ctx context.Context, keys ...string) (int64, error) {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.Exists(ctx, keys...)
}

func (t *timeoutStore) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.MGet(ctx, keys...)
}

func (t *timeoutStore) MSet(ctx context.Context, values map[string][]byte, ttl time.Duration) error {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.MSet(ctx, values, ttl)
}

func (t *timeoutStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.Expire(ctx, key, ttl)
}

func (t *timeoutStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.TTL(ctx, key)
}

func (t *timeoutStore) SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.SAdd(ctx, key, ttl, members...)
}

func (t *timeoutStore) SMembers(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.SMembers(ctx, key)
}

func (t *timeoutStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.Incr(ctx, key, ttl)
}

func (t *timeoutStore) SetIfCounter(ctx context.Context, key string, value []byte, ttl time.Duration, counterKey string, expected int64) (bool, error) {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.SetIfCounter(ctx, key, value, ttl, counterKey, expected)
}

func (t *timeoutStore) Ping(ctx context.Context) error {
	ctx, cancel := t.ctx(ctx)
	defer cancel()
	return t.next.Ping(ctx)
}

func (t *timeoutStore) Close() error {
	return t.next.Close()
}
