package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	redisclient "github.com/redis/go-redis/v9"

	"pohrebni-vence.cz/storefront/pkg/global"
)

// NewClient connects to the server at url. A token, as issued by hosted
// providers, overrides any password in the URL.
func NewClient(url, token string) (redisclient.UniversalClient, error) {
	opts, err := redisclient.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if token != "" {
		opts.Password = token
	}
	opts.Protocol = 2
	return redisclient.NewClient(opts), nil
}

// NewStore builds the cache store described by cfg. Without REDIS_URL an
// in-memory store is used. Every call is bounded by cfg.CacheTimeout.
func NewStore(ctx context.Context, cfg *global.Config, logger *slog.Logger) (Store, error) {
	if cfg.RedisURL == "" {
		if cfg.IsProduction() {
			logger.Warn("REDIS_URL not set, using in-memory cart cache")
		} else {
			logger.Info("using in-memory cart cache")
		}
		return WithTimeout(NewMemoryStore(), cfg.CacheTimeout), nil
	}

	client, err := NewClient(cfg.RedisURL, cfg.RedisToken)
	if err != nil {
		return nil, err
	}
	store := WithTimeout(NewRedisStore(client), cfg.CacheTimeout)
	if err := store.Ping(ctx); err != nil {
		// the cache is optional; requests fall back to the database
		logger.Warn("cache ping failed", "error", err)
	}
	return store, nil
}

var setIfCounter = redisclient.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[2] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// RedisStore implements Store on a go-redis client.
type RedisStore struct {
	client redisclient.UniversalClient
}

func NewRedisStore(client redisclient.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisclient.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return s.client.Del(ctx, keys...).Result()
}

func (s *RedisStore) Exists(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return s.client.Exists(ctx, keys...).Result()
}

func (s *RedisStore) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[i] = []byte(str)
		}
	}
	return out, nil
}

// MSet writes all values in one transaction. MSET has no expiry, so each key
// gets its own SET with ttl.
func (s *RedisStore) MSet(ctx context.Context, values map[string][]byte, ttl time.Duration) error {
	if len(values) == 0 {
		return nil
	}
	pipe := s.client.TxPipeline()
	for key, value := range values {
		pipe.Set(ctx, key, value, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.Expire(ctx, key, ttl).Result()
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	switch ttl {
	case -2:
		return 0, ErrMiss
	case -1:
		return NoExpiry, nil
	}
	return ttl, nil
}

func (s *RedisStore) SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, args...)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisStore) SetIfCounter(ctx context.Context, key string, value []byte, ttl time.Duration, counterKey string, expected int64) (bool, error) {
	set, err := setIfCounter.Run(ctx, s.client, []string{key, counterKey},
		value, strconv.FormatInt(expected, 10), ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return set == 1, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
