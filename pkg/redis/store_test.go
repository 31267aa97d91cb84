package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pohrebni-vence.cz/storefront/pkg/models"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	n, err := s.Exists(ctx, "k", "missing")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Del(ctx, "k", "k")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Del(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.SetClock(func() time.Time { return now })

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Hour))
	ttl, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	now = now.Add(time.Hour)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.TTL(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "forever", []byte("v"), 0))
	ttl, err = s.TTL(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, NoExpiry, ttl)

	ok, err := s.Expire(ctx, "forever", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ttl, _ = s.TTL(ctx, "forever")
	assert.Equal(t, time.Minute, ttl)
}

func TestMemoryStoreMulti(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.MSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, time.Minute))
	vals, err := s.MGet(ctx, "a", "x", "b")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("1"), nil, []byte("2")}, vals)
}

func TestMemoryStoreSets(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	members, err := s.SMembers(ctx, "set")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, s.SAdd(ctx, "set", time.Hour, "b", "a"))
	require.NoError(t, s.SAdd(ctx, "set", time.Hour, "a", "c"))
	members, err = s.SMembers(ctx, "set")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, members)

	_, err = s.Get(ctx, "set")
	assert.Error(t, err)
}

func TestMemoryStoreIncr(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()
	s.SetClock(func() time.Time { return now })

	n, err := s.Incr(ctx, "gen", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = s.Incr(ctx, "gen", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := s.Get(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))

	now = now.Add(time.Minute)
	n, err = s.Incr(ctx, "gen", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "expired counter restarts")

	require.NoError(t, s.Set(ctx, "text", []byte("abc"), 0))
	_, err = s.Incr(ctx, "text", time.Minute)
	assert.Error(t, err)
	require.NoError(t, s.SAdd(ctx, "set", 0, "a"))
	_, err = s.Incr(ctx, "set", time.Minute)
	assert.Error(t, err)
}

func TestMemoryStoreSetIfCounter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	set, err := s.SetIfCounter(ctx, "snap", []byte("v0"), time.Minute, "gen", 0)
	require.NoError(t, err)
	assert.True(t, set, "missing counter reads as zero")

	_, err = s.Incr(ctx, "gen", time.Minute)
	require.NoError(t, err)
	set, err = s.SetIfCounter(ctx, "snap", []byte("stale"), time.Minute, "gen", 0)
	require.NoError(t, err)
	assert.False(t, set)
	got, _ := s.Get(ctx, "snap")
	assert.Equal(t, "v0", string(got))

	set, err = s.SetIfCounter(ctx, "snap", []byte("v1"), time.Minute, "gen", 1)
	require.NoError(t, err)
	assert.True(t, set)
	got, _ = s.Get(ctx, "snap")
	assert.Equal(t, "v1", string(got))
}

func TestWithTimeoutPassesThrough(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	s := WithTimeout(mem, time.Second)

	require.NoError(t, SetJSON(ctx, s, "k", map[string]int{"n": 3}, time.Minute))
	var got map[string]int
	found, err := GetJSON(ctx, s, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got["n"])

	found, err = GetJSON(ctx, s, "other", &got)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Same(t, mem, WithTimeout(mem, 0))
}

func TestCustomizationHashIsOrderIndependent(t *testing.T) {
	a := []models.Customization{
		{OptionID: "size", ChoiceIDs: []string{"size_40"}},
		{OptionID: "flowers", ChoiceIDs: []string{"roses", "lilies"}},
	}
	b := []models.Customization{
		{OptionID: "flowers", ChoiceIDs: []string{"lilies", "roses"}},
		{OptionID: "size", ChoiceIDs: []string{"size_40"}},
	}

	ka, err := PriceKey("p1", a)
	require.NoError(t, err)
	kb, err := PriceKey("p1", b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
	assert.Contains(t, ka, "cart:price:p1:")

	// input is not reordered in place
	assert.Equal(t, "roses", a[1].ChoiceIDs[0])

	kc, _ := PriceKey("p1", a[:1])
	assert.NotEqual(t, ka, kc)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cart:config:u1", CartConfigKey("u1"))
	assert.Equal(t, "cart:price-keys:u1", PriceKeysKey("u1"))
	assert.Equal(t, "cart:gen:user:u1", CartGenerationKey("user:u1"))
	assert.Equal(t, "payment:session:s1", PaymentSessionKey("s1"))
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewClient(url, "")
	require.NoError(t, err)
	s := NewRedisStore(client)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	key := "test:store:" + t.Name()
	setKey := key + ":set"
	defer s.Del(ctx, key, setKey)

	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.TTL(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, key, []byte("v"), time.Minute))
	vals, err := s.MGet(ctx, key, key+":missing")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("v"), nil}, vals)

	require.NoError(t, s.SAdd(ctx, setKey, time.Minute, "a", "b"))
	members, err := s.SMembers(ctx, setKey)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)
	ttl, err := s.TTL(ctx, setKey)
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	genKey := key + ":gen"
	defer s.Del(ctx, genKey)
	n, err := s.Incr(ctx, genKey, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	ttl, err = s.TTL(ctx, genKey)
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	set, err := s.SetIfCounter(ctx, key, []byte("stale"), time.Minute, genKey, 0)
	require.NoError(t, err)
	assert.False(t, set)
	set, err = s.SetIfCounter(ctx, key, []byte("fresh"), time.Minute, genKey, 1)
	require.NoError(t, err)
	assert.True(t, set)
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), got)
}
