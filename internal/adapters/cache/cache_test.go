package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Days  map[string]int `json:"days"`
	Total int            `json:"total"`
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

type brokenStore struct{}

var errBackend = errors.New("backend down")

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errBackend }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errBackend
}
func (brokenStore) Incr(context.Context, string) (int64, error)         { return 0, errBackend }
func (brokenStore) Expire(context.Context, string, time.Duration) error { return errBackend }
func (brokenStore) TTL(context.Context, string) (time.Duration, error)  { return 0, errBackend }

func TestConnect(t *testing.T) {
	assert.Nil(t, Connect(RedisConfig{}))

	client := Connect(RedisConfig{Addr: "127.0.0.1:6379", DB: 2})
	require.NotNil(t, client)
	assert.Equal(t, 2, client.Options().DB)
	_ = client.Close()
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	ttl, err := store.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(2 * time.Minute)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := store.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = store.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, store.Expire(ctx, "counter", 30*time.Second))
	assert.Equal(t, 30*time.Second, mr.TTL("counter"))

	_, err = store.Incr(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, store.Expire(ctx, "counter", 0), ErrInvalidTTL)
	require.NoError(t, store.Ping(ctx))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "activity:github:austinmrobinson:2024", SourceKey(KeyspaceGithub, "AustinMRobinson", 2024))
	assert.Equal(t, "activity:strava:13603808:2023", SourceKey(KeyspaceStrava, "13603808", 2023))
	assert.Equal(t, "activity:combined:2024", CombinedKey(2024))
	assert.Equal(t, "strava:token:13603808", TokenKey("13603808"))
}

func TestThroughReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	policy := NewPolicy(store)
	require.True(t, policy.Enabled())

	calls := 0
	fetch := func(context.Context) (payload, error) {
		calls++
		return payload{Days: map[string]int{"2024-01-02": 3}, Total: 3}, nil
	}

	key := SourceKey(KeyspaceGithub, "someone", 2024)
	first, cached, err := Through(ctx, policy, KeyspaceGithub, key, GithubTTL, fetch)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 3, first.Total)
	assert.Equal(t, GithubTTL, mr.TTL(key))

	second, cached, err := Through(ctx, policy, KeyspaceGithub, key, GithubTTL, fetch)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	mr.FastForward(GithubTTL + time.Second)
	_, cached, err = Through(ctx, policy, KeyspaceGithub, key, GithubTTL, fetch)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, calls)
}

func TestThroughNeverCachesFailures(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	policy := NewPolicy(store)
	boom := errors.New("upstream 502")

	_, cached, err := Through(ctx, policy, KeyspaceOsrs, "activity:osrs:x:2024", OsrsTTL, func(context.Context) (payload, error) {
		return payload{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, cached)
	assert.False(t, mr.Exists("activity:osrs:x:2024"))
}

func TestThroughDegradesWithoutBackend(t *testing.T) {
	ctx := context.Background()
	calls := 0
	fetch := func(context.Context) (payload, error) {
		calls++
		return payload{Total: calls}, nil
	}

	for _, policy := range []*Policy{nil, NewPolicy(nil), NewPolicy(brokenStore{})} {
		calls = 0
		for i := 0; i < 2; i++ {
			v, cached, err := Through(ctx, policy, KeyspaceCombined, CombinedKey(2024), CombinedTTL, fetch)
			require.NoError(t, err)
			assert.False(t, cached)
			assert.Equal(t, i+1, v.Total)
		}
	}
}

func TestThroughTreatsCorruptPayloadAsMiss(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("activity:combined:2024", "{not json"))

	v, cached, err := Through(ctx, NewPolicy(store), KeyspaceCombined, CombinedKey(2024), CombinedTTL, func(context.Context) (payload, error) {
		return payload{Total: 7}, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 7, v.Total)

	raw, err := mr.Get("activity:combined:2024")
	require.NoError(t, err)
	assert.JSONEq(t, `{"days":null,"total":7}`, raw)
}

func TestLimiter(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewLimiter(store, 2, time.Minute, WithLimiterClock(clock))
	require.NotNil(t, limiter)

	d := limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), d.ResetAt)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:10.0.0.1:count"))

	d = limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d = limiter.Allow(ctx, "10.0.0.1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	other := limiter.Allow(ctx, "10.0.0.2")
	assert.True(t, other.Allowed)

	mr.FastForward(time.Minute + time.Second)
	d = limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

// flakyExpireStore drops the first EXPIRE it receives.
type flakyExpireStore struct {
	*RedisStore
	failed bool
}

func (s *flakyExpireStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if !s.failed {
		s.failed = true
		return errBackend
	}
	return s.RedisStore.Expire(ctx, key, ttl)
}

func TestLimiterRearmsLostExpiry(t *testing.T) {
	ctx := context.Background()
	redisStore, mr := newRedisStore(t)
	store := &flakyExpireStore{RedisStore: redisStore}
	limiter := NewLimiter(store, 1, time.Minute)
	require.NotNil(t, limiter)

	d := limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed)
	assert.True(t, store.failed)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:10.0.0.1:count"))

	d = limiter.Allow(ctx, "10.0.0.1")
	assert.False(t, d.Allowed)

	mr.FastForward(time.Minute + time.Second)
	d = limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed)
}

func TestLimiterDisabled(t *testing.T) {
	assert.Nil(t, NewLimiter(nil, 10, time.Minute))

	store, _ := newRedisStore(t)
	assert.Nil(t, NewLimiter(store, 0, time.Minute))

	var l *Limiter
	assert.True(t, l.Allow(context.Background(), "anyone").Allowed)

	failOpen := NewLimiter(brokenStore{}, 1, time.Minute)
	assert.True(t, failOpen.Allow(context.Background(), "anyone").Allowed)
	assert.True(t, failOpen.Allow(context.Background(), "anyone").Allowed)
}
