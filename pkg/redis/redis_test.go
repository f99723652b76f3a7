package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

// liveClient connects to REDIS_ADDR or skips
func liveClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis integration test")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromRedis(rdb)
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var dest []string
	found, err := cache.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "k", []string{"a"}, time.Minute))
}

func TestLock_Disabled(t *testing.T) {
	lock := NewLock(disabledClient(t), "test")

	release, err := lock.Acquire(context.Background(), "cycle", time.Minute)
	require.NoError(t, err)
	release()
}

func TestCache_RoundTrip_Live(t *testing.T) {
	cache := NewCache(liveClient(t), "aegis-value-test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "members", []string{"A", "B"}, time.Minute))
	defer cache.Delete(ctx, "members")

	var dest []string
	found, err := cache.Get(ctx, "members", &dest)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"A", "B"}, dest)
}

func TestLock_Exclusive_Live(t *testing.T) {
	lock := NewLock(liveClient(t), "aegis-value-test")
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "cycle", 5*time.Second)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "cycle", 5*time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	release()

	release2, err := lock.Acquire(ctx, "cycle", 5*time.Second)
	require.NoError(t, err)
	release2()
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "index:000300:2015-01-05", IndexMembersKey("000300", "2015-01-05"))
	assert.Equal(t, "series:pe_ratio_lyr:2015-01-05:1250:abc", SeriesKey("pe_ratio_lyr", "2015-01-05", 1250, "abc"))
}
