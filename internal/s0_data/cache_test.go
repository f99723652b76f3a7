package s0_data

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/config"
	"github.com/wonny/aegis-value/pkg/logger"
	"github.com/wonny/aegis-value/pkg/redis"
)

func disabledCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return redis.NewCache(client, "test")
}

func TestCachedProvider_Passthrough(t *testing.T) {
	m := NewMemoryProvider()
	m.AddTradingDays(d("2015-01-05"), d("2015-01-06"))
	m.SetIndexMembers("IDX", "A", "B")
	m.SetFundamentals("A", d("2015-01-05"), row(map[contracts.Field]float64{contracts.FieldPERatio: 7}))
	m.SetClose("A", d("2015-01-05"), 10)

	c := NewCachedProvider(m, disabledCache(t), time.Hour, logger.NewNop())
	ctx := context.Background()

	days, err := c.TradingDays(ctx)
	require.NoError(t, err)
	assert.Len(t, days, 2)

	members, err := c.IndexMembers(ctx, "IDX", d("2015-01-06"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, members)

	table, err := c.Fundamentals(ctx, members, []contracts.Field{contracts.FieldPERatio}, d("2015-01-06"))
	require.NoError(t, err)
	pe, ok := table.Rows["A"].Value(contracts.FieldPERatio)
	require.True(t, ok)
	assert.Equal(t, 7.0, pe)

	// JSON 왕복 후에도 날짜 키로 조회 가능
	prices, err := c.ClosePrices(ctx, []string{"A"}, d("2015-01-05"), d("2015-01-06"))
	require.NoError(t, err)
	v, ok := prices.Close("A", d("2015-01-05"))
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	empty, err := c.ClosePrices(ctx, []string{"Z"}, d("2015-01-05"), d("2015-01-06"))
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

// unreachableCache: 활성화되었지만 접속 불가한 Redis
func unreachableCache(t *testing.T) *redis.Cache {
	t.Helper()
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return redis.NewCache(redis.NewFromRedis(rdb), "test")
}

// gappedSeries: 결측 구간을 NaN으로 채워 반환하는 원천
type gappedSeries struct {
	*MemoryProvider
}

func (g gappedSeries) FundamentalsSeries(ctx context.Context, codes []string, field contracts.Field, asOf time.Time, count int) (map[string][]float64, error) {
	return map[string][]float64{"A": {7, math.NaN(), 9}}, nil
}

func TestCachedProvider_NonFiniteValues(t *testing.T) {
	m := NewMemoryProvider()
	m.SetClose("A", d("2015-01-05"), 10)
	m.SetClose("A", d("2015-01-06"), math.NaN())

	c := NewCachedProvider(gappedSeries{m}, disabledCache(t), time.Hour, logger.NewNop())
	ctx := context.Background()

	series, err := c.FundamentalsSeries(ctx, []string{"A"}, contracts.FieldPERatio, d("2015-01-06"), 10)
	require.NoError(t, err)
	require.Len(t, series["A"], 3)
	assert.True(t, math.IsNaN(series["A"][1]))

	prices, err := c.ClosePrices(ctx, []string{"A"}, d("2015-01-05"), d("2015-01-06"))
	require.NoError(t, err)
	v, ok := prices.Close("A", d("2015-01-05"))
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
	_, ok = prices.Close("A", d("2015-01-06"))
	assert.False(t, ok)
}

func TestCachedProvider_FallsBackWhenRedisFails(t *testing.T) {
	m := NewMemoryProvider()
	m.SetIndexMembers("IDX", "A", "B")

	var buf bytes.Buffer
	c := NewCachedProvider(gappedSeries{m}, unreachableCache(t), time.Hour, logger.NewWithWriter(&buf, "debug", "test"))
	ctx := context.Background()

	members, err := c.IndexMembers(ctx, "IDX", d("2015-01-06"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, members)

	series, err := c.FundamentalsSeries(ctx, []string{"A"}, contracts.FieldPERatio, d("2015-01-06"), 10)
	require.NoError(t, err)
	assert.Len(t, series["A"], 3)

	out := buf.String()
	assert.Contains(t, out, "Cache read failed, loading from source")
	assert.Contains(t, out, "Cache store failed, serving uncached")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"op":"fundamentals_series"`)
}

func TestDigest_OrderInsensitive(t *testing.T) {
	assert.Equal(t, digest([]string{"A", "B"}, nil), digest([]string{"B", "A"}, nil))
	assert.NotEqual(t, digest([]string{"A"}, []string{"pe_ratio"}), digest([]string{"A"}, []string{"market_cap"}))
}
