package s0_data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
	"github.com/wonny/aegis-value/pkg/redis"
)

// CachedProvider decorates a DataProvider with a Redis snapshot cache.
// point-in-time 조회 결과는 기준일 기준으로 불변이므로 키에 기준일을 포함
// 캐시 조회/저장 실패는 원천 조회로 대체하고 Warn 로그만 남긴다
type CachedProvider struct {
	inner  contracts.DataProvider
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedProvider wraps inner; a disabled redis client makes it a passthrough
func NewCachedProvider(inner contracts.DataProvider, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl, logger: log}
}

// readThrough serves key from the cache or loads it from the inner provider.
// 원천 값은 JSON 왕복 없이 그대로 반환한다
func readThrough[T any](ctx context.Context, c *CachedProvider, op, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.fallback(op, key, err).Warn("Cache read failed, loading from source")
	} else if found {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.fallback(op, key, err).Warn("Cache store failed, serving uncached")
	}
	return value, nil
}

func (c *CachedProvider) fallback(op, key string, err error) *logger.Logger {
	return c.logger.WithError(err).WithFields(map[string]interface{}{
		"op":  op,
		"key": key,
	})
}

// TradingDays implements contracts.TradingCalendar
func (c *CachedProvider) TradingDays(ctx context.Context) ([]time.Time, error) {
	return readThrough(ctx, c, "trading_days", redis.CalendarKey(), redis.TTLCalendar, func() ([]time.Time, error) {
		return c.inner.TradingDays(ctx)
	})
}

// IndexMembers implements contracts.FundamentalsProvider
func (c *CachedProvider) IndexMembers(ctx context.Context, indexID string, asOf time.Time) ([]string, error) {
	key := redis.IndexMembersKey(indexID, contracts.DateString(asOf))
	return readThrough(ctx, c, "index_members", key, c.ttl, func() ([]string, error) {
		return c.inner.IndexMembers(ctx, indexID, asOf)
	})
}

// Fundamentals implements contracts.FundamentalsProvider
func (c *CachedProvider) Fundamentals(ctx context.Context, codes []string, fields []contracts.Field, asOf time.Time) (*contracts.FundamentalsTable, error) {
	key := redis.FundamentalsKey(contracts.DateString(asOf), digest(codes, fieldNames(fields)))
	return readThrough(ctx, c, "fundamentals", key, c.ttl, func() (*contracts.FundamentalsTable, error) {
		t, err := c.inner.Fundamentals(ctx, codes, fields, asOf)
		if err != nil {
			return nil, err
		}
		return finiteOnly(t), nil
	})
}

// FundamentalsSeries implements contracts.FundamentalsProvider.
// 시계열은 위치가 의미를 가지므로 NaN을 지우지 않는다 (저장 실패 → 원천 값 반환)
func (c *CachedProvider) FundamentalsSeries(ctx context.Context, codes []string, field contracts.Field, asOf time.Time, count int) (map[string][]float64, error) {
	key := redis.SeriesKey(string(field), contracts.DateString(asOf), count, digest(codes, nil))
	return readThrough(ctx, c, "fundamentals_series", key, c.ttl, func() (map[string][]float64, error) {
		return c.inner.FundamentalsSeries(ctx, codes, field, asOf, count)
	})
}

// DistributionEvents implements contracts.FundamentalsProvider
func (c *CachedProvider) DistributionEvents(ctx context.Context, codes []string, filter contracts.DistributionFilter) ([]contracts.DistributionEvent, error) {
	key := redis.DistributionsKey(contracts.DateString(filter.From), contracts.DateString(filter.To), filter.MinYield, digest(codes, nil))
	return readThrough(ctx, c, "distributions", key, c.ttl, func() ([]contracts.DistributionEvent, error) {
		return c.inner.DistributionEvents(ctx, codes, filter)
	})
}

// ClosePrices implements contracts.PriceHistoryProvider
func (c *CachedProvider) ClosePrices(ctx context.Context, codes []string, from, to time.Time) (contracts.PriceTable, error) {
	key := redis.PricesKey(contracts.DateString(from), contracts.DateString(to), digest(codes, nil))
	prices, err := readThrough(ctx, c, "close_prices", key, c.ttl, func() (contracts.PriceTable, error) {
		p, err := c.inner.ClosePrices(ctx, codes, from, to)
		if err != nil {
			return nil, err
		}
		return finitePrices(p), nil
	})
	if prices == nil {
		prices = make(contracts.PriceTable)
	}
	return prices, err
}

// digest hashes the request codes (order-insensitive) plus extra parts
func digest(codes []string, extra []string) string {
	sorted := append([]string{}, codes...)
	sort.Strings(sorted)
	h := sha256.Sum256([]byte(strings.Join(sorted, ",") + "|" + strings.Join(extra, ",")))
	return hex.EncodeToString(h[:8])
}

func fieldNames(fields []contracts.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// finiteOnly drops NaN/Inf values which JSON cannot carry
func finiteOnly(t *contracts.FundamentalsTable) *contracts.FundamentalsTable {
	for code, row := range t.Rows {
		for f, v := range row.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				delete(row.Values, f)
			}
		}
		t.Rows[code] = row
	}
	return t
}

// finitePrices drops NaN/Inf closes (PriceTable.Close treats them as missing anyway)
func finitePrices(p contracts.PriceTable) contracts.PriceTable {
	for code, byDate := range p {
		for day, v := range byDate {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				delete(byDate, day)
			}
		}
		if len(byDate) == 0 {
			delete(p, code)
		}
	}
	return p
}

var _ contracts.DataProvider = (*CachedProvider)(nil)
