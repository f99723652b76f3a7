package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Del(ctx, fullKey).Err()
}

// Predefined TTLs
const (
	TTLDaily    = 24 * time.Hour     // 일별 스냅샷 (펀더멘털, 배당)
	TTLCalendar = 7 * 24 * time.Hour // 거래일 캘린더
)

// Data snapshot cache keys
// as-of 날짜와 요청 파라미터 해시로 구성 (point-in-time 데이터는 불변)
func CalendarKey() string {
	return "calendar:trading_days"
}

func IndexMembersKey(indexID string, asOf string) string {
	return fmt.Sprintf("index:%s:%s", indexID, asOf)
}

func FundamentalsKey(asOf string, digest string) string {
	return fmt.Sprintf("fundamentals:%s:%s", asOf, digest)
}

func SeriesKey(field string, asOf string, count int, digest string) string {
	return fmt.Sprintf("series:%s:%s:%d:%s", field, asOf, count, digest)
}

func PricesKey(from, to string, digest string) string {
	return fmt.Sprintf("prices:%s:%s:%s", from, to, digest)
}

func DistributionsKey(from, to string, minYield float64, digest string) string {
	return fmt.Sprintf("distributions:%s:%s:%g:%s", from, to, minYield, digest)
}
