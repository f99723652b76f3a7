// Package calendar resolves cycle dates against the exchange trading calendar.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/aegis-value/internal/contracts"
)

// Calendar is a sorted set of trading days loaded once per cycle
type Calendar struct {
	days []time.Time
}

// New builds a calendar from trading days (any order, duplicates allowed)
func New(days []time.Time) *Calendar {
	set := make(map[time.Time]struct{}, len(days))
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		d = contracts.Day(d)
		if _, ok := set[d]; ok {
			continue
		}
		set[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return &Calendar{days: out}
}

// Load fetches trading days from the provider
func Load(ctx context.Context, tc contracts.TradingCalendar) (*Calendar, error) {
	days, err := tc.TradingDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trading days: %w", err)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("trading calendar is empty: %w", contracts.ErrDataUnavailable)
	}
	return New(days), nil
}

// Len returns the number of trading days
func (c *Calendar) Len() int {
	return len(c.days)
}

// OnOrBefore returns the nearest trading day <= date
func (c *Calendar) OnOrBefore(date time.Time) (time.Time, error) {
	day := contracts.Day(date)
	i := sort.Search(len(c.days), func(i int) bool { return c.days[i].After(day) })
	if i == 0 {
		return time.Time{}, fmt.Errorf("no trading day on or before %s: %w",
			contracts.DateString(day), contracts.ErrDataUnavailable)
	}
	return c.days[i-1], nil
}

// AsOfForTick returns the nearest trading day <= (tick - 1 day)
// ⭐ 사이클 기준일: 틱 당일 데이터는 사용하지 않음
func (c *Calendar) AsOfForTick(tick time.Time) (time.Time, error) {
	return c.OnOrBefore(contracts.Day(tick).AddDate(0, 0, -1))
}

// YearsBefore returns the nearest trading day <= (ref - years).
// 2월 29일은 해당 연도 2월 말일로 보정
func (c *Calendar) YearsBefore(ref time.Time, years int) (time.Time, error) {
	return c.OnOrBefore(SubYears(ref, years))
}

// YearlyAnchors returns anchors[k] = YearsBefore(ref, k) for k in [0, n]
func (c *Calendar) YearlyAnchors(ref time.Time, n int) ([]time.Time, error) {
	out := make([]time.Time, n+1)
	for k := 0; k <= n; k++ {
		d, err := c.YearsBefore(ref, k)
		if err != nil {
			return nil, fmt.Errorf("anchor %d years before %s: %w", k, contracts.DateString(ref), err)
		}
		out[k] = d
	}
	return out, nil
}

// SubYears subtracts calendar years, clamping to month end
func SubYears(t time.Time, years int) time.Time {
	d := contracts.Day(t)
	y := d.Year() - years
	last := time.Date(y, d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return time.Date(y, d.Month(), day, 0, 0, 0, 0, time.UTC)
}
