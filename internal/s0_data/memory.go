package s0_data

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/aegis-value/internal/contracts"
)

// MemoryProvider is an in-memory contracts.DataProvider
// 오프라인 드라이런(fixture) 및 테스트용
type MemoryProvider struct {
	mu sync.RWMutex

	days          []time.Time
	members       map[string][]string                                // index → codes
	fundamentals  map[string]map[time.Time]contracts.FundamentalsRow // code → date → row
	prices        contracts.PriceTable
	distributions []contracts.DistributionEvent
}

// NewMemoryProvider creates an empty provider
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		members:      make(map[string][]string),
		fundamentals: make(map[string]map[time.Time]contracts.FundamentalsRow),
		prices:       make(contracts.PriceTable),
	}
}

// AddTradingDays appends trading days
func (m *MemoryProvider) AddTradingDays(days ...time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range days {
		m.days = append(m.days, contracts.Day(d))
	}
}

// SetIndexMembers replaces the constituents of an index
func (m *MemoryProvider) SetIndexMembers(indexID string, codes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[indexID] = append([]string{}, codes...)
}

// SetFundamentals stores a row for (code, date)
func (m *MemoryProvider) SetFundamentals(code string, date time.Time, row contracts.FundamentalsRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDate, ok := m.fundamentals[code]
	if !ok {
		byDate = make(map[time.Time]contracts.FundamentalsRow)
		m.fundamentals[code] = byDate
	}
	byDate[contracts.Day(date)] = row
}

// SetClose stores a close price
func (m *MemoryProvider) SetClose(code string, date time.Time, close float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices.Set(code, date, close)
}

// AddDistribution appends a distribution event
func (m *MemoryProvider) AddDistribution(ev contracts.DistributionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.distributions = append(m.distributions, ev)
}

// TradingDays implements contracts.TradingCalendar
func (m *MemoryProvider) TradingDays(ctx context.Context) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]time.Time{}, m.days...)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// IndexMembers implements contracts.FundamentalsProvider
// 메모리 구성종목은 기준일과 무관하게 고정
func (m *MemoryProvider) IndexMembers(ctx context.Context, indexID string, asOf time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.members[indexID]...), nil
}

// Fundamentals returns, per code, the latest row dated on or before asOf
func (m *MemoryProvider) Fundamentals(ctx context.Context, codes []string, fields []contracts.Field, asOf time.Time) (*contracts.FundamentalsTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table := &contracts.FundamentalsTable{AsOf: contracts.Day(asOf), Rows: make(map[string]contracts.FundamentalsRow)}
	for _, code := range codes {
		row, ok := m.latestRow(code, asOf)
		if !ok {
			continue
		}
		table.Rows[code] = projectRow(row, fields)
	}
	return table, nil
}

// FundamentalsSeries returns up to count trailing values (ascending by date)
func (m *MemoryProvider) FundamentalsSeries(ctx context.Context, codes []string, field contracts.Field, asOf time.Time, count int) (map[string][]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := contracts.Day(asOf)
	out := make(map[string][]float64, len(codes))
	for _, code := range codes {
		byDate := m.fundamentals[code]
		dates := make([]time.Time, 0, len(byDate))
		for d := range byDate {
			if !d.After(limit) {
				dates = append(dates, d)
			}
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		if len(dates) > count {
			dates = dates[len(dates)-count:]
		}
		values := make([]float64, 0, len(dates))
		for _, d := range dates {
			if v, ok := byDate[d].Value(field); ok {
				values = append(values, v)
			}
		}
		if len(values) > 0 {
			out[code] = values
		}
	}
	return out, nil
}

// DistributionEvents returns matching events of the given codes
func (m *MemoryProvider) DistributionEvents(ctx context.Context, codes []string, filter contracts.DistributionFilter) ([]contracts.DistributionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := contracts.NewStockSet(codes...)
	var out []contracts.DistributionEvent
	for _, ev := range m.distributions {
		if want.Has(ev.Code) && filter.Match(ev) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// ClosePrices implements contracts.PriceHistoryProvider
func (m *MemoryProvider) ClosePrices(ctx context.Context, codes []string, from, to time.Time) (contracts.PriceTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lo, hi := contracts.Day(from), contracts.Day(to)
	out := make(contracts.PriceTable)
	for _, code := range codes {
		for d, v := range m.prices[code] {
			if d.Before(lo) || d.After(hi) {
				continue
			}
			out.Set(code, d, v)
		}
	}
	return out, nil
}

func (m *MemoryProvider) latestRow(code string, asOf time.Time) (contracts.FundamentalsRow, bool) {
	limit := contracts.Day(asOf)
	var best time.Time
	var row contracts.FundamentalsRow
	found := false
	for d, r := range m.fundamentals[code] {
		if d.After(limit) {
			continue
		}
		if !found || d.After(best) {
			best, row, found = d, r, true
		}
	}
	return row, found
}

// projectRow keeps only the requested fields
func projectRow(row contracts.FundamentalsRow, fields []contracts.Field) contracts.FundamentalsRow {
	out := contracts.FundamentalsRow{
		Values: make(map[contracts.Field]float64),
		Labels: make(map[contracts.Field]string),
	}
	for _, f := range fields {
		if f.IsLabel() {
			if v, ok := row.Labels[f]; ok {
				out.Labels[f] = v
			}
			continue
		}
		if v, ok := row.Values[f]; ok {
			out.Values[f] = v
		}
	}
	return out
}

var _ contracts.DataProvider = (*MemoryProvider)(nil)

// Dump is a full copy of the provider contents
type Dump struct {
	TradingDays   []time.Time
	IndexMembers  map[string][]string
	Fundamentals  map[time.Time]map[string]contracts.FundamentalsRow // date → code → row
	Prices        contracts.PriceTable
	Distributions []contracts.DistributionEvent
}

// Dump copies everything (used by Repository.Import)
func (m *MemoryProvider) Dump() *Dump {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d := &Dump{
		TradingDays:   append([]time.Time{}, m.days...),
		IndexMembers:  make(map[string][]string, len(m.members)),
		Fundamentals:  make(map[time.Time]map[string]contracts.FundamentalsRow),
		Prices:        make(contracts.PriceTable),
		Distributions: append([]contracts.DistributionEvent{}, m.distributions...),
	}
	sort.Slice(d.TradingDays, func(i, j int) bool { return d.TradingDays[i].Before(d.TradingDays[j]) })

	for idx, codes := range m.members {
		d.IndexMembers[idx] = append([]string{}, codes...)
	}
	for code, byDate := range m.fundamentals {
		for date, row := range byDate {
			if d.Fundamentals[date] == nil {
				d.Fundamentals[date] = make(map[string]contracts.FundamentalsRow)
			}
			d.Fundamentals[date][code] = row
		}
	}
	for code, byDate := range m.prices {
		for date, v := range byDate {
			d.Prices.Set(code, date, v)
		}
	}
	return d
}
