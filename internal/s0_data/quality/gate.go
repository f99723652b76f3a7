package quality

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/aegis-value/internal/calendar"
	"github.com/wonny/aegis-value/internal/contracts"
)

// Config holds quality gate thresholds (0~1)
type Config struct {
	MinFundamentalsCoverage float64 `yaml:"min_fundamentals_coverage"` // 필드별 최소 커버리지
	MinPriceCoverage        float64 `yaml:"min_price_coverage"`        // AsOf 종가 커버리지
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{
		MinFundamentalsCoverage: 0.80,
		MinPriceCoverage:        0.95,
	}
}

// Snapshot is the coverage of one data snapshot over index members
type Snapshot struct {
	IndexID      string             `json:"index_id"`
	Tick         time.Time          `json:"tick"`
	AsOf         time.Time          `json:"as_of"`
	TotalStocks  int                `json:"total_stocks"`
	ValidStocks  int                `json:"valid_stocks"` // 모든 필드가 있는 종목
	Coverage     map[string]float64 `json:"coverage"`     // 필드 → 비율
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
	Failures     []string           `json:"failures,omitempty"`
}

// Gate validates provider coverage before a cycle
type Gate struct {
	provider contracts.DataProvider
	config   Config
}

// NewGate creates a new quality gate
func NewGate(provider contracts.DataProvider, config Config) *Gate {
	return &Gate{
		provider: provider,
		config:   config,
	}
}

// Check measures coverage of fields over the members of indexID at the AsOf of tick.
// ⭐ SSOT: S0 품질 검증 (사이클 전 데이터 점검)
func (g *Gate) Check(ctx context.Context, indexID string, tick time.Time, fields []contracts.Field) (*Snapshot, error) {
	cal, err := calendar.Load(ctx, g.provider)
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}
	asOf, err := cal.AsOfForTick(tick)
	if err != nil {
		return nil, fmt.Errorf("as-of for %s: %w", contracts.DateString(tick), err)
	}

	members, err := g.provider.IndexMembers(ctx, indexID, asOf)
	if err != nil {
		return nil, fmt.Errorf("index members: %w", err)
	}

	snap := &Snapshot{
		IndexID:     indexID,
		Tick:        tick,
		AsOf:        asOf,
		TotalStocks: len(members),
		Coverage:    make(map[string]float64),
	}
	if len(members) == 0 {
		snap.Failures = append(snap.Failures, "no index members")
		return snap, nil
	}

	table, err := g.provider.Fundamentals(ctx, members, fields, asOf)
	if err != nil {
		return nil, fmt.Errorf("fundamentals: %w", err)
	}
	prices, err := g.provider.ClosePrices(ctx, members, asOf, asOf)
	if err != nil {
		return nil, fmt.Errorf("close prices: %w", err)
	}

	counts := make(map[contracts.Field]int, len(fields))
	priced := 0
	for _, code := range members {
		row, ok := table.Get(code)
		complete := ok
		for _, f := range fields {
			if ok && hasField(row, f) {
				counts[f]++
			} else {
				complete = false
			}
		}
		if complete {
			snap.ValidStocks++
		}
		if _, ok := prices.Close(code, asOf); ok {
			priced++
		}
	}

	total := float64(len(members))
	for _, f := range fields {
		snap.Coverage[string(f)] = float64(counts[f]) / total
	}
	snap.Coverage["price"] = float64(priced) / total

	snap.QualityScore = score(snap.Coverage)
	snap.Failures = g.failures(snap.Coverage)
	snap.Passed = len(snap.Failures) == 0

	return snap, nil
}

func hasField(row contracts.FundamentalsRow, f contracts.Field) bool {
	if f.IsLabel() {
		_, ok := row.Label(f)
		return ok
	}
	_, ok := row.Value(f)
	return ok
}

// score is the unweighted mean coverage
func score(coverage map[string]float64) float64 {
	if len(coverage) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range coverage {
		sum += c
	}
	return sum / float64(len(coverage))
}

// failures lists every coverage under its threshold, sorted
func (g *Gate) failures(coverage map[string]float64) []string {
	var out []string
	for key, c := range coverage {
		min := g.config.MinFundamentalsCoverage
		if key == "price" {
			min = g.config.MinPriceCoverage
		}
		if c < min {
			out = append(out, fmt.Sprintf("%s coverage %.2f < %.2f", key, c, min))
		}
	}
	sort.Strings(out)
	return out
}
