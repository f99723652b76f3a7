package screening

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/aegis-value/internal/contracts"
)

// yearlyCloses fetches closes at the N+1 yearly anchors before in.Reference.
// closes[code][k] is the close k years back; a missing anchor price leaves ok=false.
func yearlyCloses(ctx context.Context, in Input, years int) (map[string][]float64, map[string]bool, error) {
	if in.Calendar == nil {
		return nil, nil, fmt.Errorf("trading calendar not loaded")
	}

	closes := make(map[string][]float64, len(in.Universe.Stocks))
	complete := make(map[string]bool, len(in.Universe.Stocks))
	for _, code := range in.Universe.Stocks {
		closes[code] = make([]float64, years+1)
		complete[code] = true
	}

	anchors, err := in.Calendar.YearlyAnchors(in.Reference, years)
	if err != nil {
		// 캘린더 이력이 부족하면 모든 종목이 결측 처리됨
		for code := range complete {
			complete[code] = false
		}
		return closes, complete, nil
	}

	for k, day := range anchors {
		table, err := in.Provider.ClosePrices(ctx, in.Universe.Stocks, day, day)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch closes at %s: %w", contracts.DateString(day), err)
		}
		for _, code := range in.Universe.Stocks {
			v, ok := table.Close(code, day)
			if !ok || !finite(v) {
				complete[code] = false
				continue
			}
			closes[code][k] = v
		}
	}
	return closes, complete, nil
}

// cagrScreen: (P_now / P_N)^(1/N) − 1 > min
type cagrScreen struct {
	years int
	min   float64
}

func (s *cagrScreen) ID() string { return "long_run_cagr" }

func (s *cagrScreen) Description() string {
	return fmt.Sprintf("%d-year price CAGR > %.2f%%", s.years, s.min*100)
}

func (s *cagrScreen) Screen(ctx context.Context, in Input) (*contracts.ScreenResult, error) {
	closes, complete, err := yearlyCloses(ctx, in, s.years)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ID(), err)
	}

	c := newCollector(s.ID(), in.AsOf)
	for _, code := range in.Universe.Stocks {
		if !complete[code] {
			c.add(code, verdictMissing)
			continue
		}
		cagr, ok := CAGR(closes[code][0], closes[code][s.years], s.years)
		if !ok {
			c.add(code, verdictDegenerate)
			continue
		}
		c.add(code, fromBool(cagr > s.min))
	}
	return c.result, nil
}

// CAGR returns (now/ago)^(1/years) − 1; undefined for non-positive prices
func CAGR(now, ago float64, years int) (float64, bool) {
	if now <= 0 || years <= 0 {
		return 0, false
	}
	growth, ok := PositiveDenominator(now, ago)
	if !ok {
		return 0, false
	}
	return math.Pow(growth, 1/float64(years)) - 1, true
}

// lossYearsScreen: count of yearly returns below threshold ≤ max
type lossYearsScreen struct {
	years     int
	threshold float64
	max       int
}

func (s *lossYearsScreen) ID() string { return "loss_years" }

func (s *lossYearsScreen) Description() string {
	return fmt.Sprintf("at most %d of last %d yearly returns below %.2f%%", s.max, s.years, s.threshold*100)
}

func (s *lossYearsScreen) Screen(ctx context.Context, in Input) (*contracts.ScreenResult, error) {
	closes, complete, err := yearlyCloses(ctx, in, s.years)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ID(), err)
	}

	c := newCollector(s.ID(), in.AsOf)
	for _, code := range in.Universe.Stocks {
		if !complete[code] {
			c.add(code, verdictMissing)
			continue
		}
		losses, ok := LossYears(closes[code], s.threshold)
		if !ok {
			c.add(code, verdictDegenerate)
			continue
		}
		c.add(code, fromBool(losses <= s.max))
	}
	return c.result, nil
}

// LossYears counts k with (P_k − P_{k+1}) / P_{k+1} < threshold,
// where closes[k] is the close k years back
func LossYears(closes []float64, threshold float64) (int, bool) {
	count := 0
	for k := 0; k+1 < len(closes); k++ {
		ret, ok := PositiveDenominator(closes[k]-closes[k+1], closes[k+1])
		if !ok {
			return 0, false
		}
		if ret < threshold {
			count++
		}
	}
	return count, true
}
