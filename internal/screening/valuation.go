package screening

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-value/internal/contracts"
)

// peHistoryScreen: PE_lyr < fraction × max(PE_lyr over the trailing window), per stock
type peHistoryScreen struct {
	fraction float64
	window   int
}

func (s *peHistoryScreen) ID() string { return "pe_vs_five_year_max" }

func (s *peHistoryScreen) Description() string {
	return fmt.Sprintf("PE(lyr) < %.2f x own max PE(lyr) over %d trading days", s.fraction, s.window)
}

func (s *peHistoryScreen) Screen(ctx context.Context, in Input) (*contracts.ScreenResult, error) {
	current, err := in.Provider.Fundamentals(ctx, in.Universe.Stocks, []contracts.Field{contracts.FieldPERatioLYR}, in.AsOf)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch fundamentals: %w", s.ID(), err)
	}
	history, err := in.Provider.FundamentalsSeries(ctx, in.Universe.Stocks, contracts.FieldPERatioLYR, in.AsOf, s.window)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch series: %w", s.ID(), err)
	}

	c := newCollector(s.ID(), in.AsOf)
	for _, code := range in.Universe.Stocks {
		row, ok := current.Get(code)
		if !ok {
			c.add(code, verdictMissing)
			continue
		}
		pe, ok := row.Value(contracts.FieldPERatioLYR)
		if !ok {
			c.add(code, verdictMissing)
			continue
		}
		peak, ok := maxFinite(history[code])
		if !ok {
			c.add(code, verdictMissing)
			continue
		}
		if peak <= 0 {
			c.add(code, verdictDegenerate)
			continue
		}
		c.add(code, fromBool(pe < s.fraction*peak))
	}
	return c.result, nil
}

func maxFinite(xs []float64) (float64, bool) {
	found := false
	var m float64
	for _, x := range xs {
		if !finite(x) {
			continue
		}
		if !found || x > m {
			m, found = x, true
		}
	}
	return m, found
}

// dividendScreen: a distribution within the lookback window yields more than bond × ratio
type dividendScreen struct {
	ratio        float64
	lookbackDays int
}

func (s *dividendScreen) ID() string { return "dividend_yield" }

func (s *dividendScreen) Description() string {
	return fmt.Sprintf("dividend yield > bond yield x %.3f within %d days", s.ratio, s.lookbackDays)
}

func (s *dividendScreen) Screen(ctx context.Context, in Input) (*contracts.ScreenResult, error) {
	filter := contracts.DistributionFilter{
		From:     contracts.Day(in.AsOf).AddDate(0, 0, -s.lookbackDays),
		To:       in.AsOf,
		MinYield: in.BondYield * s.ratio,
	}
	events, err := in.Provider.DistributionEvents(ctx, in.Universe.Stocks, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch distributions: %w", s.ID(), err)
	}

	qualified := make(contracts.StockSet)
	for _, ev := range events {
		// 제공자 필터와 무관하게 동일 조건을 다시 적용
		if in.Universe.Contains(ev.Code) && filter.Match(ev) {
			qualified.Add(ev.Code)
		}
	}

	// 기준일 펀더멘털이 존재하는 종목으로 한정
	table, err := in.Provider.Fundamentals(ctx, in.Universe.Stocks, []contracts.Field{contracts.FieldMarketCap}, in.AsOf)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch fundamentals: %w", s.ID(), err)
	}

	c := newCollector(s.ID(), in.AsOf)
	for _, code := range in.Universe.Stocks {
		if _, ok := table.Get(code); !ok {
			c.add(code, verdictMissing)
			continue
		}
		c.add(code, fromBool(qualified.Has(code)))
	}
	return c.result, nil
}
