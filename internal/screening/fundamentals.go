package screening

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-value/internal/contracts"
)

// rowRule evaluates one fundamentals row
type rowRule func(row contracts.FundamentalsRow, in Input) verdict

// fundamentalScreen is a predicate over a single as-of fundamentals snapshot
type fundamentalScreen struct {
	id     string
	desc   string
	fields []contracts.Field
	rule   rowRule
}

func (s *fundamentalScreen) ID() string          { return s.id }
func (s *fundamentalScreen) Description() string { return s.desc }

// Screen fetches the snapshot for the universe and applies the rule per stock
func (s *fundamentalScreen) Screen(ctx context.Context, in Input) (*contracts.ScreenResult, error) {
	table, err := in.Provider.Fundamentals(ctx, in.Universe.Stocks, s.fields, in.AsOf)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch fundamentals: %w", s.id, err)
	}

	c := newCollector(s.id, in.AsOf)
	for _, code := range in.Universe.Stocks {
		row, ok := table.Get(code)
		if !ok {
			c.add(code, verdictMissing)
			continue
		}
		c.add(code, s.rule(row, in))
	}
	return c.result, nil
}

// values extracts all fields or reports missing
func values(row contracts.FundamentalsRow, fields ...contracts.Field) ([]float64, bool) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, ok := row.Value(f)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// newPEVsBondYield: 100/PE > bondYield × multiple
func newPEVsBondYield(p Params) Predicate {
	return &fundamentalScreen{
		id:     "pe_vs_bond_yield",
		desc:   fmt.Sprintf("earnings yield (100/PE) > bond yield x %.2f", p.EarningsYieldMultiple),
		fields: []contracts.Field{contracts.FieldPERatio},
		rule: func(row contracts.FundamentalsRow, in Input) verdict {
			v, ok := values(row, contracts.FieldPERatio)
			if !ok {
				return verdictMissing
			}
			ey, ok := PositiveDenominator(100, v[0])
			if !ok {
				return verdictDegenerate
			}
			return fromBool(ey > in.BondYield*p.EarningsYieldMultiple)
		},
	}
}

// newMarketCapVsTangibleAssets: mcap < fraction × (current + fixed − liability)
func newMarketCapVsTangibleAssets(p Params) Predicate {
	fields := []contracts.Field{
		contracts.FieldMarketCap, contracts.FieldTotalCurrentAssets,
		contracts.FieldFixedAssets, contracts.FieldTotalLiability,
	}
	return &fundamentalScreen{
		id:     "market_cap_vs_tangible_assets",
		desc:   fmt.Sprintf("market cap < %.3f x tangible assets", p.TangibleAssetFraction),
		fields: fields,
		rule: func(row contracts.FundamentalsRow, in Input) verdict {
			v, ok := values(row, fields...)
			if !ok {
				return verdictMissing
			}
			tangible := v[1] + v[2] - v[3]
			if tangible <= 0 {
				return verdictDegenerate
			}
			return fromBool(v[0] < p.TangibleAssetFraction*tangible)
		},
	}
}

// newMarketCapVsNetCurrentAssets: mcap < fraction × (current − liability)
func newMarketCapVsNetCurrentAssets(p Params) Predicate {
	fields := []contracts.Field{
		contracts.FieldMarketCap, contracts.FieldTotalCurrentAssets, contracts.FieldTotalLiability,
	}
	return &fundamentalScreen{
		id:     "market_cap_vs_net_current_assets",
		desc:   fmt.Sprintf("market cap < %.3f x net current assets", p.NetCurrentAssetFraction),
		fields: fields,
		rule: func(row contracts.FundamentalsRow, in Input) verdict {
			v, ok := values(row, fields...)
			if !ok {
				return verdictMissing
			}
			net := v[1] - v[2]
			if net <= 0 {
				return verdictDegenerate
			}
			return fromBool(v[0] < p.NetCurrentAssetFraction*net)
		},
	}
}

// newLiabilityVsTangibleAssets: liability < current + fixed − liability
func newLiabilityVsTangibleAssets(Params) Predicate {
	fields := []contracts.Field{
		contracts.FieldTotalCurrentAssets, contracts.FieldFixedAssets, contracts.FieldTotalLiability,
	}
	return &fundamentalScreen{
		id:     "liability_vs_tangible_assets",
		desc:   "total liability < tangible assets",
		fields: fields,
		rule: func(row contracts.FundamentalsRow, in Input) verdict {
			v, ok := values(row, fields...)
			if !ok {
				return verdictMissing
			}
			tangible := v[0] + v[1] - v[2]
			if tangible <= 0 {
				return verdictDegenerate
			}
			return fromBool(v[2] < tangible)
		},
	}
}

// newCurrentRatio: current assets / current liability > min
func newCurrentRatio(p Params) Predicate {
	fields := []contracts.Field{contracts.FieldTotalCurrentAssets, contracts.FieldTotalCurrentLiability}
	return &fundamentalScreen{
		id:     "current_ratio",
		desc:   fmt.Sprintf("current assets / current liability > %.2f", p.MinCurrentRatio),
		fields: fields,
		rule: func(row contracts.FundamentalsRow, in Input) verdict {
			v, ok := values(row, fields...)
			if !ok {
				return verdictMissing
			}
			ratio, ok := PositiveDenominator(v[0], v[1])
			if !ok {
				return verdictDegenerate
			}
			return fromBool(ratio > p.MinCurrentRatio)
		},
	}
}

// newLiabilityVsNetCurrentAssets: liability < multiple × (current assets − liability)
func newLiabilityVsNetCurrentAssets(p Params) Predicate {
	fields := []contracts.Field{contracts.FieldTotalCurrentAssets, contracts.FieldTotalLiability}
	return &fundamentalScreen{
		id:     "liability_vs_net_current_assets",
		desc:   fmt.Sprintf("total liability < %.2f x net current assets", p.NetCurrentAssetMultiple),
		fields: fields,
		rule: func(row contracts.FundamentalsRow, in Input) verdict {
			v, ok := values(row, fields...)
			if !ok {
				return verdictMissing
			}
			net := v[0] - v[1]
			if net <= 0 {
				return verdictDegenerate
			}
			return fromBool(v[1] < p.NetCurrentAssetMultiple*net)
		},
	}
}
