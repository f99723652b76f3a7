package screening

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/internal/contracts"
)

func run(t *testing.T, p Predicate, in Input) *contracts.ScreenResult {
	t.Helper()
	res, err := p.Screen(context.Background(), in)
	require.NoError(t, err)
	return res
}

func TestPEVsBondYield_Scenario(t *testing.T) {
	f := newFixture("A", "B", "C", "D")
	for code, pe := range map[string]float64{"A": 5, "B": 50, "C": 8, "D": 12} {
		f.set(code, map[contracts.Field]float64{contracts.FieldPERatio: pe})
	}

	// 100/PE > 4 x 2 = 8 → A(20), C(12.5), D(8.33)
	res := run(t, newPEVsBondYield(DefaultParams()), f.input(4.0))
	assert.Equal(t, []string{"A", "C", "D"}, res.Passed.Sorted())
}

func TestPEVsBondYield_UndefinedExcluded(t *testing.T) {
	f := newFixture("NEG", "ZERO", "MISSING", "NOROW", "OK")
	f.set("NEG", map[contracts.Field]float64{contracts.FieldPERatio: -5})
	f.set("ZERO", map[contracts.Field]float64{contracts.FieldPERatio: 0})
	f.set("MISSING", map[contracts.Field]float64{contracts.FieldMarketCap: 1})
	f.set("OK", map[contracts.Field]float64{contracts.FieldPERatio: 1})

	res := run(t, newPEVsBondYield(DefaultParams()), f.input(4.0))
	assert.Equal(t, []string{"OK"}, res.Passed.Sorted())
	assert.Equal(t, 2, res.Excluded[ReasonDegenerate])
	assert.Equal(t, 2, res.Excluded[ReasonMissingData])
}

func TestPEVsBondYield_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	codes := make([]string, 200)
	f := newFixture()
	for i := range codes {
		codes[i] = fmt.Sprintf("S%03d", i)
		f.set(codes[i], map[contracts.Field]float64{contracts.FieldPERatio: rng.Float64()*60 - 10})
	}
	f.codes = codes

	prev := contracts.StockSet(nil)
	for _, multiple := range []float64{0.5, 1, 2, 3, 5} {
		p := DefaultParams()
		p.EarningsYieldMultiple = multiple
		res := run(t, newPEVsBondYield(p), f.input(4.0))
		if prev != nil {
			for code := range res.Passed {
				assert.True(t, prev.Has(code), "multiple %.1f passed %s not in looser set", multiple, code)
			}
		}
		prev = res.Passed
	}
}

func TestMarketCapVsTangibleAssets_MonotonicInFraction(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	f := newFixture()
	for i := 0; i < 100; i++ {
		code := fmt.Sprintf("S%03d", i)
		f.codes = append(f.codes, code)
		f.set(code, map[contracts.Field]float64{
			contracts.FieldMarketCap:          rng.Float64() * 100,
			contracts.FieldTotalCurrentAssets: rng.Float64() * 100,
			contracts.FieldFixedAssets:        rng.Float64() * 100,
			contracts.FieldTotalLiability:     rng.Float64() * 100,
		})
	}

	var prev contracts.StockSet
	for _, frac := range []float64{0.2, 0.5, 2.0 / 3.0, 1, 2} {
		p := DefaultParams()
		p.TangibleAssetFraction = frac
		res := run(t, newMarketCapVsTangibleAssets(p), f.input(4.0))
		if prev != nil {
			for code := range prev {
				assert.True(t, res.Passed.Has(code), "fraction %.2f lost %s", frac, code)
			}
		}
		prev = res.Passed
	}
}

func TestBalanceSheetScreens(t *testing.T) {
	f := newFixture("GOOD", "BAD", "DEGEN")
	f.set("GOOD", map[contracts.Field]float64{
		contracts.FieldMarketCap:             10,
		contracts.FieldTotalCurrentAssets:    100,
		contracts.FieldFixedAssets:           50,
		contracts.FieldTotalLiability:        30,
		contracts.FieldTotalCurrentLiability: 20,
	})
	f.set("BAD", map[contracts.Field]float64{
		contracts.FieldMarketCap:             500,
		contracts.FieldTotalCurrentAssets:    100,
		contracts.FieldFixedAssets:           10,
		contracts.FieldTotalLiability:        60,
		contracts.FieldTotalCurrentLiability: 60,
	})
	f.set("DEGEN", map[contracts.Field]float64{
		contracts.FieldMarketCap:             10,
		contracts.FieldTotalCurrentAssets:    10,
		contracts.FieldFixedAssets:           0,
		contracts.FieldTotalLiability:        50,
		contracts.FieldTotalCurrentLiability: 0,
	})

	p := DefaultParams()
	tests := []struct {
		pred       Predicate
		wantPassed []string
	}{
		// GOOD: 10 < 2/3*(100+50-30)=80
		{newMarketCapVsTangibleAssets(p), []string{"GOOD"}},
		// GOOD: 10 < 2/3*(100-30)=46.7
		{newMarketCapVsNetCurrentAssets(p), []string{"GOOD"}},
		// GOOD: 30 < 120, BAD: 60 < 50 false
		{newLiabilityVsTangibleAssets(p), []string{"GOOD"}},
		// GOOD: 100/20=5 > 2, BAD: 100/60 < 2
		{newCurrentRatio(p), []string{"GOOD"}},
		// GOOD: 30 < 2*(70), BAD: 60 < 2*40=80 true
		{newLiabilityVsNetCurrentAssets(p), []string{"BAD", "GOOD"}},
	}

	for _, tt := range tests {
		t.Run(tt.pred.ID(), func(t *testing.T) {
			res := run(t, tt.pred, f.input(4.0))
			assert.Equal(t, tt.wantPassed, res.Passed.Sorted())
			assert.Equal(t, 1, res.Excluded[ReasonDegenerate], "DEGEN has non-positive denominator")
		})
	}
}

func TestPEVsFiveYearMax_PerStock(t *testing.T) {
	f := newFixture("LOW", "HIGH", "NEGPEAK", "NOHIST")
	series := map[string][]float64{
		"LOW":     {50, 40, 10},  // 10 < 0.4*50
		"HIGH":    {30, 25, 20},  // 20 >= 0.4*30
		"NEGPEAK": {-5, -3, -10}, // 최대값 <= 0
	}
	for code, values := range series {
		for i, v := range values {
			f.provider.SetFundamentals(code, asOf.AddDate(0, 0, i-len(values)+1),
				contracts.FundamentalsRow{Values: map[contracts.Field]float64{contracts.FieldPERatioLYR: v}})
		}
	}
	f.provider.SetFundamentals("NOHIST", asOf, contracts.FundamentalsRow{Values: map[contracts.Field]float64{}})

	p := &peHistoryScreen{fraction: 0.4, window: 1250}
	res := run(t, p, f.input(4.0))

	assert.Equal(t, []string{"LOW"}, res.Passed.Sorted())
	assert.Equal(t, 1, res.Excluded[ReasonDegenerate])
	assert.Equal(t, 1, res.Excluded[ReasonMissingData])
}

func TestDividendYield(t *testing.T) {
	f := newFixture("RECENT", "OLD", "FUTURE", "LOW", "NOFUND")
	for _, code := range f.codes {
		if code != "NOFUND" {
			f.set(code, map[contracts.Field]float64{contracts.FieldMarketCap: 1})
		}
	}
	f.provider.AddDistribution(contracts.DistributionEvent{Code: "RECENT", ReportDate: d("2014-07-01"), Yield: 3.0})
	f.provider.AddDistribution(contracts.DistributionEvent{Code: "OLD", ReportDate: d("2013-07-01"), Yield: 3.0})
	f.provider.AddDistribution(contracts.DistributionEvent{Code: "FUTURE", ReportDate: d("2015-03-15"), Yield: 3.0})
	f.provider.AddDistribution(contracts.DistributionEvent{Code: "LOW", ReportDate: d("2014-07-01"), Yield: 2.0})
	f.provider.AddDistribution(contracts.DistributionEvent{Code: "NOFUND", ReportDate: d("2014-07-01"), Yield: 9.0})

	// 임계값 = 4.0 * 2/3 = 2.67
	p := &dividendScreen{ratio: 2.0 / 3.0, lookbackDays: 365}
	res := run(t, p, f.input(4.0))

	assert.Equal(t, []string{"RECENT"}, res.Passed.Sorted())
	assert.Equal(t, 1, res.Excluded[ReasonMissingData])
}

func TestPriceScreens(t *testing.T) {
	f := newFixture("GROWER", "FLAT", "CRASHER", "YOUNG")
	in := f.input(4.0)

	anchors, err := in.Calendar.YearlyAnchors(in.Reference, 10)
	require.NoError(t, err)

	for k, day := range anchors {
		// GROWER: 연 10% 성장 → k년 전 = 100 / 1.1^k
		grower := 100.0
		for i := 0; i < k; i++ {
			grower /= 1.1
		}
		f.provider.SetClose("GROWER", day, grower)
		f.provider.SetClose("FLAT", day, 50)
		// CRASHER: 짝수 해마다 -20%
		crash := 100.0
		if k%2 == 1 {
			crash = 125
		}
		f.provider.SetClose("CRASHER", day, crash)
		if k < 5 {
			f.provider.SetClose("YOUNG", day, 10)
		}
	}

	cagr := run(t, &cagrScreen{years: 10, min: 0.07}, in)
	assert.Equal(t, []string{"GROWER"}, cagr.Passed.Sorted())
	assert.Equal(t, 1, cagr.Excluded[ReasonMissingData])

	loss := run(t, &lossYearsScreen{years: 10, threshold: -0.05, max: 2}, in)
	assert.Equal(t, []string{"FLAT", "GROWER"}, loss.Passed.Sorted())
	assert.Equal(t, 1, loss.Excluded[ReasonMissingData])
}

func TestPriceScreens_ShortCalendar(t *testing.T) {
	f := newFixture("A")
	in := f.input(4.0)
	in.Reference = d("2005-01-01") // 10년 전 거래일 없음

	res := run(t, &lossYearsScreen{years: 10, threshold: -0.05, max: 2}, in)
	assert.Equal(t, 0, res.PassedCount())
	assert.Equal(t, 1, res.Excluded[ReasonMissingData])
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry(DefaultParams())

	assert.Len(t, r.IDs(), 10)
	assert.True(t, r.Has("loss_years"))
	assert.Error(t, r.Register(newCurrentRatio(DefaultParams())))

	for _, id := range r.IDs() {
		p, ok := r.Get(id)
		require.True(t, ok)
		assert.NotEmpty(t, p.Description())
	}
}
