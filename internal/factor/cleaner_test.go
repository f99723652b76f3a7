package factor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

func newTestCleaner(t *testing.T, cfg Config) *Cleaner {
	t.Helper()
	c, err := NewCleaner(cfg, logger.NewNop())
	require.NoError(t, err)
	return c
}

// sampleTable: 12종목, 두 업종, pe_ratio + market_cap
func sampleTable() *contracts.FactorTable {
	t := contracts.NewFactorTable(contracts.FieldPERatio)
	pe := []float64{8, 11, 9.5, 14, 7, 12.5, 10, 13, 6.5, 15, 9, 11.5}
	mcap := []float64{120, 80, 200, 150, 90, 60, 170, 110, 140, 75, 95, 130}
	codes := []string{"000010", "000020", "000030", "000040", "000050", "000060",
		"000070", "000080", "000090", "000100", "000110", "000120"}
	for i, code := range codes {
		t.Set(code, contracts.FieldPERatio, pe[i])
		t.Set(code, contracts.FieldMarketCap, mcap[i])
		industry := "bank"
		if i%2 == 1 {
			industry = "steel"
		}
		t.SetLabel(code, contracts.FieldIndustry, industry)
	}
	return t
}

func column(t *contracts.FactorTable, col contracts.Field) []float64 {
	var xs []float64
	for _, code := range t.Codes() {
		v, _ := t.Value(code, col)
		xs = append(xs, v)
	}
	return xs
}

func meanStd(xs []float64) (float64, float64) {
	var sum float64
	for _, v := range xs {
		sum += v
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, v := range xs {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}

func TestImputeMean(t *testing.T) {
	xs := []float64{1, math.NaN(), 3, math.Inf(1)}
	imputed, ok := ImputeMean(xs)
	require.True(t, ok)
	assert.Equal(t, 2, imputed)
	assert.Equal(t, []float64{1, 2, 3, 2}, xs)

	_, ok = ImputeMean([]float64{math.NaN(), math.NaN()})
	assert.False(t, ok)
}

func TestWinsorize_Bounds(t *testing.T) {
	// median 3, |x-3| = {2,1,0,1,97} → MAD 1, bounds [0, 6]
	xs := []float64{1, 2, 3, 4, 100}
	b, clipped, degenerate, err := Winsorize(xs, 3)
	require.NoError(t, err)
	assert.False(t, degenerate)
	assert.Equal(t, 3.0, b.Median)
	assert.Equal(t, 1.0, b.MAD)
	assert.Equal(t, 0.0, b.Lower)
	assert.Equal(t, 6.0, b.Upper)
	assert.Equal(t, 1, clipped)
	assert.Equal(t, []float64{1, 2, 3, 4, 6}, xs)

	for _, v := range xs {
		assert.True(t, b.Contains(v))
	}
}

func TestWinsorize_InclusiveBoundsUntouched(t *testing.T) {
	xs := []float64{0, 2, 3, 4, 6}
	_, clipped, _, err := Winsorize(xs, 1)
	require.NoError(t, err)
	// median 3, MAD 1 → [2, 4]
	assert.Equal(t, 2, clipped)
	assert.Equal(t, []float64{2, 2, 3, 4, 4}, xs)
}

func TestWinsorize_InfinityTreatedAsMissing(t *testing.T) {
	xs := []float64{1, 2, 3, math.Inf(1), math.Inf(-1)}
	_, _, _, err := Winsorize(xs, 3)
	require.NoError(t, err)
	for _, v := range xs {
		assert.False(t, math.IsInf(v, 0))
		assert.False(t, math.IsNaN(v))
	}
	assert.Equal(t, 2.0, xs[3])
	assert.Equal(t, 2.0, xs[4])
}

func TestWinsorize_ZeroMADCollapsesToMedian(t *testing.T) {
	xs := []float64{5, 5, 5, 5, 9}
	b, clipped, degenerate, err := Winsorize(xs, 3)
	require.NoError(t, err)
	assert.True(t, degenerate)
	assert.Equal(t, 1, clipped)
	assert.Equal(t, 5.0, b.Lower)
	assert.Equal(t, 5.0, b.Upper)
	for _, v := range xs {
		assert.True(t, b.Contains(v), "value %v outside [%v, %v]", v, b.Lower, b.Upper)
	}
}

func TestWinsorize_OutputWithinBounds(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
	}{
		{"spread", []float64{1, 2, 3, 4, 100, -50}},
		{"majority equal", []float64{5, 5, 5, 5, 9, -3}},
		{"imputed mean dominates", []float64{10, 12, 4000, math.NaN(), math.NaN(), math.NaN(), math.NaN()}},
		{"infinite", []float64{1, 2, math.Inf(1), 3, math.Inf(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xs := append([]float64{}, tt.xs...)
			b, _, _, err := Winsorize(xs, 3)
			require.NoError(t, err)
			for _, v := range xs {
				assert.True(t, b.Contains(v), "value %v outside [%v, %v]", v, b.Lower, b.Upper)
			}
		})
	}
}

func TestCleaner_CapsOutlierWhenMADIsZero(t *testing.T) {
	c := newTestCleaner(t, Config{WinsorizeScale: 3})

	raw := contracts.NewFactorTable(contracts.FieldPERatio)
	for code, pe := range map[string]float64{"A": 10, "B": 12, "C": 4000, "D": math.NaN(), "E": math.NaN(), "F": math.NaN(), "G": math.NaN()} {
		raw.Set(code, contracts.FieldPERatio, pe)
	}

	out, report, err := c.Clean(raw)
	require.NoError(t, err)

	cr := report.Columns[contracts.FieldPERatio]
	assert.Equal(t, 0.0, cr.MAD)
	assert.Equal(t, 3, cr.Clipped)
	assert.True(t, cr.Degenerate)
	for _, v := range column(out, contracts.FieldPERatio) {
		assert.Equal(t, 0.0, v)
	}
}

func TestStandardize(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.False(t, Standardize(xs))
	mean, std := meanStd(xs)
	assert.InDelta(t, 0, mean, 1e-12)
	assert.InDelta(t, 1, std, 1e-12)
}

func TestStandardize_ZeroVariance(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
	}{
		{"constant", []float64{0.1, 0.1, 0.1}},
		{"single", []float64{42}},
		{"large constant", []float64{1e12, 1e12, 1e12, 1e12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Standardize(tt.xs))
			for _, v := range tt.xs {
				assert.Equal(t, 0.0, v)
			}
		})
	}
}

func TestResidualize_RankDeficient(t *testing.T) {
	c := &Cleaner{config: Config{Controls: []contracts.Field{contracts.FieldIndustry}}}
	table := sampleTable()
	// 업종 하나뿐 → 더미 열 없음, 절편만
	for _, code := range table.Codes() {
		table.SetLabel(code, contracts.FieldIndustry, "bank")
	}
	d, err := c.design(table, table.Codes())
	require.NoError(t, err)
	assert.Equal(t, []string{"intercept"}, d.Names)

	y := column(table, contracts.FieldPERatio)
	resid, err := Residualize(y, d)
	require.NoError(t, err)
	mean, _ := meanStd(y)
	for i := range y {
		assert.InDelta(t, y[i]-mean, resid[i], 1e-9)
	}
}

func TestNeutralize_Idempotent(t *testing.T) {
	controls := []contracts.Field{contracts.FieldIndustry, contracts.FieldMarketCap}

	once, err := neutralize(sampleTable(), controls)
	require.NoError(t, err)
	twice, err := neutralize(once, controls)
	require.NoError(t, err)

	require.Equal(t, once.Codes(), twice.Codes())
	for _, code := range once.Codes() {
		a, _ := once.Value(code, contracts.FieldPERatio)
		b, _ := twice.Value(code, contracts.FieldPERatio)
		assert.InDelta(t, a, b, 1e-9, code)
	}
}

func TestNeutralize_RemovesIndustryMean(t *testing.T) {
	out, err := neutralize(sampleTable(), []contracts.Field{contracts.FieldIndustry})
	require.NoError(t, err)

	sums := map[string]float64{}
	for _, code := range out.Codes() {
		v, _ := out.Value(code, contracts.FieldPERatio)
		label, _ := out.Label(code, contracts.FieldIndustry)
		sums[label] += v
	}
	assert.InDelta(t, 0, sums["bank"], 1e-9)
	assert.InDelta(t, 0, sums["steel"], 1e-9)
}

func TestCleaner_Clean(t *testing.T) {
	c := newTestCleaner(t, DefaultConfig())

	raw := sampleTable()
	raw.Set("000130", contracts.FieldPERatio, 400) // 이상치
	raw.Set("000130", contracts.FieldMarketCap, 100)
	raw.SetLabel("000130", contracts.FieldIndustry, "bank")
	raw.Set("000140", contracts.FieldPERatio, math.NaN()) // 결측 → 평균 대체
	raw.Set("000140", contracts.FieldMarketCap, 100)
	raw.SetLabel("000140", contracts.FieldIndustry, "steel")
	raw.Set("000150", contracts.FieldPERatio, 10) // 업종 없음 → 제외
	raw.Set("000150", contracts.FieldMarketCap, 100)

	out, report, err := c.Clean(raw)
	require.NoError(t, err)

	// 입력 테이블은 그대로
	v, _ := raw.Value("000130", contracts.FieldPERatio)
	assert.Equal(t, 400.0, v)
	_, ok := raw.Value("000140", contracts.FieldPERatio)
	assert.False(t, ok)

	assert.Equal(t, 15, report.Input)
	assert.Equal(t, 14, report.Output)
	assert.Equal(t, 1, report.Dropped[ReasonMissingLabel])
	assert.Equal(t, 1, report.Columns[contracts.FieldPERatio].Imputed)
	// 이상치 400과 그에 끌려 올라간 평균 대체값 둘 다 상한으로
	assert.Equal(t, 2, report.Columns[contracts.FieldPERatio].Clipped)
	assert.Equal(t, 11.25, report.Columns[contracts.FieldPERatio].Median)
	assert.Equal(t, 2.5, report.Columns[contracts.FieldPERatio].MAD)

	_, ok = out.Value("000150", contracts.FieldPERatio)
	assert.False(t, ok)

	// 기본값: 중립화 잔차 그대로 (절편 → 평균 0, 분산은 설명된 만큼 줄어듦)
	xs := column(out, contracts.FieldPERatio)
	mean, std := meanStd(xs)
	assert.InDelta(t, 0, mean, 1e-9)
	assert.Less(t, std, 1.0)

	// 통제 변수는 다음 정제를 위해 유지
	_, ok = out.Value("000130", contracts.FieldMarketCap)
	assert.True(t, ok)
}

func TestCleaner_Restandardize(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Restandardize)
	cfg.Restandardize = true
	c := newTestCleaner(t, cfg)

	out, _, err := c.Clean(sampleTable())
	require.NoError(t, err)

	mean, std := meanStd(column(out, contracts.FieldPERatio))
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, std, 1e-9)
}

func TestCleaner_Idempotent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Restandardize = true
	c := newTestCleaner(t, cfg)

	once, _, err := c.Clean(sampleTable())
	require.NoError(t, err)
	twice, _, err := c.Clean(once)
	require.NoError(t, err)

	require.Equal(t, once.Codes(), twice.Codes())
	for _, code := range once.Codes() {
		a, _ := once.Value(code, contracts.FieldPERatio)
		b, _ := twice.Value(code, contracts.FieldPERatio)
		assert.InDelta(t, a, b, 1e-6, code)
	}
}

func TestCleaner_ControlEqualsColumnIsDegenerate(t *testing.T) {
	c := newTestCleaner(t, Config{
		WinsorizeScale: 3,
		Controls:       []contracts.Field{contracts.FieldPERatio},
		Restandardize:  true,
	})

	out, report, err := c.Clean(sampleTable())
	require.NoError(t, err)
	assert.True(t, report.Columns[contracts.FieldPERatio].Degenerate)
	for _, v := range column(out, contracts.FieldPERatio) {
		assert.Equal(t, 0.0, v)
	}
}

func TestCleaner_Errors(t *testing.T) {
	_, err := NewCleaner(Config{WinsorizeScale: 0}, logger.NewNop())
	assert.Error(t, err)

	_, err = NewCleaner(Config{WinsorizeScale: 3, Controls: []contracts.Field{"sector_pe"}}, logger.NewNop())
	assert.Error(t, err)

	c := newTestCleaner(t, DefaultConfig())

	_, _, err = c.Clean(contracts.NewFactorTable(contracts.FieldPERatio))
	assert.True(t, errors.Is(err, contracts.ErrEmptyCandidateSet))

	raw := contracts.NewFactorTable(contracts.FieldPERatio)
	raw.Set("000010", contracts.FieldPERatio, math.NaN())
	raw.Set("000010", contracts.FieldMarketCap, 1)
	raw.SetLabel("000010", contracts.FieldIndustry, "bank")
	_, _, err = c.Clean(raw)
	assert.True(t, errors.Is(err, contracts.ErrEmptyCandidateSet))
}
