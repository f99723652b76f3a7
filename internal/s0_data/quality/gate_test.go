package quality

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/internal/s0_data"
)

func d(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func provider() *s0_data.MemoryProvider {
	m := s0_data.NewMemoryProvider()
	m.AddTradingDays(d("2015-01-01"), d("2015-01-02"), d("2015-01-05"))
	m.SetIndexMembers("IDX", "A", "B", "C", "D")

	for _, code := range []string{"A", "B", "C"} {
		m.SetFundamentals(code, d("2014-12-31"), contracts.FundamentalsRow{
			Values: map[contracts.Field]float64{contracts.FieldPERatio: 10},
			Labels: map[contracts.Field]string{contracts.FieldIndustry: "bank"},
		})
	}
	m.SetFundamentals("D", d("2014-12-31"), contracts.FundamentalsRow{
		Values: map[contracts.Field]float64{contracts.FieldPERatio: 12},
	})

	for _, code := range []string{"A", "B", "C", "D"} {
		m.SetClose(code, d("2015-01-02"), 10)
	}
	return m
}

func TestGate_Check(t *testing.T) {
	gate := NewGate(provider(), DefaultConfig())

	snap, err := gate.Check(context.Background(), "IDX", d("2015-01-05"),
		[]contracts.Field{contracts.FieldPERatio, contracts.FieldIndustry})
	require.NoError(t, err)

	assert.Equal(t, d("2015-01-02"), snap.AsOf, "틱 전일 이전의 최근 거래일")
	assert.Equal(t, 4, snap.TotalStocks)
	assert.Equal(t, 3, snap.ValidStocks)
	assert.InDelta(t, 1.0, snap.Coverage["pe_ratio"], 1e-9)
	assert.InDelta(t, 0.75, snap.Coverage["industry"], 1e-9)
	assert.InDelta(t, 1.0, snap.Coverage["price"], 1e-9)
	assert.InDelta(t, (1.0+0.75+1.0)/3, snap.QualityScore, 1e-9)

	assert.False(t, snap.Passed)
	assert.Equal(t, []string{"industry coverage 0.75 < 0.80"}, snap.Failures)
}

func TestGate_Check_Passes(t *testing.T) {
	gate := NewGate(provider(), Config{MinFundamentalsCoverage: 0.5, MinPriceCoverage: 1})

	snap, err := gate.Check(context.Background(), "IDX", d("2015-01-05"),
		[]contracts.Field{contracts.FieldPERatio, contracts.FieldIndustry})
	require.NoError(t, err)
	assert.True(t, snap.Passed)
	assert.Empty(t, snap.Failures)
}

func TestGate_Check_NoMembers(t *testing.T) {
	gate := NewGate(provider(), DefaultConfig())

	snap, err := gate.Check(context.Background(), "OTHER", d("2015-01-05"),
		[]contracts.Field{contracts.FieldPERatio})
	require.NoError(t, err)
	assert.False(t, snap.Passed)
	assert.Equal(t, 0, snap.TotalStocks)
}

func TestGate_Check_BeforeCalendar(t *testing.T) {
	gate := NewGate(provider(), DefaultConfig())

	_, err := gate.Check(context.Background(), "IDX", d("2014-06-01"),
		[]contracts.Field{contracts.FieldPERatio})
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
}
