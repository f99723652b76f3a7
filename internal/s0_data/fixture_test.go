package s0_data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/internal/contracts"
)

const sampleFixture = `
trading_days:
  weekdays: {from: "2015-01-01", to: "2015-01-31"}
  dates: ["2015-01-03"]
index_members:
  "000002.XSHG": ["A", "B"]
fundamentals:
  - date: "2015-01-30"
    rows:
      A: {pe_ratio: 5, market_cap: 100.5, industry: bank}
      B: {pe_ratio: ~}
prices:
  A: {"2015-01-30": 10.5}
synthetic_prices:
  - code: B
    range: {from: "2015-01-01", to: "2015-01-31"}
    start: 10
    annual_growth: 0.1
distributions:
  - {code: A, report_date: "2014-06-01", yield: 3.5}
`

func TestParseFixture(t *testing.T) {
	m, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)
	ctx := context.Background()

	days, err := m.TradingDays(ctx)
	require.NoError(t, err)
	assert.Len(t, days, 22+1)

	members, err := m.IndexMembers(ctx, "000002.XSHG", d("2015-01-30"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, members)

	table, err := m.Fundamentals(ctx, members,
		[]contracts.Field{contracts.FieldPERatio, contracts.FieldIndustry}, d("2015-01-30"))
	require.NoError(t, err)
	pe, ok := table.Rows["A"].Value(contracts.FieldPERatio)
	require.True(t, ok)
	assert.Equal(t, 5.0, pe)
	industry, ok := table.Rows["A"].Label(contracts.FieldIndustry)
	require.True(t, ok)
	assert.Equal(t, "bank", industry)
	_, ok = table.Rows["B"].Value(contracts.FieldPERatio)
	assert.False(t, ok)

	prices, err := m.ClosePrices(ctx, []string{"A", "B"}, d("2015-01-01"), d("2015-01-31"))
	require.NoError(t, err)
	first, ok := prices.Close("B", d("2015-01-01"))
	require.True(t, ok)
	last, ok := prices.Close("B", d("2015-01-30"))
	require.True(t, ok)
	assert.Equal(t, 10.0, first)
	assert.Greater(t, last, first)

	events, err := m.DistributionEvents(ctx, members, contracts.DistributionFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestParseFixture_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown top-level key", "bogus: 1\n"},
		{"unknown field", "fundamentals:\n  - date: \"2015-01-30\"\n    rows:\n      A: {roe: 1}\n"},
		{"label on numeric field", "fundamentals:\n  - date: \"2015-01-30\"\n    rows:\n      A: {pe_ratio: high}\n"},
		{"bad date", "prices:\n  A: {\"2015/01/30\": 1}\n"},
		{"reversed range", "trading_days:\n  weekdays: {from: \"2015-02-01\", to: \"2015-01-01\"}\n"},
		{"non-positive synthetic start", "synthetic_prices:\n  - {code: A, range: {from: \"2015-01-01\", to: \"2015-01-02\"}, start: 0}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
