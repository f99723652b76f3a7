package portfolio

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestRebalancer_Scenario(t *testing.T) {
	r := NewRebalancer(logger.NewNop())

	holdings := map[string]decimal.Decimal{"A": d(100), "B": d(50)}
	plan, err := r.Rebalance(holdings, []string{"B", "C"}, d(200))
	require.NoError(t, err)

	require.Len(t, plan.Liquidations, 1)
	assert.Equal(t, "A", plan.Liquidations[0].Code)
	assert.Equal(t, contracts.ActionLiquidate, plan.Liquidations[0].Action)
	assert.True(t, plan.IsLiquidated("A"))

	require.Len(t, plan.Targets, 2)
	for _, code := range []string{"B", "C"} {
		a, ok := plan.GetTarget(code)
		require.True(t, ok, code)
		assert.Equal(t, contracts.ActionTargetValue, a.Action)
		assert.True(t, a.TargetValue.Equal(d(100)), a.TargetValue.String())
	}

	// 청산이 먼저
	actions := plan.Actions()
	assert.Equal(t, "A", actions[0].Code)
	assert.Equal(t, []string{"B", "C"}, []string{actions[1].Code, actions[2].Code})
}

func TestRebalancer_SumApproximatesTotal(t *testing.T) {
	r := NewRebalancer(logger.NewNop())

	tests := []struct {
		name    string
		targets []string
		total   decimal.Decimal
	}{
		{"three way", []string{"A", "B", "C"}, d(100)},
		{"seven way", []string{"A", "B", "C", "D", "E", "F", "G"}, decimal.NewFromFloat(123456789.01)},
		{"single", []string{"A"}, d(1)},
	}

	tolerance := decimal.New(1, -8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := r.Rebalance(nil, tt.targets, tt.total)
			require.NoError(t, err)
			diff := plan.TargetSum().Sub(tt.total).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance), "diff %s", diff)
			assert.Empty(t, plan.Liquidations)
		})
	}
}

func TestRebalancer_EmptyTarget(t *testing.T) {
	r := NewRebalancer(logger.NewNop())

	_, err := r.Rebalance(map[string]decimal.Decimal{"A": d(1)}, nil, d(100))
	assert.True(t, errors.Is(err, contracts.ErrEmptyTarget))

	_, err = r.Rebalance(nil, []string{""}, d(100))
	assert.True(t, errors.Is(err, contracts.ErrEmptyTarget))
}

func TestRebalancer_NonPositiveTotal(t *testing.T) {
	r := NewRebalancer(logger.NewNop())

	_, err := r.Rebalance(nil, []string{"A"}, decimal.Zero)
	assert.Error(t, err)
	_, err = r.Rebalance(nil, []string{"A"}, d(-5))
	assert.Error(t, err)
}

func TestRebalancer_DuplicatesCollapsed(t *testing.T) {
	r := NewRebalancer(logger.NewNop())

	plan, err := r.Rebalance(nil, []string{"C", "A", "C", "B", "A"}, d(300))
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, []string{plan.Targets[0].Code, plan.Targets[1].Code, plan.Targets[2].Code})
	assert.True(t, plan.PerPosition.Equal(d(100)))
}

func TestRebalancer_HeldTargetsNotLiquidated(t *testing.T) {
	r := NewRebalancer(logger.NewNop())

	holdings := map[string]decimal.Decimal{"Z": d(10), "A": d(10), "M": d(10), "X": decimal.Zero}
	plan, err := r.Rebalance(holdings, []string{"A"}, d(90))
	require.NoError(t, err)

	var liquidated []string
	for _, a := range plan.Liquidations {
		liquidated = append(liquidated, a.Code)
	}
	assert.Equal(t, []string{"M", "Z"}, liquidated)
}
