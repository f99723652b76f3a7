package portfolio

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

// Rebalancer implements S5: equal-weight rebalancing
// ⭐ SSOT: S5 리밸런싱 계획 산출은 여기서만
//
// 수량/호가 계산은 Executor 책임. 여기서는 청산 대상과 목표 금액만 정한다.
type Rebalancer struct {
	logger *logger.Logger
}

// NewRebalancer creates a new rebalancer
func NewRebalancer(logger *logger.Logger) *Rebalancer {
	return &Rebalancer{logger: logger}
}

// Rebalance liquidates every holding outside targets and sets each target
// to totalValue / len(targets).
func (r *Rebalancer) Rebalance(holdings map[string]decimal.Decimal, targets []string, totalValue decimal.Decimal) (*contracts.RebalancePlan, error) {
	unique := dedupe(targets)
	if len(unique) == 0 {
		return nil, fmt.Errorf("rebalance: %w", contracts.ErrEmptyTarget)
	}
	if !totalValue.IsPositive() {
		return nil, fmt.Errorf("rebalance: total value must be positive, got %s", totalValue)
	}

	targetSet := make(map[string]bool, len(unique))
	for _, code := range unique {
		targetSet[code] = true
	}

	plan := &contracts.RebalancePlan{
		TotalValue:   totalValue,
		PerPosition:  totalValue.Div(decimal.NewFromInt(int64(len(unique)))),
		Liquidations: make([]contracts.PlannedAction, 0),
		Targets:      make([]contracts.PlannedAction, 0, len(unique)),
	}

	// 1. 청산: 코드 오름차순
	held := make([]string, 0, len(holdings))
	for code, value := range holdings {
		if value.IsZero() || targetSet[code] {
			continue
		}
		held = append(held, code)
	}
	sort.Strings(held)
	for _, code := range held {
		plan.Liquidations = append(plan.Liquidations, contracts.PlannedAction{
			Code:        code,
			Action:      contracts.ActionLiquidate,
			TargetValue: decimal.Zero,
		})
	}

	// 2. 목표 금액: 랭킹 순서 유지
	for _, code := range unique {
		plan.Targets = append(plan.Targets, contracts.PlannedAction{
			Code:        code,
			Action:      contracts.ActionTargetValue,
			TargetValue: plan.PerPosition,
		})
	}

	r.logger.WithFields(map[string]interface{}{
		"total_value":  totalValue.String(),
		"per_position": plan.PerPosition.StringFixed(2),
		"liquidations": len(plan.Liquidations),
		"targets":      len(plan.Targets),
		"duplicates":   len(targets) - len(unique),
	}).Info("Rebalance plan computed")

	return plan, nil
}

// dedupe drops duplicate and empty codes, keeping the first occurrence
func dedupe(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}
