package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action represents the action to take for a position
type Action string

const (
	ActionLiquidate   Action = "LIQUIDATE"    // 전량 청산
	ActionTargetValue Action = "TARGET_VALUE" // 목표 금액으로 조정
)

// PlannedAction is a single rebalance instruction
// ⭐ 계약: Rebalancer는 목표 금액만 산출, 수량 계산은 Executor 책임
type PlannedAction struct {
	Code        string          `json:"code"`
	Action      Action          `json:"action"`
	TargetValue decimal.Decimal `json:"target_value"` // LIQUIDATE면 0
}

// RebalancePlan is the full set of actions for one cycle
// ⭐ SSOT: S5 → S6 리밸런싱 계획 전달
type RebalancePlan struct {
	RunID        string          `json:"run_id,omitempty"`
	AsOf         time.Time       `json:"as_of"`
	TotalValue   decimal.Decimal `json:"total_value"`
	PerPosition  decimal.Decimal `json:"per_position"`
	Liquidations []PlannedAction `json:"liquidations"`
	Targets      []PlannedAction `json:"targets"`
}

// Actions returns liquidations followed by targets (submission order)
func (p *RebalancePlan) Actions() []PlannedAction {
	out := make([]PlannedAction, 0, len(p.Liquidations)+len(p.Targets))
	out = append(out, p.Liquidations...)
	return append(out, p.Targets...)
}

// TargetSum returns the sum of all target values
func (p *RebalancePlan) TargetSum() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range p.Targets {
		sum = sum.Add(a.TargetValue)
	}
	return sum
}

// Count returns the number of actions
func (p *RebalancePlan) Count() int {
	return len(p.Liquidations) + len(p.Targets)
}

// GetTarget finds a target action by code
func (p *RebalancePlan) GetTarget(code string) (*PlannedAction, bool) {
	for i := range p.Targets {
		if p.Targets[i].Code == code {
			return &p.Targets[i], true
		}
	}
	return nil, false
}

// IsLiquidated checks whether a code is scheduled for liquidation
func (p *RebalancePlan) IsLiquidated(code string) bool {
	for _, a := range p.Liquidations {
		if a.Code == code {
			return true
		}
	}
	return false
}
