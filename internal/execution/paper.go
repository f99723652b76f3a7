package execution

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

// PaperBroker is an in-memory Executor that tracks holdings by value
// ⭐ 실제 주문 없음: 계획을 검증 후 한 번에 반영 (부분 반영 없음)
type PaperBroker struct {
	mu        sync.Mutex
	cash      decimal.Decimal
	positions map[string]decimal.Decimal
	submitted []*contracts.RebalancePlan
	logger    *logger.Logger
}

// NewPaperBroker creates a broker with starting cash
func NewPaperBroker(cash decimal.Decimal, logger *logger.Logger) *PaperBroker {
	return &PaperBroker{
		cash:      cash,
		positions: make(map[string]decimal.Decimal),
		logger:    logger,
	}
}

// SetHolding sets a position value (cash unchanged)
func (b *PaperBroker) SetHolding(code string, value decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if value.IsZero() {
		delete(b.positions, code)
		return
	}
	b.positions[code] = value
}

// Holdings returns a copy of code → value
func (b *PaperBroker) Holdings(ctx context.Context) (map[string]decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(b.positions))
	for code, v := range b.positions {
		out[code] = v
	}
	return out, nil
}

// Cash returns the uninvested cash
func (b *PaperBroker) Cash() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cash
}

// TotalValue returns cash + positions
func (b *PaperBroker) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalLocked(), nil
}

func (b *PaperBroker) totalLocked() decimal.Decimal {
	total := b.cash
	for _, v := range b.positions {
		total = total.Add(v)
	}
	return total
}

// Submit validates the whole plan, then applies liquidations and targets
func (b *PaperBroker) Submit(ctx context.Context, plan *contracts.RebalancePlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("submit: nil plan")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// 1. 검증
	total := b.totalLocked()
	for _, a := range plan.Actions() {
		if a.Code == "" {
			return fmt.Errorf("submit: empty stock code")
		}
		if a.TargetValue.IsNegative() {
			return fmt.Errorf("submit %s: negative target value %s", a.Code, a.TargetValue)
		}
		if a.Action != contracts.ActionLiquidate && a.Action != contracts.ActionTargetValue {
			return fmt.Errorf("submit %s: unknown action %q", a.Code, a.Action)
		}
	}
	if sum := plan.TargetSum(); sum.GreaterThan(total.Add(decimal.New(1, -6))) {
		return fmt.Errorf("submit: targets %s exceed portfolio value %s", sum, total)
	}

	// 2. 반영 (복사본에 적용 후 교체)
	cash := b.cash
	positions := make(map[string]decimal.Decimal, len(b.positions))
	for code, v := range b.positions {
		positions[code] = v
	}
	for _, a := range plan.Liquidations {
		cash = cash.Add(positions[a.Code])
		delete(positions, a.Code)
	}
	for _, a := range plan.Targets {
		cash = cash.Sub(a.TargetValue.Sub(positions[a.Code]))
		if a.TargetValue.IsZero() {
			delete(positions, a.Code)
			continue
		}
		positions[a.Code] = a.TargetValue
	}
	b.cash = cash
	b.positions = positions
	b.submitted = append(b.submitted, plan)

	b.logger.WithFields(map[string]interface{}{
		"run_id":       plan.RunID,
		"liquidations": len(plan.Liquidations),
		"targets":      len(plan.Targets),
		"cash":         cash.StringFixed(2),
		"positions":    len(positions),
	}).Info("Paper plan applied")

	return nil
}

// Submitted returns the plans applied so far
func (b *PaperBroker) Submitted() []*contracts.RebalancePlan {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*contracts.RebalancePlan(nil), b.submitted...)
}

// HeldCodes returns held codes in ascending order
func (b *PaperBroker) HeldCodes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	codes := make([]string, 0, len(b.positions))
	for code := range b.positions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
