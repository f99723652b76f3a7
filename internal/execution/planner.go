package execution

import (
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-value/internal/contracts"
)

// Planner implements S6: plan → order intents
// ⭐ SSOT: S6 주문 생성 로직은 여기서만
type Planner struct {
	now func() time.Time
}

// NewPlanner creates a new order planner
func NewPlanner() *Planner {
	return &Planner{now: time.Now}
}

// Orders converts a plan into PENDING orders, liquidations first
func (p *Planner) Orders(plan *contracts.RebalancePlan) []contracts.Order {
	createdAt := p.now()
	actions := plan.Actions()
	orders := make([]contracts.Order, 0, len(actions))
	for _, a := range actions {
		orders = append(orders, contracts.Order{
			ID:          uuid.NewString(),
			RunID:       plan.RunID,
			Code:        a.Code,
			Action:      a.Action,
			TargetValue: a.TargetValue,
			Status:      contracts.StatusPending,
			CreatedAt:   createdAt,
		})
	}
	return orders
}
