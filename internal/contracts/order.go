package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a submitted order intent passed to the executor journal
// ⭐ SSOT: S6 → Broker 주문 정보 전달
type Order struct {
	ID          string          `json:"id"`
	RunID       string          `json:"run_id"`
	Code        string          `json:"code"`
	Action      Action          `json:"action"`
	TargetValue decimal.Decimal `json:"target_value"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Status represents order status
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusRejected  Status = "REJECTED"
)

// IsLiquidation checks if the order closes a position
func (o *Order) IsLiquidation() bool {
	return o.Action == ActionLiquidate
}
