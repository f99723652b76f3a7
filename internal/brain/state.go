package brain

import (
	"time"

	"github.com/wonny/aegis-value/internal/contracts"
)

// State is the strategy state carried across ticks (RebalanceCycleState)
// ⭐ SSOT: 프로세스 전역 변수 대신 명시적 상태
type State struct {
	Month       int                 `json:"month"`  // 다음 틱의 카운터 (1부터)
	Period      int                 `json:"period"` // 리밸런싱 주기 (개월)
	Universe    *contracts.Universe `json:"universe,omitempty"`
	BondYield   float64             `json:"bond_yield"` // 마지막 사이클의 금리 (%)
	LastAsOf    time.Time           `json:"last_as_of,omitempty"`
	LastRunID   string              `json:"last_run_id,omitempty"`
	Initialized time.Time           `json:"initialized"`
}

// IsRebalanceMonth reports whether counter month triggers a rebalance:
// period 3 → 1, 4, 7, 10 ...
func IsRebalanceMonth(month, period int) bool {
	if period < 1 || month < 1 {
		return false
	}
	return (month-1)%period == 0
}

// NextRebalanceMonth returns the first counter ≥ month that rebalances
func NextRebalanceMonth(month, period int) int {
	if month < 1 {
		month = 1
	}
	if period < 1 {
		return month
	}
	for !IsRebalanceMonth(month, period) {
		month++
	}
	return month
}
