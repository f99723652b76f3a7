package brain

import (
	"errors"
	"time"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/internal/factor"
)

// RunStatus is the outcome of one tick
type RunStatus string

const (
	StatusRebalanced RunStatus = "rebalanced" // 계획 제출 완료
	StatusSkipped    RunStatus = "skipped"    // 리밸런싱 월 아님
	StatusDryRun     RunStatus = "dry_run"    // 계획만 산출
	StatusAborted    RunStatus = "aborted"    // 사이클 중단 (주문 없음)
)

// ScreenSummary is the recorded outcome of one screen
type ScreenSummary struct {
	ID       string         `json:"id"`
	Passed   int            `json:"passed"`
	Excluded map[string]int `json:"excluded,omitempty"`
}

// RunResult holds everything decided in one tick
type RunResult struct {
	RunID      string                   `json:"run_id"`
	Month      int                      `json:"month"`
	TickAt     time.Time                `json:"tick_at"`
	AsOf       time.Time                `json:"as_of,omitempty"`
	BondYield  float64                  `json:"bond_yield"`
	Status     RunStatus                `json:"status"`
	Stage      contracts.Stage          `json:"stage,omitempty"` // 마지막으로 진입한 단계
	Error      string                   `json:"error,omitempty"`
	ConfigHash string                   `json:"config_hash"`
	DryRun     bool                     `json:"dry_run"`
	Universe   int                      `json:"universe"`
	Screens    []ScreenSummary          `json:"screens,omitempty"`
	Candidates []string                 `json:"candidates,omitempty"`
	Cleaning   *factor.Report           `json:"cleaning,omitempty"`
	Ranked     []contracts.RankedStock  `json:"ranked,omitempty"`
	Plan       *contracts.RebalancePlan `json:"plan,omitempty"`
	Duration   time.Duration            `json:"duration"`
}

// AbortReason classifies a cycle error for metrics and logs
func AbortReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, contracts.ErrEmptyCandidateSet):
		return "empty_candidate_set"
	case errors.Is(err, contracts.ErrEmptyTarget):
		return "empty_target"
	case errors.Is(err, contracts.ErrNoActiveScreens):
		return "no_active_screens"
	case errors.Is(err, contracts.ErrBondYieldUndefined):
		return "bond_yield_undefined"
	case errors.Is(err, contracts.ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, contracts.ErrDegenerateComputation):
		return "degenerate"
	default:
		return "error"
	}
}
