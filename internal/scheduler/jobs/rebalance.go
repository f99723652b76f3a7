package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-value/internal/brain"
	"github.com/wonny/aegis-value/pkg/logger"
)

// DefaultRebalanceSchedule fires on the 1st of every month at 9 AM
const DefaultRebalanceSchedule = "0 0 9 1 * *"

// Ticker is the strategy entry point driven by the scheduler
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (*brain.RunResult, error)
}

// RebalanceJob advances the strategy by one month per trigger
// ⭐ SSOT: 리밸런싱 스케줄은 이 Job에서만
type RebalanceJob struct {
	strategy Ticker
	schedule string
	now      func() time.Time
	logger   *logger.Logger
}

// NewRebalanceJob creates a monthly rebalance job (empty schedule → default)
func NewRebalanceJob(strategy Ticker, schedule string, log *logger.Logger) *RebalanceJob {
	if schedule == "" {
		schedule = DefaultRebalanceSchedule
	}
	return &RebalanceJob{
		strategy: strategy,
		schedule: schedule,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	return "strategy_rebalance"
}

// Schedule returns the cron schedule
func (j *RebalanceJob) Schedule() string {
	return j.schedule
}

// MaxRetries is zero: 중단된 사이클은 다음 달까지 재실행하지 않음
func (j *RebalanceJob) MaxRetries() int {
	return 0
}

// Run executes one strategy tick
func (j *RebalanceJob) Run(ctx context.Context) error {
	result, err := j.strategy.Tick(ctx, j.now())
	if err != nil {
		return fmt.Errorf("strategy tick: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"month":  result.Month,
		"status": result.Status,
	}).Info("Scheduled tick finished")

	return nil
}
