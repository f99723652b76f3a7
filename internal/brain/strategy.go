package brain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-value/internal/bondyield"
	"github.com/wonny/aegis-value/internal/calendar"
	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/internal/factor"
	"github.com/wonny/aegis-value/internal/portfolio"
	"github.com/wonny/aegis-value/internal/s1_universe"
	"github.com/wonny/aegis-value/internal/screening"
	"github.com/wonny/aegis-value/internal/selection"
	"github.com/wonny/aegis-value/internal/strategyconfig"
	"github.com/wonny/aegis-value/pkg/logger"
	"github.com/wonny/aegis-value/pkg/metrics"
)

// lockTTL bounds a cycle held across processes
const lockTTL = 10 * time.Minute

// Locker serializes cycles across processes
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

// RunRecorder journals tick results
type RunRecorder interface {
	SaveRun(ctx context.Context, result *RunResult) error
	LastRun(ctx context.Context) (*RunResult, error)
}

// Deps are the collaborators of a Strategy
type Deps struct {
	Provider contracts.DataProvider
	Executor contracts.Executor
	Config   *strategyconfig.Config
	Recorder RunRecorder       // 선택
	Metrics  *metrics.Registry // 선택
	Lock     Locker            // 선택
	DryRun   bool
	Logger   *logger.Logger
}

// Strategy coordinates one rebalancing cycle per tick
// ⭐ SSOT: 파이프라인 조율은 여기서만 (S0 → S6)
type Strategy struct {
	mu sync.Mutex

	provider contracts.DataProvider
	executor contracts.Executor
	recorder RunRecorder
	metrics  *metrics.Registry
	lock     Locker
	dryRun   bool

	config     *strategyconfig.Config
	configHash string
	bondYield  *bondyield.Series

	universeBuilder *s1_universe.Builder
	screener        *screening.Screener
	cleaner         *factor.Cleaner
	ranker          *selection.Ranker
	rebalancer      *portfolio.Rebalancer

	state State
	last  *RunResult

	logger *logger.Logger
}

// NewStrategy wires every stage from the strategy config
func NewStrategy(deps Deps) (*Strategy, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}
	if deps.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("strategy config is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	cfg := deps.Config

	if err := strategyconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid strategy config: %w", err)
	}
	for _, w := range strategyconfig.Warn(cfg) {
		deps.Logger.WithFields(map[string]interface{}{
			"code": w.Code,
		}).Warn(w.Message)
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}
	series, err := cfg.BondYieldSeries()
	if err != nil {
		return nil, fmt.Errorf("bond yield series: %w", err)
	}

	screener, err := screening.NewScreener(
		screening.DefaultRegistry(cfg.Screening.Params), cfg.ScreenPolicy(), deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("screener: %w", err)
	}
	cleaner, err := factor.NewCleaner(cfg.CleanerConfig(), deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("cleaner: %w", err)
	}
	ranker, err := selection.NewRanker(cfg.SortPolicy(), deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("ranker: %w", err)
	}

	return &Strategy{
		provider:        deps.Provider,
		executor:        deps.Executor,
		recorder:        deps.Recorder,
		metrics:         deps.Metrics,
		lock:            deps.Lock,
		dryRun:          deps.DryRun,
		config:          cfg,
		configHash:      hash,
		bondYield:       series,
		universeBuilder: s1_universe.NewBuilder(deps.Provider, cfg.Universe, deps.Logger),
		screener:        screener,
		cleaner:         cleaner,
		ranker:          ranker,
		rebalancer:      portfolio.NewRebalancer(deps.Logger),
		logger:          deps.Logger,
	}, nil
}

// Initialize fixes the universe at now and resets the cadence counter
func (s *Strategy) Initialize(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	universe, err := s.universeBuilder.Build(ctx, now)
	if err != nil {
		return fmt.Errorf("initialize universe: %w", err)
	}
	s.metrics.ObserveStage(contracts.StageUniverse.String(), start)

	s.state = State{
		Month:       1,
		Period:      s.config.Period,
		Universe:    universe,
		Initialized: now,
	}
	// 초기화 시점 금리는 표시용; 사이클은 AsOf 기준으로 다시 조회하여 판단
	if rate, err := s.bondYield.RateAt(now); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"initialized":     contracts.DateString(now),
			"first_effective": contracts.DateString(s.bondYield.First()),
		}).Warn("Bond yield undefined at initialization")
	} else {
		s.state.BondYield = rate
	}
	s.metrics.SetMonth(1)

	s.logger.WithFields(map[string]interface{}{
		"strategy_id": s.config.Meta.StrategyID,
		"config_hash": s.configHash,
		"period":      s.config.Period,
		"universe":    universe.Count(),
		"dry_run":     s.dryRun,
	}).Info("Strategy initialized")

	return nil
}

// Resume continues the cadence counter after the last recorded run
func (s *Strategy) Resume(ctx context.Context) error {
	if s.recorder == nil {
		return nil
	}
	last, err := s.recorder.LastRun(ctx)
	if err != nil {
		return fmt.Errorf("load last run: %w", err)
	}
	if last == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Month = last.Month + 1
	s.state.LastRunID = last.RunID
	s.state.LastAsOf = last.AsOf
	s.last = last
	s.metrics.SetMonth(s.state.Month)

	s.logger.WithFields(map[string]interface{}{
		"last_run_id": last.RunID,
		"month":       s.state.Month,
	}).Info("Strategy resumed from last run")
	return nil
}

// State returns a copy of the current state
func (s *Strategy) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastRun returns the result of the last tick (nil before the first)
func (s *Strategy) LastRun() *RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// ConfigHash returns the hash of the active strategy config
func (s *Strategy) ConfigHash() string {
	return s.configHash
}

// Tick runs one scheduling tick. 카운터는 중단된 사이클 후에도 증가한다.
// 사이클 중단 시 결과와 함께 래핑된 에러를 반환 (주문 없음, 보유 유지)
func (s *Strategy) Tick(ctx context.Context, now time.Time) (*RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Universe == nil {
		return nil, fmt.Errorf("strategy not initialized")
	}

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, "rebalance", lockTTL)
		if err != nil {
			s.metrics.RecordCycle("locked")
			return nil, fmt.Errorf("acquire cycle lock: %w", err)
		}
		defer release()
	}

	start := time.Now()
	month := s.state.Month
	s.state.Month++
	s.metrics.SetMonth(s.state.Month)

	result := &RunResult{
		RunID:      uuid.NewString(),
		Month:      month,
		TickAt:     now,
		ConfigHash: s.configHash,
		DryRun:     s.dryRun,
		Universe:   s.state.Universe.Count(),
	}

	var cycleErr error
	if !IsRebalanceMonth(month, s.state.Period) {
		result.Status = StatusSkipped
		s.logger.WithFields(map[string]interface{}{
			"month":  month,
			"period": s.state.Period,
			"next":   NextRebalanceMonth(month, s.state.Period),
		}).Info("Not a rebalance month, skipping")
	} else {
		cycleErr = s.runCycle(ctx, now, result)
	}
	result.Duration = time.Since(start)

	if cycleErr != nil {
		result.Status = StatusAborted
		result.Error = cycleErr.Error()
		s.metrics.RecordAbort(result.Stage.String(), AbortReason(cycleErr))
		s.logger.WithError(cycleErr).WithFields(map[string]interface{}{
			"run_id": result.RunID,
			"month":  month,
			"stage":  result.Stage,
			"reason": AbortReason(cycleErr),
		}).Error("Cycle aborted, holdings unchanged")
	} else {
		s.metrics.RecordCycle(string(result.Status))
	}

	s.state.LastRunID = result.RunID
	if !result.AsOf.IsZero() {
		s.state.LastAsOf = result.AsOf
	}
	s.last = result

	if s.recorder != nil {
		if err := s.recorder.SaveRun(ctx, result); err != nil {
			s.logger.WithError(err).WithField("run_id", result.RunID).Error("Failed to record run")
		}
	}

	if cycleErr != nil {
		return result, fmt.Errorf("cycle %d (%s): %w", month, result.Stage.ShortName(), cycleErr)
	}
	return result, nil
}

// runCycle executes S0 → S6 for a rebalance month
func (s *Strategy) runCycle(ctx context.Context, now time.Time, result *RunResult) error {
	// S0: 기준일과 금리
	result.Stage = contracts.StageData
	start := time.Now()
	cal, err := calendar.Load(ctx, s.provider)
	if err != nil {
		return err
	}
	asOf, err := cal.AsOfForTick(now)
	if err != nil {
		return err
	}
	result.AsOf = asOf
	rate, err := s.bondYield.RateAt(asOf)
	if err != nil {
		return err
	}
	result.BondYield = rate
	s.state.BondYield = rate
	s.metrics.ObserveStage(contracts.StageData.String(), start)

	s.logger.WithFields(map[string]interface{}{
		"run_id":     result.RunID,
		"month":      result.Month,
		"as_of":      contracts.DateString(asOf),
		"bond_yield": rate,
	}).Info("Starting rebalance cycle")

	// S2: 스크리닝
	result.Stage = contracts.StageScreening
	start = time.Now()
	outcome, err := s.screener.Screen(ctx, screening.Input{
		Universe:  s.state.Universe,
		AsOf:      asOf,
		Reference: now.AddDate(0, 0, -1),
		BondYield: rate,
		Provider:  s.provider,
		Calendar:  cal,
	})
	if outcome != nil {
		for _, r := range outcome.Results {
			result.Screens = append(result.Screens, ScreenSummary{
				ID: r.ScreenID, Passed: r.PassedCount(), Excluded: r.Excluded,
			})
			s.metrics.RecordScreen(r.ScreenID, r.PassedCount(), r.Excluded)
		}
		if outcome.Candidates != nil {
			result.Candidates = outcome.Candidates.Sorted()
		}
	}
	if err != nil {
		return err
	}
	s.metrics.SetCandidates(len(result.Candidates))
	s.metrics.ObserveStage(contracts.StageScreening.String(), start)

	// S3: 팩터 정제
	result.Stage = contracts.StageFactor
	start = time.Now()
	fundamentals, err := s.provider.Fundamentals(ctx, result.Candidates, s.config.FactorFields(), asOf)
	if err != nil {
		return fmt.Errorf("fetch factor fundamentals: %w", err)
	}
	raw := contracts.FactorTableFromFundamentals(fundamentals, outcome.Candidates,
		s.config.Factor.Columns, s.config.Factor.Controls)
	cleaned, report, err := s.cleaner.Clean(raw)
	result.Cleaning = report
	if err != nil {
		return err
	}
	s.metrics.ObserveStage(contracts.StageFactor.String(), start)

	// S4: 정렬
	result.Stage = contracts.StageSelection
	ranked, err := s.ranker.Rank(cleaned)
	if err != nil {
		return err
	}
	result.Ranked = ranked

	// S5: 동일 비중 계획
	result.Stage = contracts.StageRebalance
	holdings, err := s.executor.Holdings(ctx)
	if err != nil {
		return fmt.Errorf("get holdings: %w", err)
	}
	total, err := s.executor.TotalValue(ctx)
	if err != nil {
		return fmt.Errorf("get total value: %w", err)
	}
	plan, err := s.rebalancer.Rebalance(holdings, contracts.Codes(ranked), total)
	if err != nil {
		return err
	}
	plan.RunID = result.RunID
	plan.AsOf = asOf
	result.Plan = plan
	s.metrics.SetPlan(len(plan.Targets), len(plan.Liquidations))

	// S6: 제출
	result.Stage = contracts.StageExecution
	if s.dryRun {
		result.Status = StatusDryRun
		s.logger.WithField("run_id", result.RunID).Info("Dry run, plan not submitted")
		return nil
	}
	start = time.Now()
	if err := s.executor.Submit(ctx, plan); err != nil {
		return fmt.Errorf("submit plan: %w", err)
	}
	s.metrics.ObserveStage(contracts.StageExecution.String(), start)
	result.Status = StatusRebalanced

	s.logger.WithFields(map[string]interface{}{
		"run_id":       result.RunID,
		"as_of":        contracts.DateString(asOf),
		"candidates":   len(result.Candidates),
		"targets":      len(plan.Targets),
		"liquidations": len(plan.Liquidations),
		"per_position": plan.PerPosition.StringFixed(2),
	}).Info("Rebalance cycle completed")

	return nil
}
