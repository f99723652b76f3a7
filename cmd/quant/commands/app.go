package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-value/internal/brain"
	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/internal/execution"
	"github.com/wonny/aegis-value/internal/s0_data"
	"github.com/wonny/aegis-value/internal/strategyconfig"
	"github.com/wonny/aegis-value/pkg/config"
	"github.com/wonny/aegis-value/pkg/database"
	"github.com/wonny/aegis-value/pkg/logger"
	"github.com/wonny/aegis-value/pkg/metrics"
	"github.com/wonny/aegis-value/pkg/redis"
)

const dateLayout = "2006-01-02"

// app holds the wired dependencies shared by the commands
// ⭐ SSOT: CLI 의존성 조립은 여기서만
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *database.DB // DATABASE_URL 없으면 nil
	redis       *redis.Client
	strategyCfg *strategyconfig.Config
	provider    contracts.DataProvider
	broker      *execution.PaperBroker
	recorder    brain.RunRecorder
	metrics     *metrics.Registry
	strategy    *brain.Strategy
}

type appOptions struct {
	overrides []config.Override
	dryRun    bool
}

// newApp loads config and wires provider, executor, recorder and strategy.
// Initialize는 호출자가 담당
func newApp(opts appOptions) (*app, error) {
	cfg, err := config.Load(opts.overrides...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	if cfg.HasDatabase() {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		log.Info("Connected to database")
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb

	strategyCfg, _, err := strategyconfig.Load(cfg.Strategy.ConfigPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	a.strategyCfg = strategyCfg

	if err := a.wireProvider(); err != nil {
		a.Close()
		return nil, err
	}

	a.broker = execution.NewPaperBroker(decimal.NewFromInt(cfg.Strategy.PaperCash), log)

	var journal execution.OrderJournal = execution.NewMemoryJournal()
	a.recorder = brain.NewMemoryRecorder()
	if a.db != nil {
		journal = execution.NewRepository(a.db.Pool)
		a.recorder = brain.NewRepository(a.db.Pool)
	}

	deps := brain.Deps{
		Provider: a.provider,
		Executor: execution.NewJournalingExecutor(a.broker, journal, log),
		Config:   strategyCfg,
		Recorder: a.recorder,
		Metrics:  a.metrics,
		DryRun:   opts.dryRun,
		Logger:   log,
	}
	if rdb.Enabled() {
		deps.Lock = redis.NewLock(rdb, "aegis")
	}

	strategy, err := brain.NewStrategy(deps)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create strategy: %w", err)
	}
	a.strategy = strategy

	log.WithFields(map[string]interface{}{
		"data_source": cfg.Strategy.DataSource,
		"database":    a.db != nil,
		"redis":       rdb.Enabled(),
		"config_hash": strategy.ConfigHash(),
	}).Info("Application wired")

	return a, nil
}

// wireProvider selects the fixture or Postgres provider (Redis 활성 시 캐시 래핑)
func (a *app) wireProvider() error {
	switch a.cfg.Strategy.DataSource {
	case config.DataSourceFixture:
		m, err := s0_data.LoadFixture(a.cfg.Strategy.FixturePath)
		if err != nil {
			return fmt.Errorf("load fixture: %w", err)
		}
		a.provider = m
	default:
		if a.db == nil {
			return fmt.Errorf("postgres data source requires DATABASE_URL")
		}
		a.provider = s0_data.NewPostgresProvider(a.db.Pool)
	}

	if a.redis.Enabled() {
		a.provider = s0_data.NewCachedProvider(a.provider, redis.NewCache(a.redis, "aegis"), a.cfg.Redis.CacheTTL, a.log)
	}
	return nil
}

// start initializes the strategy at now and optionally resumes the counter
func (a *app) start(ctx context.Context, now time.Time, resume bool) error {
	if err := a.strategy.Initialize(ctx, now); err != nil {
		return err
	}
	if resume {
		if err := a.strategy.Resume(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases database and redis connections
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// parseAt parses --at (YYYY-MM-DD), defaulting to now
func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want %s): %w", s, dateLayout, err)
	}
	return t, nil
}
