package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-value/internal/contracts"
)

// Repository persists tick results to strategy.runs
// ⭐ SSOT: strategy.runs 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new run repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun upserts one run
func (r *Repository) SaveRun(ctx context.Context, result *RunResult) error {
	screens, err := jsonColumn(result.Screens)
	if err != nil {
		return fmt.Errorf("marshal screens: %w", err)
	}
	candidates, err := jsonColumn(result.Candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}
	cleaning, err := jsonColumn(result.Cleaning)
	if err != nil {
		return fmt.Errorf("marshal cleaning: %w", err)
	}
	ranked, err := jsonColumn(result.Ranked)
	if err != nil {
		return fmt.Errorf("marshal ranked: %w", err)
	}
	plan, err := jsonColumn(result.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	var asOf *time.Time
	if !result.AsOf.IsZero() {
		asOf = &result.AsOf
	}

	query := `
		INSERT INTO strategy.runs (
			run_id, month, tick_at, as_of, bond_yield, config_hash, status, error,
			universe, stage, screens, candidates, cleaning, ranked, plan, dry_run, duration_ms
		) VALUES (
			$1::uuid, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11::jsonb, $12::jsonb, $13::jsonb, $14::jsonb, $15::jsonb, $16, $17
		)
		ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			stage = EXCLUDED.stage,
			plan = EXCLUDED.plan,
			duration_ms = EXCLUDED.duration_ms
	`

	_, err = r.pool.Exec(ctx, query,
		result.RunID, result.Month, result.TickAt, asOf, result.BondYield,
		result.ConfigHash, string(result.Status), result.Error,
		result.Universe, string(result.Stage),
		screens, candidates, cleaning, ranked, plan,
		result.DryRun, result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", result.RunID, err)
	}
	return nil
}

// LastRun returns the most recent run, or nil when none exists
func (r *Repository) LastRun(ctx context.Context) (*RunResult, error) {
	query := `
		SELECT run_id::text, month, tick_at, as_of, COALESCE(bond_yield, 0), config_hash,
		       status, COALESCE(error, ''), universe, COALESCE(stage, ''),
		       screens, candidates, cleaning, ranked, plan, dry_run, duration_ms
		FROM strategy.runs
		ORDER BY created_at DESC, month DESC
		LIMIT 1
	`

	var (
		res                                         RunResult
		asOf                                        *time.Time
		status, stage                               string
		screens, candidates, cleaning, ranked, plan []byte
		durationMs                                  int64
	)
	err := r.pool.QueryRow(ctx, query).Scan(
		&res.RunID, &res.Month, &res.TickAt, &asOf, &res.BondYield, &res.ConfigHash,
		&status, &res.Error, &res.Universe, &stage,
		&screens, &candidates, &cleaning, &ranked, &plan, &res.DryRun, &durationMs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last run: %w", err)
	}

	res.Status = RunStatus(status)
	res.Stage = contracts.Stage(stage)
	res.Duration = time.Duration(durationMs) * time.Millisecond
	if asOf != nil {
		res.AsOf = *asOf
	}

	for _, col := range []struct {
		name string
		raw  []byte
		dst  interface{}
	}{
		{"screens", screens, &res.Screens},
		{"candidates", candidates, &res.Candidates},
		{"cleaning", cleaning, &res.Cleaning},
		{"ranked", ranked, &res.Ranked},
		{"plan", plan, &res.Plan},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", col.name, err)
		}
	}

	return &res, nil
}

// jsonColumn encodes v for a JSONB column (nil → SQL NULL)
func jsonColumn(v interface{}) (*string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return nil, nil
	}
	s := string(data)
	return &s, nil
}

// MemoryRecorder keeps runs in memory (드라이런 및 테스트용)
type MemoryRecorder struct {
	mu   sync.Mutex
	runs []*RunResult
}

// NewMemoryRecorder creates an empty recorder
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// SaveRun implements RunRecorder
func (m *MemoryRecorder) SaveRun(ctx context.Context, result *RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, result)
	return nil
}

// LastRun implements RunRecorder
func (m *MemoryRecorder) LastRun(ctx context.Context) (*RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil, nil
	}
	return m.runs[len(m.runs)-1], nil
}

// Runs returns every recorded run in order
func (m *MemoryRecorder) Runs() []*RunResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*RunResult{}, m.runs...)
}
