package execution

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-value/internal/contracts"
)

// Repository handles order journal persistence
// ⭐ SSOT: strategy.orders 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new execution repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveOrders inserts orders in one transaction
func (r *Repository) SaveOrders(ctx context.Context, orders []contracts.Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO strategy.orders (
			order_id, run_id, stock_code, action, target_value, status, created_at
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5::numeric, $6, $7)
		ON CONFLICT (order_id) DO UPDATE SET
			status = EXCLUDED.status
	`

	for _, o := range orders {
		_, err := tx.Exec(ctx, query,
			o.ID, o.RunID, o.Code, string(o.Action), o.TargetValue.String(), string(o.Status), o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save order %s: %w", o.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit orders: %w", err)
	}
	return nil
}

// UpdateRunStatus updates the status of every order of a run
func (r *Repository) UpdateRunStatus(ctx context.Context, runID string, status contracts.Status) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE strategy.orders SET status = $1 WHERE run_id = $2::uuid`,
		string(status), runID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// GetOrdersByRun retrieves orders of a run in submission order
func (r *Repository) GetOrdersByRun(ctx context.Context, runID string) ([]contracts.Order, error) {
	query := `
		SELECT order_id::text, run_id::text, stock_code, action, target_value::text, status, created_at
		FROM strategy.orders
		WHERE run_id = $1::uuid
		ORDER BY created_at ASC, (action = 'LIQUIDATE') DESC, stock_code ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]contracts.Order, 0)
	for rows.Next() {
		var (
			o             contracts.Order
			action, value string
			status        string
		)
		if err := rows.Scan(&o.ID, &o.RunID, &o.Code, &action, &value, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Action = contracts.Action(action)
		o.Status = contracts.Status(status)
		if o.TargetValue, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("failed to parse target value %q: %w", value, err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return orders, nil
}
