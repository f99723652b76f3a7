package s0_data

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-value/internal/contracts"
)

// batchSize bounds rows per transaction
const batchSize = 500

// Repository handles data persistence for S0
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// SaveTradingDays upserts trading days
func (r *Repository) SaveTradingDays(ctx context.Context, days []time.Time) error {
	return r.inBatches(ctx, len(days), func(tx pgx.Tx, i int) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO data.trading_days (trade_date) VALUES ($1) ON CONFLICT DO NOTHING`,
			contracts.Day(days[i]))
		return err
	})
}

// SaveIndexMembers records constituents effective from a date.
// 이전 구성 중 이번 목록에 없는 종목은 removed_on 으로 마감
func (r *Repository) SaveIndexMembers(ctx context.Context, indexID string, effectiveOn time.Time, codes []string) error {
	day := contracts.Day(effectiveOn)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE data.index_members
		SET removed_on = $2
		WHERE index_id = $1
		  AND removed_on IS NULL
		  AND effective_on < $2
		  AND NOT (stock_code = ANY($3))
	`, indexID, day, codes)
	if err != nil {
		return fmt.Errorf("close removed members: %w", err)
	}

	for _, code := range codes {
		_, err := tx.Exec(ctx, `
			INSERT INTO data.index_members (index_id, stock_code, effective_on)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (
				SELECT 1 FROM data.index_members
				WHERE index_id = $1 AND stock_code = $2 AND removed_on IS NULL
			)
		`, indexID, code, day)
		if err != nil {
			return fmt.Errorf("insert member %s: %w", code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveFundamentals upserts one date's fundamentals rows and stock labels
func (r *Repository) SaveFundamentals(ctx context.Context, date time.Time, rows map[string]contracts.FundamentalsRow) error {
	codes := make([]string, 0, len(rows))
	for code := range rows {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	query := `
		INSERT INTO data.fundamentals_daily (
			stock_code, trade_date, pe_ratio, pe_ratio_lyr, market_cap,
			total_current_assets, fixed_assets, total_liability, total_current_liability
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			pe_ratio = EXCLUDED.pe_ratio,
			pe_ratio_lyr = EXCLUDED.pe_ratio_lyr,
			market_cap = EXCLUDED.market_cap,
			total_current_assets = EXCLUDED.total_current_assets,
			fixed_assets = EXCLUDED.fixed_assets,
			total_liability = EXCLUDED.total_liability,
			total_current_liability = EXCLUDED.total_current_liability
	`

	return r.inBatches(ctx, len(codes), func(tx pgx.Tx, i int) error {
		code := codes[i]
		row := rows[code]

		args := []interface{}{code, contracts.Day(date)}
		for _, f := range numericFieldOrder {
			if v, ok := row.Value(f); ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert fundamentals %s: %w", code, err)
		}

		if industry, ok := row.Label(contracts.FieldIndustry); ok {
			_, err := tx.Exec(ctx, `
				INSERT INTO data.stocks (stock_code, industry) VALUES ($1, $2)
				ON CONFLICT (stock_code) DO UPDATE SET industry = EXCLUDED.industry
			`, code, industry)
			if err != nil {
				return fmt.Errorf("upsert stock %s: %w", code, err)
			}
		}
		return nil
	})
}

// SaveClosePrices upserts closes
func (r *Repository) SaveClosePrices(ctx context.Context, prices contracts.PriceTable) error {
	type rec struct {
		code  string
		date  time.Time
		close float64
	}
	var recs []rec
	for code, byDate := range prices {
		for d, v := range byDate {
			recs = append(recs, rec{code, d, v})
		}
	}

	return r.inBatches(ctx, len(recs), func(tx pgx.Tx, i int) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO data.daily_prices (stock_code, trade_date, close_price)
			VALUES ($1, $2, $3)
			ON CONFLICT (stock_code, trade_date) DO UPDATE SET close_price = EXCLUDED.close_price
		`, recs[i].code, recs[i].date, recs[i].close)
		return err
	})
}

// SaveDistributions upserts distribution events
func (r *Repository) SaveDistributions(ctx context.Context, events []contracts.DistributionEvent) error {
	return r.inBatches(ctx, len(events), func(tx pgx.Tx, i int) error {
		ev := events[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO data.distributions (stock_code, report_date, yield)
			VALUES ($1, $2, $3)
			ON CONFLICT (stock_code, report_date) DO UPDATE SET yield = EXCLUDED.yield
		`, ev.Code, contracts.Day(ev.ReportDate), ev.Yield)
		return err
	})
}

// Import copies a full memory data set into the database
func (r *Repository) Import(ctx context.Context, m *MemoryProvider) error {
	dump := m.Dump()

	if err := r.SaveTradingDays(ctx, dump.TradingDays); err != nil {
		return fmt.Errorf("save trading days: %w", err)
	}
	for indexID, codes := range dump.IndexMembers {
		effective := time.Time{}
		if len(dump.TradingDays) > 0 {
			effective = dump.TradingDays[0]
		}
		if err := r.SaveIndexMembers(ctx, indexID, effective, codes); err != nil {
			return fmt.Errorf("save index %s: %w", indexID, err)
		}
	}
	for date, rows := range dump.Fundamentals {
		if err := r.SaveFundamentals(ctx, date, rows); err != nil {
			return fmt.Errorf("save fundamentals %s: %w", contracts.DateString(date), err)
		}
	}
	if err := r.SaveClosePrices(ctx, dump.Prices); err != nil {
		return fmt.Errorf("save prices: %w", err)
	}
	if err := r.SaveDistributions(ctx, dump.Distributions); err != nil {
		return fmt.Errorf("save distributions: %w", err)
	}
	return nil
}

// inBatches runs fn for every index, committing every batchSize rows
func (r *Repository) inBatches(ctx context.Context, n int, fn func(tx pgx.Tx, i int) error) error {
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}

		tx, err := r.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction (batch %d): %w", start/batchSize, err)
		}

		for i := start; i < end; i++ {
			if err := fn(tx, i); err != nil {
				tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit transaction (batch %d): %w", start/batchSize, err)
		}
	}
	return nil
}
