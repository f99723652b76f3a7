package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the tables read by s0_data and written by the run journal
// ⭐ SSOT: 테이블 정의는 여기서만 관리
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS data`,
	`CREATE SCHEMA IF NOT EXISTS strategy`,

	`CREATE TABLE IF NOT EXISTS data.trading_days (
		trade_date DATE PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS data.index_members (
		index_id     TEXT NOT NULL,
		stock_code   TEXT NOT NULL,
		effective_on DATE NOT NULL,
		removed_on   DATE,
		PRIMARY KEY (index_id, stock_code, effective_on)
	)`,
	`CREATE TABLE IF NOT EXISTS data.fundamentals_daily (
		stock_code              TEXT NOT NULL,
		trade_date              DATE NOT NULL,
		pe_ratio                DOUBLE PRECISION,
		pe_ratio_lyr            DOUBLE PRECISION,
		market_cap              DOUBLE PRECISION,
		total_current_assets    DOUBLE PRECISION,
		fixed_assets            DOUBLE PRECISION,
		total_liability         DOUBLE PRECISION,
		total_current_liability DOUBLE PRECISION,
		PRIMARY KEY (stock_code, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS data.stocks (
		stock_code TEXT PRIMARY KEY,
		name       TEXT,
		industry   TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS data.daily_prices (
		stock_code  TEXT NOT NULL,
		trade_date  DATE NOT NULL,
		close_price DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (stock_code, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS data.distributions (
		stock_code  TEXT NOT NULL,
		report_date DATE NOT NULL,
		yield       DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (stock_code, report_date)
	)`,

	`CREATE TABLE IF NOT EXISTS strategy.runs (
		run_id       UUID PRIMARY KEY,
		month        INT NOT NULL,
		tick_at      TIMESTAMPTZ NOT NULL,
		as_of        DATE,
		bond_yield   DOUBLE PRECISION,
		config_hash  TEXT NOT NULL,
		status       TEXT NOT NULL,
		error        TEXT,
		universe     INT NOT NULL DEFAULT 0,
		stage        TEXT,
		screens      JSONB,
		candidates   JSONB,
		cleaning     JSONB,
		ranked       JSONB,
		plan         JSONB,
		dry_run      BOOLEAN NOT NULL DEFAULT FALSE,
		duration_ms  BIGINT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS strategy.orders (
		order_id     UUID PRIMARY KEY,
		run_id       UUID NOT NULL,
		stock_code   TEXT NOT NULL,
		action       TEXT NOT NULL,
		target_value NUMERIC NOT NULL,
		status       TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_run_id ON strategy.orders (run_id)`,
}

// Migrate creates missing schemas and tables (idempotent)
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
