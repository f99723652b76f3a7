package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-value/internal/contracts"
)

// fundamentalColumns maps numeric fields to data.fundamentals_daily columns
// ⭐ SSOT: 필드 ↔ 컬럼 매핑 (SQL 식별자 화이트리스트)
var fundamentalColumns = map[contracts.Field]string{
	contracts.FieldPERatio:               "pe_ratio",
	contracts.FieldPERatioLYR:            "pe_ratio_lyr",
	contracts.FieldMarketCap:             "market_cap",
	contracts.FieldTotalCurrentAssets:    "total_current_assets",
	contracts.FieldFixedAssets:           "fixed_assets",
	contracts.FieldTotalLiability:        "total_liability",
	contracts.FieldTotalCurrentLiability: "total_current_liability",
}

// numericFieldOrder is the scan order of fundamentalsQuery
var numericFieldOrder = []contracts.Field{
	contracts.FieldPERatio,
	contracts.FieldPERatioLYR,
	contracts.FieldMarketCap,
	contracts.FieldTotalCurrentAssets,
	contracts.FieldFixedAssets,
	contracts.FieldTotalLiability,
	contracts.FieldTotalCurrentLiability,
}

// PostgresProvider implements contracts.DataProvider on the data schema
// ⭐ SSOT: 전략 입력 데이터 조회는 여기서만
type PostgresProvider struct {
	pool *pgxpool.Pool
}

// NewPostgresProvider creates a new provider
func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// TradingDays returns all trading days ascending
func (p *PostgresProvider) TradingDays(ctx context.Context) ([]time.Time, error) {
	rows, err := p.pool.Query(ctx, `SELECT trade_date FROM data.trading_days ORDER BY trade_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("query trading days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan trading day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// IndexMembers returns constituents effective on asOf
func (p *PostgresProvider) IndexMembers(ctx context.Context, indexID string, asOf time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT stock_code
		FROM data.index_members
		WHERE index_id = $1
		  AND effective_on <= $2
		  AND (removed_on IS NULL OR removed_on > $2)
		ORDER BY stock_code
	`

	rows, err := p.pool.Query(ctx, query, indexID, contracts.Day(asOf))
	if err != nil {
		return nil, fmt.Errorf("query index members: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan index member: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Fundamentals returns the latest row on or before asOf per code
func (p *PostgresProvider) Fundamentals(ctx context.Context, codes []string, fields []contracts.Field, asOf time.Time) (*contracts.FundamentalsTable, error) {
	query := `
		SELECT DISTINCT ON (f.stock_code)
			f.stock_code,
			f.pe_ratio, f.pe_ratio_lyr, f.market_cap,
			f.total_current_assets, f.fixed_assets,
			f.total_liability, f.total_current_liability,
			s.industry
		FROM data.fundamentals_daily f
		LEFT JOIN data.stocks s ON s.stock_code = f.stock_code
		WHERE f.stock_code = ANY($1)
		  AND f.trade_date <= $2
		ORDER BY f.stock_code, f.trade_date DESC
	`

	rows, err := p.pool.Query(ctx, query, codes, contracts.Day(asOf))
	if err != nil {
		return nil, fmt.Errorf("query fundamentals: %w", err)
	}
	defer rows.Close()

	table := &contracts.FundamentalsTable{AsOf: contracts.Day(asOf), Rows: make(map[string]contracts.FundamentalsRow)}
	for rows.Next() {
		var code string
		var industry *string
		vals := make([]*float64, len(numericFieldOrder))

		dest := []interface{}{&code}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		dest = append(dest, &industry)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan fundamentals: %w", err)
		}

		full := contracts.FundamentalsRow{
			Values: make(map[contracts.Field]float64),
			Labels: make(map[contracts.Field]string),
		}
		for i, f := range numericFieldOrder {
			if vals[i] != nil {
				full.Values[f] = *vals[i]
			}
		}
		if industry != nil {
			full.Labels[contracts.FieldIndustry] = *industry
		}
		table.Rows[code] = projectRow(full, fields)
	}
	return table, rows.Err()
}

// FundamentalsSeries returns up to count trailing non-null values per code (ascending)
func (p *PostgresProvider) FundamentalsSeries(ctx context.Context, codes []string, field contracts.Field, asOf time.Time, count int) (map[string][]float64, error) {
	col, ok := fundamentalColumns[field]
	if !ok {
		return nil, fmt.Errorf("field %q has no series column", field)
	}

	// col 은 화이트리스트 값만 사용
	query := fmt.Sprintf(`
		SELECT stock_code, val
		FROM (
			SELECT stock_code, trade_date, %s AS val,
				ROW_NUMBER() OVER (PARTITION BY stock_code ORDER BY trade_date DESC) AS rn
			FROM data.fundamentals_daily
			WHERE stock_code = ANY($1) AND trade_date <= $2
		) t
		WHERE rn <= $3 AND val IS NOT NULL
		ORDER BY stock_code, trade_date ASC
	`, col)

	rows, err := p.pool.Query(ctx, query, codes, contracts.Day(asOf), count)
	if err != nil {
		return nil, fmt.Errorf("query %s series: %w", field, err)
	}
	defer rows.Close()

	out := make(map[string][]float64)
	for rows.Next() {
		var code string
		var v float64
		if err := rows.Scan(&code, &v); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out[code] = append(out[code], v)
	}
	return out, rows.Err()
}

// DistributionEvents returns distribution events matching the filter
func (p *PostgresProvider) DistributionEvents(ctx context.Context, codes []string, filter contracts.DistributionFilter) ([]contracts.DistributionEvent, error) {
	query := `
		SELECT stock_code, report_date, yield
		FROM data.distributions
		WHERE stock_code = ANY($1)
		  AND ($2::date IS NULL OR report_date >= $2)
		  AND ($3::date IS NULL OR report_date <= $3)
		  AND yield > $4
		ORDER BY stock_code, report_date
	`

	rows, err := p.pool.Query(ctx, query, codes, nullableDate(filter.From), nullableDate(filter.To), filter.MinYield)
	if err != nil {
		return nil, fmt.Errorf("query distributions: %w", err)
	}
	defer rows.Close()

	var events []contracts.DistributionEvent
	for rows.Next() {
		var ev contracts.DistributionEvent
		if err := rows.Scan(&ev.Code, &ev.ReportDate, &ev.Yield); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ClosePrices returns closes of codes within [from, to]
func (p *PostgresProvider) ClosePrices(ctx context.Context, codes []string, from, to time.Time) (contracts.PriceTable, error) {
	query := `
		SELECT stock_code, trade_date, close_price
		FROM data.daily_prices
		WHERE stock_code = ANY($1) AND trade_date BETWEEN $2 AND $3
	`

	rows, err := p.pool.Query(ctx, query, codes, contracts.Day(from), contracts.Day(to))
	if err != nil {
		return nil, fmt.Errorf("query close prices: %w", err)
	}
	defer rows.Close()

	out := make(contracts.PriceTable)
	for rows.Next() {
		var code string
		var d time.Time
		var close float64
		if err := rows.Scan(&code, &d, &close); err != nil {
			return nil, fmt.Errorf("scan close price: %w", err)
		}
		out.Set(code, d, close)
	}
	return out, rows.Err()
}

func nullableDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return contracts.Day(t)
}

var _ contracts.DataProvider = (*PostgresProvider)(nil)
