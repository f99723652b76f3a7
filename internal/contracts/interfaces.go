package contracts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TradingCalendar returns all trading days in ascending order
// ⭐ SSOT: 외부 협력자 인터페이스 (거래일 캘린더)
type TradingCalendar interface {
	TradingDays(ctx context.Context) ([]time.Time, error)
}

// FundamentalsProvider serves point-in-time fundamentals
// ⭐ SSOT: 외부 협력자 인터페이스 (펀더멘털/지수/배당)
type FundamentalsProvider interface {
	// IndexMembers returns index constituents as of a date
	IndexMembers(ctx context.Context, indexID string, asOf time.Time) ([]string, error)

	// Fundamentals returns a snapshot restricted to codes
	Fundamentals(ctx context.Context, codes []string, fields []Field, asOf time.Time) (*FundamentalsTable, error)

	// FundamentalsSeries returns up to count trailing daily values per code ending at asOf
	FundamentalsSeries(ctx context.Context, codes []string, field Field, asOf time.Time, count int) (map[string][]float64, error)

	// DistributionEvents returns dividend/distribution events restricted to codes
	DistributionEvents(ctx context.Context, codes []string, filter DistributionFilter) ([]DistributionEvent, error)
}

// PriceHistoryProvider serves daily close history
type PriceHistoryProvider interface {
	ClosePrices(ctx context.Context, codes []string, from, to time.Time) (PriceTable, error)
}

// DataProvider is the full capability set the strategy depends on
type DataProvider interface {
	TradingCalendar
	FundamentalsProvider
	PriceHistoryProvider
}

// Executor is the trade-execution collaborator
// ⭐ SSOT: 주문 실행 협력자 인터페이스
type Executor interface {
	// Holdings returns code → held value
	Holdings(ctx context.Context) (map[string]decimal.Decimal, error)

	// TotalValue returns the total portfolio value (cash + positions)
	TotalValue(ctx context.Context) (decimal.Decimal, error)

	// Submit issues all actions of a plan (liquidations first)
	Submit(ctx context.Context, plan *RebalancePlan) error
}
