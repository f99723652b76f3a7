package contracts

import (
	"math"
	"time"
)

// Field identifies a fundamentals column
// ⭐ SSOT: 펀더멘털 필드 ID는 여기서만 정의
type Field string

const (
	FieldPERatio               Field = "pe_ratio"                // 주가수익비율 (TTM)
	FieldPERatioLYR            Field = "pe_ratio_lyr"            // 주가수익비율 (직전 연도)
	FieldMarketCap             Field = "market_cap"              // 시가총액
	FieldTotalCurrentAssets    Field = "total_current_assets"    // 유동자산
	FieldFixedAssets           Field = "fixed_assets"            // 고정자산
	FieldTotalLiability        Field = "total_liability"         // 부채총계
	FieldTotalCurrentLiability Field = "total_current_liability" // 유동부채
	FieldIndustry              Field = "industry"                // 업종 분류 (범주형)
)

// labelFields are categorical fields (string valued)
var labelFields = map[Field]bool{
	FieldIndustry: true,
}

// IsLabel reports whether the field is categorical
func (f Field) IsLabel() bool {
	return labelFields[f]
}

// KnownField reports whether the field is recognized by providers
func KnownField(f Field) bool {
	switch f {
	case FieldPERatio, FieldPERatioLYR, FieldMarketCap, FieldTotalCurrentAssets,
		FieldFixedAssets, FieldTotalLiability, FieldTotalCurrentLiability, FieldIndustry:
		return true
	}
	return false
}

// FundamentalsRow is a point-in-time fundamentals snapshot of one stock
type FundamentalsRow struct {
	Values map[Field]float64 `json:"values"`
	Labels map[Field]string  `json:"labels,omitempty"`
}

// Value returns a finite numeric field value
// 결측 또는 NaN/Inf면 ok=false
func (r FundamentalsRow) Value(f Field) (float64, bool) {
	v, ok := r.Values[f]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Label returns a non-empty categorical value
func (r FundamentalsRow) Label(f Field) (string, bool) {
	v, ok := r.Labels[f]
	return v, ok && v != ""
}

// FundamentalsTable is keyed by stock code
// ⭐ SSOT: get_fundamentals 결과
type FundamentalsTable struct {
	AsOf time.Time                  `json:"as_of"`
	Rows map[string]FundamentalsRow `json:"rows"`
}

// Get returns the row for a code
func (t *FundamentalsTable) Get(code string) (FundamentalsRow, bool) {
	if t == nil {
		return FundamentalsRow{}, false
	}
	row, ok := t.Rows[code]
	return row, ok
}

// Codes returns codes that have a row
func (t *FundamentalsTable) Codes() StockSet {
	out := make(StockSet, len(t.Rows))
	for code := range t.Rows {
		out.Add(code)
	}
	return out
}

// PriceTable holds close prices keyed by (code, date)
// ⭐ SSOT: get_price_history 결과
type PriceTable map[string]map[time.Time]float64

// Close returns the close of a code on a date (date is truncated to day)
func (p PriceTable) Close(code string, date time.Time) (float64, bool) {
	byDate, ok := p[code]
	if !ok {
		return 0, false
	}
	v, ok := byDate[Day(date)]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Set stores a close
func (p PriceTable) Set(code string, date time.Time, close float64) {
	byDate, ok := p[code]
	if !ok {
		byDate = make(map[time.Time]float64)
		p[code] = byDate
	}
	byDate[Day(date)] = close
}

// DistributionEvent is a dividend/distribution record (XR/XD)
type DistributionEvent struct {
	Code       string    `json:"code"`
	ReportDate time.Time `json:"report_date"`
	Yield      float64   `json:"yield"` // 배당수익률 (%), 원천 피드 기준
}

// DistributionFilter restricts a distribution-events query
type DistributionFilter struct {
	From     time.Time // 포함 (zero면 하한 없음)
	To       time.Time // 포함
	MinYield float64   // 초과 조건 (strictly greater)
}

// Match applies the filter to an event
func (f DistributionFilter) Match(ev DistributionEvent) bool {
	d := Day(ev.ReportDate)
	if !f.From.IsZero() && d.Before(Day(f.From)) {
		return false
	}
	if !f.To.IsZero() && d.After(Day(f.To)) {
		return false
	}
	return ev.Yield > f.MinYield
}

// Day truncates a time to a UTC calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateString formats a date as YYYY-MM-DD
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}
