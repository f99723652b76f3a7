package contracts

import (
	"sort"
	"time"
)

// Universe represents the index-defined candidate stocks
// ⭐ SSOT: S1 → S2 투자 가능 종목 전달 (사이클 중 불변)
type Universe struct {
	IndexID string    `json:"index_id"`
	Date    time.Time `json:"date"`   // 구성종목 기준일
	Stocks  []string  `json:"stocks"` // 정렬된 종목 코드
}

// NewUniverse creates a universe with de-duplicated, sorted codes
func NewUniverse(indexID string, date time.Time, codes []string) *Universe {
	return &Universe{
		IndexID: indexID,
		Date:    date,
		Stocks:  NewStockSet(codes...).Sorted(),
	}
}

// Contains checks if a stock code is in the universe
func (u *Universe) Contains(code string) bool {
	i := sort.SearchStrings(u.Stocks, code)
	return i < len(u.Stocks) && u.Stocks[i] == code
}

// Count returns the number of stocks
func (u *Universe) Count() int {
	return len(u.Stocks)
}

// Set returns the universe as a StockSet
func (u *Universe) Set() StockSet {
	return NewStockSet(u.Stocks...)
}

// StockSet is a set of stock codes
type StockSet map[string]struct{}

// NewStockSet creates a set from codes
func NewStockSet(codes ...string) StockSet {
	s := make(StockSet, len(codes))
	for _, code := range codes {
		s[code] = struct{}{}
	}
	return s
}

// Add inserts a code
func (s StockSet) Add(code string) {
	s[code] = struct{}{}
}

// Has reports membership (exact match)
func (s StockSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Len returns the set size
func (s StockSet) Len() int {
	return len(s)
}

// Sorted returns codes in ascending order
func (s StockSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Intersect returns codes present in both sets
func (s StockSet) Intersect(other StockSet) StockSet {
	out := make(StockSet)
	for code := range s {
		if other.Has(code) {
			out.Add(code)
		}
	}
	return out
}

// Union returns codes present in either set
func (s StockSet) Union(other StockSet) StockSet {
	out := make(StockSet, len(s)+len(other))
	for code := range s {
		out.Add(code)
	}
	for code := range other {
		out.Add(code)
	}
	return out
}

// ScreenResult is the output of one screen at one as-of date
// ⭐ SSOT: S2 스크리닝 결과 (사이클 내에서만 사용)
type ScreenResult struct {
	ScreenID string         `json:"screen_id"`
	AsOf     time.Time      `json:"as_of"`
	Passed   StockSet       `json:"-"`
	Excluded map[string]int `json:"excluded"` // 제외 사유별 종목 수
}

// PassedCount returns the number of passing stocks
func (r *ScreenResult) PassedCount() int {
	return r.Passed.Len()
}
