// Package bondyield provides the point-in-time risk-free rate lookup
// used as the hurdle for yield-based screens.
package bondyield

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/aegis-value/internal/contracts"
)

// Point is a rate effective from Date (inclusive)
type Point struct {
	Date time.Time `json:"date" yaml:"date"`
	Rate float64   `json:"rate" yaml:"rate"` // 연 % (예: 3.75)
}

// Series is a step function of effective dates → rate
// ⭐ SSOT: 기준일 이후 유효일의 금리는 절대 반환하지 않음
type Series struct {
	points []Point
}

// New builds a series; points are sorted and same-date duplicates keep the last one
func New(points []Point) (*Series, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("bond yield series is empty")
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]Point, 0, len(sorted))
	for _, p := range sorted {
		if p.Rate < 0 {
			return nil, fmt.Errorf("negative rate %.4f at %s", p.Rate, contracts.DateString(p.Date))
		}
		p.Date = contracts.Day(p.Date)
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}

	return &Series{points: out}, nil
}

// RateAt returns the rate of the latest point with Date <= asOf
func (s *Series) RateAt(asOf time.Time) (float64, error) {
	day := contracts.Day(asOf)
	// 첫 번째로 day 보다 늦은 포인트
	i := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Date.After(day)
	})
	if i == 0 {
		return 0, fmt.Errorf("%s before first effective date %s: %w",
			contracts.DateString(day), contracts.DateString(s.points[0].Date), contracts.ErrBondYieldUndefined)
	}
	return s.points[i-1].Rate, nil
}

// First returns the earliest effective date
func (s *Series) First() time.Time {
	return s.points[0].Date
}

// ParsePoints converts "YYYY-MM-DD" → rate pairs (config form)
func ParsePoints(m map[string]float64) ([]Point, error) {
	out := make([]Point, 0, len(m))
	for date, rate := range m {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("invalid bond yield date %q: %w", date, err)
		}
		out = append(out, Point{Date: d, Rate: rate})
	}
	return out, nil
}
