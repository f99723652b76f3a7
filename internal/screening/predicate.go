package screening

import (
	"context"
	"time"

	"github.com/wonny/aegis-value/internal/calendar"
	"github.com/wonny/aegis-value/internal/contracts"
)

// Exclusion reasons (per stock, never abort the cycle)
const (
	ReasonMissingData = "missing_data" // 필드/가격 결측
	ReasonDegenerate  = "degenerate"   // 0/음수 분모 등 정의 불가
)

// Input is the point-in-time context shared by all predicates of a cycle
// ⭐ SSOT: 사이클 내 불변 (AsOf, BondYield, Universe)
type Input struct {
	Universe  *contracts.Universe
	AsOf      time.Time // 펀더멘털/배당/금리 기준일
	Reference time.Time // 가격 기준 (틱 - 1일), 연 단위 앵커 계산용
	BondYield float64   // AsOf 기준 금리 (%)
	Provider  contracts.DataProvider
	Calendar  *calendar.Calendar
}

// Predicate is a pure stock filter over the universe
type Predicate interface {
	ID() string
	Description() string
	Screen(ctx context.Context, in Input) (*contracts.ScreenResult, error)
}

// verdict is the per-stock outcome of a rule
type verdict int

const (
	verdictFail verdict = iota
	verdictPass
	verdictMissing
	verdictDegenerate
)

// collector accumulates verdicts into a ScreenResult
type collector struct {
	result *contracts.ScreenResult
}

func newCollector(id string, asOf time.Time) *collector {
	return &collector{result: &contracts.ScreenResult{
		ScreenID: id,
		AsOf:     asOf,
		Passed:   make(contracts.StockSet),
		Excluded: make(map[string]int),
	}}
}

func (c *collector) add(code string, v verdict) {
	switch v {
	case verdictPass:
		c.result.Passed.Add(code)
	case verdictMissing:
		c.result.Excluded[ReasonMissingData]++
	case verdictDegenerate:
		c.result.Excluded[ReasonDegenerate]++
	}
}

// fromBool maps a comparison to pass/fail
func fromBool(ok bool) verdict {
	if ok {
		return verdictPass
	}
	return verdictFail
}
