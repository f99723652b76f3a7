package screening

import (
	"context"
	"time"

	"github.com/wonny/aegis-value/internal/calendar"
	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/internal/s0_data"
)

var asOf = time.Date(2015, 2, 27, 0, 0, 0, 0, time.UTC)

func d(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func weekdays(from, to time.Time) []time.Time {
	var out []time.Time
	for t := from; !t.After(to); t = t.AddDate(0, 0, 1) {
		if t.Weekday() != time.Saturday && t.Weekday() != time.Sunday {
			out = append(out, t)
		}
	}
	return out
}

type fixture struct {
	provider *s0_data.MemoryProvider
	codes    []string
}

func newFixture(codes ...string) *fixture {
	m := s0_data.NewMemoryProvider()
	m.AddTradingDays(weekdays(d("2003-01-01"), d("2015-03-31"))...)
	return &fixture{provider: m, codes: codes}
}

func (f *fixture) set(code string, values map[contracts.Field]float64) {
	f.provider.SetFundamentals(code, asOf, contracts.FundamentalsRow{Values: values})
}

func (f *fixture) input(bondYield float64) Input {
	days, _ := f.provider.TradingDays(context.Background())
	return Input{
		Universe:  contracts.NewUniverse("TEST", asOf, f.codes),
		AsOf:      asOf,
		Reference: d("2015-02-28"),
		BondYield: bondYield,
		Provider:  f.provider,
		Calendar:  calendar.New(days),
	}
}
