package s0_data

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/aegis-value/internal/contracts"
)

// Fixture is the YAML form of an offline data set
type Fixture struct {
	TradingDays     FixtureCalendar               `yaml:"trading_days"`
	IndexMembers    map[string][]string           `yaml:"index_members"`
	Fundamentals    []FixtureSnapshot             `yaml:"fundamentals"`
	Prices          map[string]map[string]float64 `yaml:"prices"`
	SyntheticPrices []SyntheticSeries             `yaml:"synthetic_prices"`
	Distributions   []FixtureDistribution         `yaml:"distributions"`
}

// FixtureCalendar lists trading days explicitly or as a weekday range
type FixtureCalendar struct {
	Weekdays *DateRange `yaml:"weekdays"`
	Dates    []string   `yaml:"dates"`
}

// DateRange is an inclusive date range (YYYY-MM-DD)
type DateRange struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// FixtureSnapshot holds fundamentals rows of one date
// 숫자 값은 수치 필드, 문자열 값은 범주형 필드(industry 등)
type FixtureSnapshot struct {
	Date string                            `yaml:"date"`
	Rows map[string]map[string]interface{} `yaml:"rows"`
}

// SyntheticSeries generates a geometric close series on every trading day
type SyntheticSeries struct {
	Code         string    `yaml:"code"`
	Range        DateRange `yaml:"range"`
	Start        float64   `yaml:"start"`
	AnnualGrowth float64   `yaml:"annual_growth"` // 연 성장률 (예: 0.08)
}

// FixtureDistribution is one distribution event
type FixtureDistribution struct {
	Code       string  `yaml:"code"`
	ReportDate string  `yaml:"report_date"`
	Yield      float64 `yaml:"yield"`
}

// LoadFixture reads a YAML fixture into a MemoryProvider
func LoadFixture(path string) (*MemoryProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture YAML (unknown keys rejected)
func ParseFixture(data []byte) (*MemoryProvider, error) {
	var fx Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return fx.Build()
}

// Build materializes the fixture
func (fx *Fixture) Build() (*MemoryProvider, error) {
	m := NewMemoryProvider()

	days, err := fx.TradingDays.expand()
	if err != nil {
		return nil, err
	}
	m.AddTradingDays(days...)

	for indexID, codes := range fx.IndexMembers {
		m.SetIndexMembers(indexID, codes...)
	}

	for _, snap := range fx.Fundamentals {
		date, err := parseDate(snap.Date)
		if err != nil {
			return nil, fmt.Errorf("fundamentals: %w", err)
		}
		for code, fields := range snap.Rows {
			row, err := parseRow(fields)
			if err != nil {
				return nil, fmt.Errorf("fundamentals %s@%s: %w", code, snap.Date, err)
			}
			m.SetFundamentals(code, date, row)
		}
	}

	for code, byDate := range fx.Prices {
		for ds, close := range byDate {
			date, err := parseDate(ds)
			if err != nil {
				return nil, fmt.Errorf("prices %s: %w", code, err)
			}
			m.SetClose(code, date, close)
		}
	}

	for _, s := range fx.SyntheticPrices {
		if err := s.apply(m, days); err != nil {
			return nil, err
		}
	}

	for _, d := range fx.Distributions {
		date, err := parseDate(d.ReportDate)
		if err != nil {
			return nil, fmt.Errorf("distributions %s: %w", d.Code, err)
		}
		m.AddDistribution(contracts.DistributionEvent{Code: d.Code, ReportDate: date, Yield: d.Yield})
	}

	return m, nil
}

func (c FixtureCalendar) expand() ([]time.Time, error) {
	var out []time.Time
	if c.Weekdays != nil {
		from, to, err := c.Weekdays.parse()
		if err != nil {
			return nil, fmt.Errorf("trading_days: %w", err)
		}
		for t := from; !t.After(to); t = t.AddDate(0, 0, 1) {
			if t.Weekday() != time.Saturday && t.Weekday() != time.Sunday {
				out = append(out, t)
			}
		}
	}
	for _, ds := range c.Dates {
		d, err := parseDate(ds)
		if err != nil {
			return nil, fmt.Errorf("trading_days: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (r DateRange) parse() (time.Time, time.Time, error) {
	from, err := parseDate(r.From)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(r.To)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("range %s..%s is reversed", r.From, r.To)
	}
	return from, to, nil
}

func (s SyntheticSeries) apply(m *MemoryProvider, days []time.Time) error {
	if s.Start <= 0 {
		return fmt.Errorf("synthetic_prices %s: start must be positive", s.Code)
	}
	from, to, err := s.Range.parse()
	if err != nil {
		return fmt.Errorf("synthetic_prices %s: %w", s.Code, err)
	}
	for _, d := range days {
		if d.Before(from) || d.After(to) {
			continue
		}
		years := d.Sub(from).Hours() / 24 / 365.25
		m.SetClose(s.Code, d, s.Start*math.Pow(1+s.AnnualGrowth, years))
	}
	return nil
}

func parseRow(fields map[string]interface{}) (contracts.FundamentalsRow, error) {
	row := contracts.FundamentalsRow{
		Values: make(map[contracts.Field]float64),
		Labels: make(map[contracts.Field]string),
	}
	for name, raw := range fields {
		f := contracts.Field(name)
		if !contracts.KnownField(f) {
			return row, fmt.Errorf("unknown field %q", name)
		}
		switch v := raw.(type) {
		case string:
			if !f.IsLabel() {
				return row, fmt.Errorf("field %q must be numeric", name)
			}
			row.Labels[f] = v
		case int:
			row.Values[f] = float64(v)
		case float64:
			row.Values[f] = v
		case nil:
			// 명시적 결측
		default:
			return row, fmt.Errorf("field %q has unsupported type %T", name, raw)
		}
	}
	return row, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
