package strategyconfig

import (
	"time"

	"github.com/wonny/aegis-value/internal/bondyield"
	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/internal/factor"
	"github.com/wonny/aegis-value/internal/s1_universe"
	"github.com/wonny/aegis-value/internal/screening"
	"github.com/wonny/aegis-value/internal/selection"
)

// Config는 가치투자 리밸런싱 전략의 전체 설정
type Config struct {
	Meta      Meta               `yaml:"meta" json:"meta"`
	Period    int                `yaml:"period" json:"period"` // 리밸런싱 주기 (개월)
	Universe  s1_universe.Config `yaml:"universe" json:"universe"`
	Screening Screening          `yaml:"screening" json:"screening"`
	Factor    Factor             `yaml:"factor" json:"factor"`
	Selection Selection          `yaml:"selection" json:"selection"`
	BondYield map[string]float64 `yaml:"bond_yield" json:"bond_yield,omitempty"` // 비어 있으면 내장 3년 예금금리
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Screening S2: 활성 스크린과 조합 정책
type Screening struct {
	Active      []string              `yaml:"active" json:"active"`
	Combine     screening.Combine     `yaml:"combine" json:"combine"`
	EmptyPolicy screening.EmptyPolicy `yaml:"empty_policy" json:"empty_policy"`
	Params      screening.Params      `yaml:"params" json:"params"`
}

// Factor S3: 정제 대상 컬럼과 정제 설정
type Factor struct {
	Columns        []contracts.Field `yaml:"columns" json:"columns"`
	WinsorizeScale float64           `yaml:"winsorize_scale" json:"winsorize_scale"`
	Controls       []contracts.Field `yaml:"controls" json:"controls"`
	Restandardize  bool              `yaml:"restandardize" json:"restandardize"`
}

// Selection S4: 정렬 기준
type Selection struct {
	SortBy    contracts.Field `yaml:"sort_by" json:"sort_by"`
	Ascending bool            `yaml:"ascending" json:"ascending"`
	TopK      int             `yaml:"top_k" json:"top_k"`
}

// Default returns the configuration of the original strategy:
// 3개월 주기, 상하이 종합지수, loss_years만 활성, pe_ratio 내림차순
func Default() *Config {
	fc := factor.DefaultConfig()
	return &Config{
		Meta:     Meta{StrategyID: "value_investment", Version: "1.0"},
		Period:   3,
		Universe: s1_universe.Config{IndexID: "000002.XSHG"},
		Screening: Screening{
			Active:      []string{"loss_years"},
			Combine:     screening.CombineIntersection,
			EmptyPolicy: screening.EmptyPassAll,
			Params:      screening.DefaultParams(),
		},
		Factor: Factor{
			Columns:        []contracts.Field{contracts.FieldPERatio},
			WinsorizeScale: fc.WinsorizeScale,
			Controls:       fc.Controls,
			Restandardize:  fc.Restandardize,
		},
		Selection: Selection{SortBy: contracts.FieldPERatio},
	}
}

// ScreenPolicy returns the screener policy
func (c *Config) ScreenPolicy() screening.Policy {
	return screening.Policy{
		Active:      append([]string{}, c.Screening.Active...),
		Combine:     c.Screening.Combine,
		EmptyPolicy: c.Screening.EmptyPolicy,
	}
}

// CleanerConfig returns the factor cleaner settings
func (c *Config) CleanerConfig() factor.Config {
	return factor.Config{
		WinsorizeScale: c.Factor.WinsorizeScale,
		Controls:       append([]contracts.Field{}, c.Factor.Controls...),
		Restandardize:  c.Factor.Restandardize,
	}
}

// SortPolicy returns the ranking policy
func (c *Config) SortPolicy() selection.SortPolicy {
	return selection.SortPolicy{
		Column:    c.Selection.SortBy,
		Ascending: c.Selection.Ascending,
		TopK:      c.Selection.TopK,
	}
}

// FactorFields returns columns followed by controls, without duplicates
func (c *Config) FactorFields() []contracts.Field {
	seen := make(map[contracts.Field]bool)
	var out []contracts.Field
	for _, f := range append(append([]contracts.Field{}, c.Factor.Columns...), c.Factor.Controls...) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// BondYieldSeries builds the rate series (built-in table when unset)
func (c *Config) BondYieldSeries() (*bondyield.Series, error) {
	if len(c.BondYield) == 0 {
		return bondyield.Default(), nil
	}
	points, err := bondyield.ParsePoints(c.BondYield)
	if err != nil {
		return nil, err
	}
	return bondyield.New(points)
}

// DecisionSnapshot 의사결정 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash     string    `json:"config_hash"`
	ConfigYAML     string    `json:"config_yaml"`
	StrategyID     string    `json:"strategy_id"`
	GitCommit      string    `json:"git_commit"`
	DataSnapshotID string    `json:"data_snapshot_id"`
	CreatedAt      time.Time `json:"created_at"`
}
