package factor

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

// Drop reasons
const (
	ReasonMissingLabel  = "missing_label"
	ReasonMissingColumn = "missing_column"
)

// Config controls the cleaning pipeline
type Config struct {
	WinsorizeScale float64           `yaml:"winsorize_scale" json:"winsorize_scale"`
	Controls       []contracts.Field `yaml:"controls" json:"controls"`
	Restandardize  bool              `yaml:"restandardize" json:"restandardize"`
}

// DefaultConfig returns scale 3, controls [industry, market_cap].
// 중립화 잔차를 최종 값으로 유지 (restandardize off)
func DefaultConfig() Config {
	return Config{
		WinsorizeScale: 3,
		Controls:       []contracts.Field{contracts.FieldIndustry, contracts.FieldMarketCap},
	}
}

// ColumnReport summarizes what happened to one column
type ColumnReport struct {
	Imputed    int     `json:"imputed"`
	Clipped    int     `json:"clipped"`
	Median     float64 `json:"median"`
	MAD        float64 `json:"mad"`
	Degenerate bool    `json:"degenerate"`
}

// Report is the per-cycle cleaning summary
type Report struct {
	Input   int                               `json:"input"`
	Output  int                               `json:"output"`
	Dropped map[string]int                    `json:"dropped,omitempty"`
	Columns map[contracts.Field]*ColumnReport `json:"columns"`
}

// Cleaner implements S3: impute → winsorize → standardize → neutralize (→ restandardize)
// ⭐ SSOT: 팩터 정제 순서는 여기서만 정의
type Cleaner struct {
	config Config
	logger *logger.Logger
}

// NewCleaner validates the config
func NewCleaner(cfg Config, log *logger.Logger) (*Cleaner, error) {
	if cfg.WinsorizeScale <= 0 {
		return nil, fmt.Errorf("winsorize scale must be positive, got %v", cfg.WinsorizeScale)
	}
	seen := make(map[contracts.Field]bool)
	for _, c := range cfg.Controls {
		if !contracts.KnownField(c) {
			return nil, fmt.Errorf("unknown control field %q", c)
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate control field %q", c)
		}
		seen[c] = true
	}
	return &Cleaner{config: cfg, logger: log}, nil
}

// Config returns the cleaner configuration
func (c *Cleaner) Config() Config {
	return c.config
}

// Clean returns a new cleaned table; the input is not modified.
// 결과 행이 없으면 ErrEmptyCandidateSet
func (c *Cleaner) Clean(raw *contracts.FactorTable) (*contracts.FactorTable, *Report, error) {
	report := &Report{
		Input:   raw.Len(),
		Dropped: make(map[string]int),
		Columns: make(map[contracts.Field]*ColumnReport),
	}

	// 범주형 통제 변수가 없는 종목은 제외
	codes := make([]string, 0, raw.Len())
	for _, code := range raw.Codes() {
		if c.missingLabel(raw, code) {
			report.Dropped[ReasonMissingLabel]++
			continue
		}
		codes = append(codes, code)
	}

	if len(codes) == 0 {
		return contracts.NewFactorTable(raw.Columns...), report,
			fmt.Errorf("factor table: %w", contracts.ErrEmptyCandidateSet)
	}

	// 1. Impute: 값이 하나도 없는 컬럼은 전 종목 제외
	columns := make(map[contracts.Field][]float64, len(raw.Columns))
	for _, col := range raw.Columns {
		xs := columnValues(raw, codes, col)
		imputed, ok := ImputeMean(xs)
		if !ok {
			report.Dropped[ReasonMissingColumn] += len(codes)
			return contracts.NewFactorTable(raw.Columns...), report,
				fmt.Errorf("factor column %s has no values: %w", col, contracts.ErrEmptyCandidateSet)
		}
		columns[col] = xs
		report.Columns[col] = &ColumnReport{Imputed: imputed}
	}
	design, err := c.design(raw, codes)
	if err != nil {
		return nil, report, err
	}

	for _, col := range raw.Columns {
		xs := columns[col]
		cr := report.Columns[col]

		// 2. Winsorize
		b, clipped, collapsed, err := Winsorize(xs, c.config.WinsorizeScale)
		if err != nil {
			return nil, report, fmt.Errorf("winsorize %s: %w", col, err)
		}
		cr.Median, cr.MAD, cr.Clipped = b.Median, b.MAD, clipped

		// 3. Standardize
		cr.Degenerate = Standardize(xs) || collapsed

		// 4. Neutralize
		if design != nil {
			resid, err := Residualize(xs, design)
			if err != nil {
				return nil, report, fmt.Errorf("neutralize %s: %w", col, err)
			}
			xs = resid

			// 5. Restandardize (옵션)
			if c.config.Restandardize {
				cr.Degenerate = Standardize(xs) || cr.Degenerate
			}
		}
		columns[col] = xs
	}

	out := contracts.NewFactorTable(append([]contracts.Field{}, raw.Columns...)...)
	for i, code := range codes {
		for _, col := range raw.Columns {
			out.Set(code, col, columns[col][i])
		}
	}
	carryControls(raw, out, codes, c.config.Controls)
	report.Output = out.Len()

	c.logger.WithFields(map[string]interface{}{
		"input":    report.Input,
		"output":   report.Output,
		"dropped":  report.Dropped,
		"controls": c.config.Controls,
		"columns":  len(raw.Columns),
	}).Info("Factor cleaning completed")

	return out, report, nil
}

func (c *Cleaner) missingLabel(t *contracts.FactorTable, code string) bool {
	for _, f := range c.config.Controls {
		if !f.IsLabel() {
			continue
		}
		if _, ok := t.Label(code, f); !ok {
			return true
		}
	}
	return false
}

// design builds [intercept | dummies(label controls) | continuous controls].
// 통제 변수가 없으면 nil (중립화 생략)
func (c *Cleaner) design(t *contracts.FactorTable, codes []string) (*Design, error) {
	if len(c.config.Controls) == 0 || len(codes) == 0 {
		return nil, nil
	}

	names := []string{"intercept"}
	cols := [][]float64{constant(len(codes), 1)}

	for _, f := range c.config.Controls {
		if f.IsLabel() {
			levels := labelLevels(t, codes, f)
			// 첫 수준은 절편에 흡수
			for _, level := range levels[min(1, len(levels)):] {
				dummy := make([]float64, len(codes))
				for i, code := range codes {
					if v, _ := t.Label(code, f); v == level {
						dummy[i] = 1
					}
				}
				names = append(names, string(f)+"="+level)
				cols = append(cols, dummy)
			}
			continue
		}

		xs := columnValues(t, codes, f)
		if _, ok := ImputeMean(xs); !ok {
			return nil, fmt.Errorf("control %s has no values: %w", f, contracts.ErrDataUnavailable)
		}
		names = append(names, string(f))
		cols = append(cols, xs)
	}

	data := make([]float64, 0, len(codes)*len(cols))
	for i := range codes {
		for _, col := range cols {
			data = append(data, col[i])
		}
	}
	return &Design{X: mat.NewDense(len(codes), len(cols), data), Names: names}, nil
}

// neutralize regresses every column of t on the controls and keeps the
// residuals (no winsorize/standardize). Rows missing a label control are dropped.
func neutralize(t *contracts.FactorTable, controls []contracts.Field) (*contracts.FactorTable, error) {
	c := &Cleaner{config: Config{Controls: controls}}

	codes := make([]string, 0, t.Len())
	for _, code := range t.Codes() {
		if !c.missingLabel(t, code) {
			codes = append(codes, code)
		}
	}

	out := contracts.NewFactorTable(append([]contracts.Field{}, t.Columns...)...)
	if len(codes) == 0 {
		return out, nil
	}
	design, err := c.design(t, codes)
	if err != nil {
		return nil, err
	}

	for _, col := range t.Columns {
		xs := columnValues(t, codes, col)
		if _, ok := ImputeMean(xs); !ok {
			continue
		}
		resid, err := Residualize(xs, design)
		if err != nil {
			return nil, fmt.Errorf("neutralize %s: %w", col, err)
		}
		for i, code := range codes {
			out.Set(code, col, resid[i])
		}
	}
	carryControls(t, out, codes, controls)
	return out, nil
}

// carryControls copies labels and continuous controls that are not cleaned columns
func carryControls(src, dst *contracts.FactorTable, codes []string, controls []contracts.Field) {
	isColumn := make(map[contracts.Field]bool, len(dst.Columns))
	for _, col := range dst.Columns {
		isColumn[col] = true
	}
	for _, code := range codes {
		for f, v := range src.Labels[code] {
			dst.SetLabel(code, f, v)
		}
		for _, f := range controls {
			if f.IsLabel() || isColumn[f] {
				continue
			}
			if v, ok := src.Value(code, f); ok {
				dst.Set(code, f, v)
			}
		}
	}
}

func columnValues(t *contracts.FactorTable, codes []string, col contracts.Field) []float64 {
	xs := make([]float64, len(codes))
	for i, code := range codes {
		v, ok := t.Value(code, col)
		if !ok {
			xs[i] = nan
			continue
		}
		xs[i] = v
	}
	return xs
}

func labelLevels(t *contracts.FactorTable, codes []string, f contracts.Field) []string {
	seen := make(map[string]bool)
	for _, code := range codes {
		if v, ok := t.Label(code, f); ok {
			seen[v] = true
		}
	}
	levels := make([]string, 0, len(seen))
	for v := range seen {
		levels = append(levels, v)
	}
	sort.Strings(levels)
	return levels
}

func constant(n int, v float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = v
	}
	return xs
}
