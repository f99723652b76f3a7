package strategyconfig

import (
	"fmt"
	"slices"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/internal/screening"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Cadence ===
	if cfg.Period < 1 {
		return ValidationError{"period", fmt.Sprintf("must be >= 1, got %d", cfg.Period)}
	}

	// === Universe ===
	if cfg.Universe.IndexID == "" {
		return ValidationError{"universe.index_id", "required"}
	}

	// === Screening ===
	known := screening.BuiltinIDs()
	seen := make(map[string]bool)
	for _, id := range cfg.Screening.Active {
		if !slices.Contains(known, id) {
			return ValidationError{"screening.active", fmt.Sprintf("unknown screen %q (known: %v)", id, known)}
		}
		if seen[id] {
			return ValidationError{"screening.active", fmt.Sprintf("duplicate screen %q", id)}
		}
		seen[id] = true
	}
	switch cfg.Screening.Combine {
	case screening.CombineIntersection, screening.CombineUnion:
	default:
		return ValidationError{"screening.combine", fmt.Sprintf("must be intersection or union, got %q", cfg.Screening.Combine)}
	}
	switch cfg.Screening.EmptyPolicy {
	case screening.EmptyPassAll, screening.EmptyFail:
	default:
		return ValidationError{"screening.empty_policy", fmt.Sprintf("must be pass_all or fail, got %q", cfg.Screening.EmptyPolicy)}
	}
	if err := cfg.Screening.Params.Validate(); err != nil {
		return ValidationError{"screening.params", err.Error()}
	}

	// === Factor ===
	if len(cfg.Factor.Columns) == 0 {
		return ValidationError{"factor.columns", "must not be empty"}
	}
	if err := validateFields(cfg.Factor.Columns, "factor.columns", false); err != nil {
		return err
	}
	if err := validateFields(cfg.Factor.Controls, "factor.controls", true); err != nil {
		return err
	}
	if cfg.Factor.WinsorizeScale <= 0 {
		return ValidationError{"factor.winsorize_scale", "must be > 0"}
	}

	// === Selection ===
	if !slices.Contains(cfg.Factor.Columns, cfg.Selection.SortBy) {
		return ValidationError{"selection.sort_by", fmt.Sprintf("%q is not a factor column %v", cfg.Selection.SortBy, cfg.Factor.Columns)}
	}
	if cfg.Selection.TopK < 0 {
		return ValidationError{"selection.top_k", "must be >= 0"}
	}

	// === Bond yield ===
	if _, err := cfg.BondYieldSeries(); err != nil {
		return ValidationError{"bond_yield", err.Error()}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 정렬 컬럼이 통제 변수면 잔차가 0 → 순위 무의미
	if slices.Contains(cfg.Factor.Controls, cfg.Selection.SortBy) {
		warnings = append(warnings, Warning{
			Code:    "SORT_IS_CONTROL",
			Message: fmt.Sprintf("sort_by %q is also a neutralization control: residuals are zero", cfg.Selection.SortBy),
		})
	}

	if len(cfg.Screening.Active) == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_ACTIVE_SCREENS",
			Message: fmt.Sprintf("no active screens, empty_policy=%s", cfg.Screening.EmptyPolicy),
		})
	}

	if cfg.Selection.Ascending {
		warnings = append(warnings, Warning{
			Code:    "ASCENDING_SORT",
			Message: "ascending sort prefers the lowest neutralized residual",
		})
	}

	if cfg.Screening.Combine == screening.CombineUnion && len(cfg.Screening.Active) > 1 {
		warnings = append(warnings, Warning{
			Code:    "UNION_COMBINE",
			Message: "union of screens: any single screen admits a stock",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateFields(fields []contracts.Field, name string, allowLabel bool) error {
	seen := make(map[contracts.Field]bool)
	for _, f := range fields {
		if !contracts.KnownField(f) {
			return ValidationError{name, fmt.Sprintf("unknown field %q", f)}
		}
		if f.IsLabel() && !allowLabel {
			return ValidationError{name, fmt.Sprintf("%q is categorical", f)}
		}
		if seen[f] {
			return ValidationError{name, fmt.Sprintf("duplicate field %q", f)}
		}
		seen[f] = true
	}
	return nil
}
