package screening

import "fmt"

// Params holds the thresholds of every predicate
// SSOT: config/strategy/value_investment.yaml screening.params
type Params struct {
	// pe_vs_bond_yield: 100/PE > yield × multiple
	EarningsYieldMultiple float64 `yaml:"earnings_yield_multiple" json:"earnings_yield_multiple"`

	// pe_vs_five_year_max: PE_lyr < fraction × trailing max
	PEMaxFraction float64 `yaml:"pe_max_fraction" json:"pe_max_fraction"`
	PEMaxWindow   int     `yaml:"pe_max_window" json:"pe_max_window"` // 거래일 수

	// dividend_yield: yield > bond × ratio
	DividendRatio        float64 `yaml:"dividend_ratio" json:"dividend_ratio"`
	DividendLookbackDays int     `yaml:"dividend_lookback_days" json:"dividend_lookback_days"`

	// market_cap_vs_tangible_assets / market_cap_vs_net_current_assets
	TangibleAssetFraction   float64 `yaml:"tangible_asset_fraction" json:"tangible_asset_fraction"`
	NetCurrentAssetFraction float64 `yaml:"net_current_asset_fraction" json:"net_current_asset_fraction"`

	// current_ratio: current assets / current liability > min
	MinCurrentRatio float64 `yaml:"min_current_ratio" json:"min_current_ratio"`

	// liability_vs_net_current_assets: liability < multiple × (current assets − liability)
	NetCurrentAssetMultiple float64 `yaml:"net_current_asset_multiple" json:"net_current_asset_multiple"`

	// long_run_cagr
	CAGRYears int     `yaml:"cagr_years" json:"cagr_years"`
	CAGRMin   float64 `yaml:"cagr_min" json:"cagr_min"`

	// loss_years
	LossYears     int     `yaml:"loss_years" json:"loss_years"`
	LossThreshold float64 `yaml:"loss_threshold" json:"loss_threshold"`
	MaxLossYears  int     `yaml:"max_loss_years" json:"max_loss_years"`
}

// DefaultParams returns the classic value-investment thresholds
func DefaultParams() Params {
	return Params{
		EarningsYieldMultiple:   2,
		PEMaxFraction:           0.4,
		PEMaxWindow:             250 * 5,
		DividendRatio:           2.0 / 3.0,
		DividendLookbackDays:    365,
		TangibleAssetFraction:   2.0 / 3.0,
		NetCurrentAssetFraction: 2.0 / 3.0,
		MinCurrentRatio:         2,
		NetCurrentAssetMultiple: 2,
		CAGRYears:               10,
		CAGRMin:                 0.07,
		LossYears:               10,
		LossThreshold:           -0.05,
		MaxLossYears:            2,
	}
}

// Validate rejects thresholds that make a predicate meaningless
func (p Params) Validate() error {
	switch {
	case p.EarningsYieldMultiple <= 0:
		return fmt.Errorf("earnings_yield_multiple must be > 0")
	case p.PEMaxFraction <= 0:
		return fmt.Errorf("pe_max_fraction must be > 0")
	case p.PEMaxWindow < 1:
		return fmt.Errorf("pe_max_window must be >= 1")
	case p.DividendRatio < 0:
		return fmt.Errorf("dividend_ratio must be >= 0")
	case p.DividendLookbackDays < 1:
		return fmt.Errorf("dividend_lookback_days must be >= 1")
	case p.TangibleAssetFraction <= 0, p.NetCurrentAssetFraction <= 0:
		return fmt.Errorf("asset fractions must be > 0")
	case p.MinCurrentRatio <= 0:
		return fmt.Errorf("min_current_ratio must be > 0")
	case p.NetCurrentAssetMultiple <= 0:
		return fmt.Errorf("net_current_asset_multiple must be > 0")
	case p.CAGRYears < 1:
		return fmt.Errorf("cagr_years must be >= 1")
	case p.LossYears < 1:
		return fmt.Errorf("loss_years must be >= 1")
	case p.MaxLossYears < 0:
		return fmt.Errorf("max_loss_years must be >= 0")
	}
	return nil
}
