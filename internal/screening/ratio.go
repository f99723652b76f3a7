package screening

import "math"

// SafeRatio returns num/den, or ok=false when the ratio is undefined
// (zero or non-finite denominator, non-finite numerator)
func SafeRatio(num, den float64) (float64, bool) {
	if den == 0 || !finite(num) || !finite(den) {
		return 0, false
	}
	r := num / den
	if !finite(r) {
		return 0, false
	}
	return r, true
}

// PositiveDenominator is SafeRatio restricted to den > 0
func PositiveDenominator(num, den float64) (float64, bool) {
	if den <= 0 {
		return 0, false
	}
	return SafeRatio(num, den)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
