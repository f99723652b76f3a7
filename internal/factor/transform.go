package factor

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// degenerateTolerance 표준편차가 이 비율 이하이면 분산 0으로 간주
const degenerateTolerance = 1e-9

var nan = math.NaN()

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func presentValues(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if finite(v) {
			out = append(out, v)
		}
	}
	return out
}

// ImputeMean replaces non-finite values with the mean of the finite ones.
// ok=false when the column has no finite value at all.
func ImputeMean(xs []float64) (imputed int, ok bool) {
	present := presentValues(xs)
	if len(present) == 0 {
		return 0, false
	}
	mean, err := stats.Mean(present)
	if err != nil {
		return 0, false
	}
	for i, v := range xs {
		if !finite(v) {
			xs[i] = mean
			imputed++
		}
	}
	return imputed, true
}

// Bounds is a closed winsorization interval
type Bounds struct {
	Median float64
	MAD    float64
	Lower  float64
	Upper  float64
}

// Contains reports lower ≤ v ≤ upper
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// MedianBounds computes median ± scale × MAD (raw, unscaled MAD)
func MedianBounds(xs []float64, scale float64) (Bounds, error) {
	present := presentValues(xs)
	if len(present) == 0 {
		return Bounds{}, fmt.Errorf("median bounds: %w", stats.ErrEmptyInput)
	}
	median, err := stats.Median(present)
	if err != nil {
		return Bounds{}, fmt.Errorf("median: %w", err)
	}
	deviations := make([]float64, len(present))
	for i, v := range present {
		deviations[i] = math.Abs(v - median)
	}
	mad, err := stats.Median(deviations)
	if err != nil {
		return Bounds{}, fmt.Errorf("mad: %w", err)
	}
	return Bounds{
		Median: median,
		MAD:    mad,
		Lower:  median - scale*mad,
		Upper:  median + scale*mad,
	}, nil
}

// Winsorize clamps xs in place to median ± scale × MAD.
// ±Inf는 먼저 결측 처리 후 평균으로 재대체한다.
// MAD가 0이면 경계가 중앙값 한 점으로 붕괴하여 전 종목이 중앙값이 된다 (degenerate=true).
func Winsorize(xs []float64, scale float64) (b Bounds, clipped int, degenerate bool, err error) {
	for i, v := range xs {
		if math.IsInf(v, 0) {
			xs[i] = math.NaN()
		}
	}
	if _, ok := ImputeMean(xs); !ok {
		return Bounds{}, 0, false, fmt.Errorf("winsorize: %w", stats.ErrEmptyInput)
	}

	b, err = MedianBounds(xs, scale)
	if err != nil {
		return Bounds{}, 0, false, err
	}
	for i, v := range xs {
		switch {
		case v < b.Lower:
			xs[i] = b.Lower
			clipped++
		case v > b.Upper:
			xs[i] = b.Upper
			clipped++
		}
	}
	return b, clipped, b.MAD == 0, nil
}

// Standardize rescales xs in place to zero mean and unit sample variance.
// 분산 0 (또는 표본 1개) 이면 중심화 후 0으로 채우고 degenerate=true
func Standardize(xs []float64) (degenerate bool) {
	for i, v := range xs {
		if math.IsInf(v, 0) {
			xs[i] = math.NaN()
		}
	}
	if _, ok := ImputeMean(xs); !ok {
		return true
	}

	mean, _ := stats.Mean(xs)
	var std float64
	if len(xs) > 1 {
		std, _ = stats.StandardDeviationSample(xs)
	}

	scale := 1.0
	for _, v := range xs {
		scale = math.Max(scale, math.Abs(v))
	}
	if !finite(std) || std <= degenerateTolerance*scale {
		for i := range xs {
			xs[i] = 0
		}
		return true
	}

	for i, v := range xs {
		xs[i] = (v - mean) / std
	}
	return false
}

// Design is a regression design matrix (intercept included)
type Design struct {
	X     *mat.Dense
	Names []string
}

// Rows returns the number of observations
func (d *Design) Rows() int {
	if d == nil || d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// Residualize returns y − X·β where β is the minimum-norm least-squares
// solution via thin SVD. 랭크 부족 설계(더미 공선성 등)도 실패하지 않는다.
func Residualize(y []float64, d *Design) ([]float64, error) {
	if d == nil || d.X == nil {
		return append([]float64(nil), y...), nil
	}
	n, p := d.X.Dims()
	if len(y) != n {
		return nil, fmt.Errorf("residualize: %d observations, design has %d rows", len(y), n)
	}
	if n == 0 || p == 0 {
		return append([]float64(nil), y...), nil
	}

	var svd mat.SVD
	if ok := svd.Factorize(d.X, mat.SVDThin); !ok {
		return nil, fmt.Errorf("residualize: svd factorization failed")
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return append([]float64(nil), y...), nil
	}

	b := mat.NewDense(n, 1, append([]float64(nil), y...))
	var beta mat.Dense
	svd.SolveTo(&beta, b, rank)

	var fitted mat.Dense
	fitted.Mul(d.X, &beta)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = y[i] - fitted.At(i, 0)
	}
	return out, nil
}
