// Package formulas holds the pure numeric building blocks behind the return statistics.
//
// Functions that can be undefined for a given input (too few observations, zero
// variance) return a nil *float64 instead of NaN or an error.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily data.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample (n-1) standard deviation.
// Returns nil for fewer than two observations.
func StdDev(data []float64) *float64 {
	if len(data) < 2 {
		return nil
	}
	sd := stat.StdDev(data, nil)
	return &sd
}

// Variance calculates the sample (n-1) variance.
// Returns nil for fewer than two observations.
func Variance(data []float64) *float64 {
	if len(data) < 2 {
		return nil
	}
	v := stat.Variance(data, nil)
	return &v
}

// Skewness calculates the adjusted Fisher-Pearson skewness (G1).
// Needs at least three observations and non-zero dispersion.
func Skewness(data []float64) *float64 {
	if len(data) < 3 || !hasDispersion(data) {
		return nil
	}
	s := stat.Skew(data, nil)
	return &s
}

// ExcessKurtosis calculates the bias-corrected excess kurtosis (G2).
// Needs at least four observations and non-zero dispersion.
func ExcessKurtosis(data []float64) *float64 {
	if len(data) < 4 || !hasDispersion(data) {
		return nil
	}
	k := stat.ExKurtosis(data, nil)
	return &k
}

// Min returns the smallest value, or nil for an empty slice.
func Min(data []float64) *float64 {
	if len(data) == 0 {
		return nil
	}
	m := data[0]
	for _, v := range data[1:] {
		if v < m {
			m = v
		}
	}
	return &m
}

// Max returns the largest value, or nil for an empty slice.
func Max(data []float64) *float64 {
	if len(data) == 0 {
		return nil
	}
	m := data[0]
	for _, v := range data[1:] {
		if v > m {
			m = v
		}
	}
	return &m
}

// GeometricMean calculates exp(mean(log(1+r))) - 1 over the returns above -1.
// Returns at or below -100% are skipped because log(1+r) is undefined there.
func GeometricMean(returns []float64) *float64 {
	var sum float64
	n := 0
	for _, r := range returns {
		if r <= -1 {
			continue
		}
		sum += math.Log1p(r)
		n++
	}
	if n == 0 {
		return nil
	}
	g := math.Expm1(sum / float64(n))
	return &g
}

// AnnualizedReturn scales a periodic mean return linearly.
// Formula: mean × periodsPerYear
func AnnualizedReturn(mean float64, periodsPerYear int) float64 {
	return mean * float64(periodsPerYear)
}

// AnnualizedVolatility scales a periodic standard deviation under the i.i.d. assumption.
// Formula: stdDev × sqrt(periodsPerYear)
func AnnualizedVolatility(stdDev float64, periodsPerYear int) float64 {
	return stdDev * math.Sqrt(float64(periodsPerYear))
}

// Correlation calculates the Pearson correlation coefficient between two datasets.
// Returns nil on mismatched lengths, fewer than two points, or a constant side.
func Correlation(x, y []float64) *float64 {
	if len(x) < 2 || len(x) != len(y) || !hasDispersion(x) || !hasDispersion(y) {
		return nil
	}
	c := stat.Correlation(x, y, nil)
	return &c
}

// Covariance calculates the sample covariance between two datasets.
func Covariance(x, y []float64) *float64 {
	if len(x) < 2 || len(x) != len(y) {
		return nil
	}
	c := stat.Covariance(x, y, nil)
	return &c
}

// Beta calculates cov(asset, market) / var(market).
// Returns nil when the market series has no variance.
func Beta(asset, market []float64) *float64 {
	cov := Covariance(asset, market)
	if cov == nil {
		return nil
	}
	v := Variance(market)
	if v == nil || *v == 0 {
		return nil
	}
	b := *cov / *v
	return &b
}

// CumulativeReturns compounds a return series: out[i] = Π(1+r[0..i]).
func CumulativeReturns(returns []float64) []float64 {
	out := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		acc *= 1 + r
		out[i] = acc
	}
	return out
}

// RollingCorrelation calculates the Pearson correlation over a trailing window.
// out[i] covers x[i-window+1..i]; the first window-1 entries are NaN, as are
// windows where either side is constant.
func RollingCorrelation(x, y []float64, window int) []float64 {
	if len(x) != len(y) || window < 2 {
		return nil
	}
	out := make([]float64, len(x))
	for i := range out {
		out[i] = math.NaN()
		if i+1 < window {
			continue
		}
		if c := Correlation(x[i+1-window:i+1], y[i+1-window:i+1]); c != nil {
			out[i] = *c
		}
	}
	return out
}

func hasDispersion(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return true
		}
	}
	return false
}
