// Package statistics computes descriptive and comparative statistics over return series.
package statistics

import (
	"strings"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/pkg/formulas"
)

const (
	// DefaultRiskFreeRate is the annual risk-free rate used for the Sharpe ratio
	DefaultRiskFreeRate = 0.02
	// DefaultRollingWindow is the window for rolling correlation, in observations
	DefaultRollingWindow = 60
)

// Config holds the annualization parameters
type Config struct {
	RiskFreeRate   float64 // Annual, as decimal
	PeriodsPerYear int     // 252 for daily data
}

// DefaultConfig returns a 2% risk-free rate over 252 trading days
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:   DefaultRiskFreeRate,
		PeriodsPerYear: formulas.TradingDaysPerYear,
	}
}

// Calculator computes statistics with a fixed configuration
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator; a non-positive period count falls back to 252
func NewCalculator(cfg Config) *Calculator {
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = formulas.TradingDaysPerYear
	}
	return &Calculator{cfg: cfg}
}

// Config returns the calculator configuration
func (c *Calculator) Config() Config {
	return c.cfg
}

// ComputeAsset summarises the valid returns of rs.
// The bool is false when there are no valid returns; the caller treats that as
// an empty result rather than an error.
func (c *Calculator) ComputeAsset(rs domain.ReturnSeries) (domain.AssetStatistics, bool) {
	values := rs.ValidValues()
	if len(values) == 0 {
		return domain.AssetStatistics{Name: rs.Name}, false
	}

	mean := formulas.Mean(values)
	stats := domain.AssetStatistics{
		Name:             rs.Name,
		Count:            len(values),
		Mean:             mean,
		StdDev:           formulas.StdDev(values),
		Variance:         formulas.Variance(values),
		Skewness:         formulas.Skewness(values),
		Kurtosis:         formulas.ExcessKurtosis(values),
		Min:              *formulas.Min(values),
		Max:              *formulas.Max(values),
		AnnualizedReturn: formulas.AnnualizedReturn(mean, c.cfg.PeriodsPerYear),
		GeometricMean:    formulas.GeometricMean(values),
		SharpeRatio:      formulas.CalculateSharpeRatio(values, c.cfg.RiskFreeRate, c.cfg.PeriodsPerYear),
	}

	if stats.StdDev != nil {
		vol := formulas.AnnualizedVolatility(*stats.StdDev, c.cfg.PeriodsPerYear)
		stats.AnnualizedVolatility = &vol
	}

	return stats, true
}

// ComputePair relates two series over the dates where both have a valid return.
//
// Beta is computed only when market names one of the two assets (case-insensitive);
// it is cov(a, b) / var(market side). The bool is false when fewer than two
// shared observations exist.
func (c *Calculator) ComputePair(a, b domain.ReturnSeries, market *string) (domain.PairStatistics, bool) {
	_, x, y := JoinValid(a, b)
	pair := domain.PairStatistics{
		AssetA:       a.Name,
		AssetB:       b.Name,
		Observations: len(x),
	}
	if len(x) < 2 {
		return pair, false
	}

	pair.Covariance = *formulas.Covariance(x, y)
	pair.Correlation = formulas.Correlation(x, y)

	if market != nil {
		switch {
		case strings.EqualFold(*market, a.Name):
			pair.MarketAsset = a.Name
			pair.Beta = formulas.Beta(y, x)
		case strings.EqualFold(*market, b.Name):
			pair.MarketAsset = b.Name
			pair.Beta = formulas.Beta(x, y)
		}
	}

	return pair, true
}

var defaultCalculator = NewCalculator(DefaultConfig())

// ComputeAsset uses the default configuration
func ComputeAsset(rs domain.ReturnSeries) (domain.AssetStatistics, bool) {
	return defaultCalculator.ComputeAsset(rs)
}

// ComputePair uses the default configuration
func ComputePair(a, b domain.ReturnSeries, market *string) (domain.PairStatistics, bool) {
	return defaultCalculator.ComputePair(a, b, market)
}
