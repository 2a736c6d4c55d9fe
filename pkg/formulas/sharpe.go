package formulas

// PeriodicRiskFreeRate converts an annual risk-free rate to a per-period rate.
// Formula: annualRate / periodsPerYear
func PeriodicRiskFreeRate(annualRate float64, periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		return 0
	}
	return annualRate / float64(periodsPerYear)
}

// CalculateSharpeRatio calculates the periodic (not annualized) Sharpe ratio.
//
// Sharpe Ratio Formula:
//
//	Sharpe = (Mean Periodic Return - Periodic Risk-free Rate) / Standard Deviation of Returns
//
// Args:
//
//	returns: Array of periodic returns (daily, monthly, etc.)
//	riskFreeRate: Risk-free rate (annual, as decimal, e.g., 0.02 for 2%)
//	periodsPerYear: Number of periods per year (252 for daily, 12 for monthly)
//
// Returns:
//
//	Sharpe ratio, or nil with fewer than two returns or zero volatility
func CalculateSharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	stdDev := StdDev(returns)
	if stdDev == nil || *stdDev == 0 {
		return nil
	}

	sharpe := (Mean(returns) - PeriodicRiskFreeRate(riskFreeRate, periodsPerYear)) / *stdDev
	return &sharpe
}
