package domain

import "time"

// AssetStatistics summarises the valid daily returns of one asset.
// Nil pointers mark values that are undefined for the available data.
type AssetStatistics struct {
	Name                 string   `json:"name"`
	Count                int      `json:"count"`
	Mean                 float64  `json:"mean"`
	StdDev               *float64 `json:"std_dev"`
	Variance             *float64 `json:"variance"`
	Skewness             *float64 `json:"skewness"`
	Kurtosis             *float64 `json:"kurtosis"`
	Min                  float64  `json:"min"`
	Max                  float64  `json:"max"`
	AnnualizedReturn     float64  `json:"annualized_return"`
	AnnualizedVolatility *float64 `json:"annualized_volatility"`
	GeometricMean        *float64 `json:"geometric_mean"`
	SharpeRatio          *float64 `json:"sharpe_ratio"`
}

// PairStatistics relates the returns of two assets over their shared dates.
// Beta is set only when one of the two assets is the designated market.
type PairStatistics struct {
	AssetA       string   `json:"asset_a"`
	AssetB       string   `json:"asset_b"`
	Observations int      `json:"observations"`
	Covariance   float64  `json:"covariance"`
	Correlation  *float64 `json:"correlation"`
	Beta         *float64 `json:"beta,omitempty"`
	MarketAsset  string   `json:"market_asset,omitempty"`
}

// HasBeta reports whether a beta was computed
func (p PairStatistics) HasBeta() bool {
	return p.Beta != nil
}

// AssetResult is one asset's entry in an analysis report.
// Statistics is nil when the asset produced no valid returns.
type AssetResult struct {
	Name       string           `json:"name"`
	Source     string           `json:"source,omitempty"`
	Statistics *AssetStatistics `json:"statistics"`
	Error      string           `json:"error,omitempty"`
	Returns    ReturnSeries     `json:"-"`
}

// Report is the outcome of analysing a batch of assets
type Report struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Market      string           `json:"market,omitempty"`
	Assets      []AssetResult    `json:"assets"`
	Pairs       []PairStatistics `json:"pairs"`
}

// Asset looks up an asset result by name
func (r *Report) Asset(name string) (AssetResult, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return AssetResult{}, false
}
