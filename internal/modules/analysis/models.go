// Package analysis runs batch return analyses over CSV files and stored tickers.
package analysis

import (
	"strings"
	"time"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/returns"
)

// AssetSource names where an asset's prices come from. Exactly one of Path and Ticker is set.
type AssetSource struct {
	Name   string `json:"name,omitempty"`
	Path   string `json:"path,omitempty"`
	Ticker string `json:"ticker,omitempty"`
}

// FromPath creates a source for a CSV price file; the name defaults to the file stem
func FromPath(path string) AssetSource {
	return AssetSource{Path: path}
}

// FromTicker creates a source for a ticker held in the price store
func FromTicker(ticker string) AssetSource {
	return AssetSource{Ticker: strings.ToUpper(strings.TrimSpace(ticker))}
}

// DisplayName is the name the asset is reported under
func (s AssetSource) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Ticker != "":
		return strings.ToUpper(s.Ticker)
	default:
		return returns.NameFromPath(s.Path)
	}
}

// Describe returns the path or "store:<ticker>"
func (s AssetSource) Describe() string {
	if s.Ticker != "" {
		return "store:" + strings.ToUpper(s.Ticker)
	}
	return s.Path
}

func (s AssetSource) validate(i int) error {
	if (s.Path == "") == (s.Ticker == "") {
		return domain.NewValidationError("Assets", "asset %d must set exactly one of path or ticker", i)
	}
	return nil
}

// Request describes one analysis run.
// Market names the asset betas are measured against; nil disables beta.
// From and To bound stored-ticker sources; zero values are open.
type Request struct {
	Assets []AssetSource `json:"assets"`
	Market *string       `json:"market,omitempty"`
	Align  bool          `json:"align"`
	From   time.Time     `json:"from,omitempty"`
	To     time.Time     `json:"to,omitempty"`
}

// RunSummary is a stored run without its report body
type RunSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Market    string    `json:"market,omitempty"`
	Assets    []string  `json:"assets"`
}
