// Package reporting renders analysis reports for people and machines.
//
// Renderers only format values that were already computed; undefined
// statistics (nil pointers) are printed as "n/a".
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stocklab/stocklab/internal/domain"
)

const ruleWidth = 80

// Renderer writes a report to w
type Renderer interface {
	Render(w io.Writer, report *domain.Report) error
}

// TextRenderer prints the console summary: one labeled block per asset with
// statistics, followed by one block per analysed pair.
type TextRenderer struct{}

// NewTextRenderer creates a console renderer
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// Render writes the summary. Assets without statistics are skipped.
func (r *TextRenderer) Render(w io.Writer, report *domain.Report) error {
	p := &printer{w: w}

	p.line("")
	p.line(strings.Repeat("=", ruleWidth))
	p.line("STOCK ANALYSIS SUMMARY")
	p.line(strings.Repeat("=", ruleWidth))

	for _, asset := range report.Assets {
		if asset.Statistics == nil {
			continue
		}
		writeAssetBlock(p, asset.Statistics)
	}

	for _, pair := range report.Pairs {
		writePairBlock(p, pair)
	}

	return p.err
}

func writeAssetBlock(p *printer, s *domain.AssetStatistics) {
	p.line("")
	p.line("%s STATISTICS:", strings.ToUpper(s.Name))
	p.line("   Data Points: %s", FormatCount(s.Count))
	p.line("   Average Daily Return: %s", percentValue(&s.Mean))
	p.line("   Geometric Mean Return: %s", percentValue(s.GeometricMean))
	p.line("   Annualized Return: %s", percentValue(&s.AnnualizedReturn))
	p.line("   Daily Volatility: %s", percentValue(s.StdDev))
	p.line("   Annualized Volatility: %s", percentValue(s.AnnualizedVolatility))
	p.line("   Sharpe Ratio: %s", fixed(s.SharpeRatio, 3))
	p.line("   Skewness: %s", fixed(s.Skewness, 3))
	p.line("   Kurtosis: %s", fixed(s.Kurtosis, 3))
	p.line("   Min/Max Return: %.4f / %.4f", s.Min, s.Max)
}

func writePairBlock(p *printer, pair domain.PairStatistics) {
	p.line("")
	p.line("PAIR METRICS: %s / %s", pair.AssetA, pair.AssetB)
	p.line("   Observations: %s", FormatCount(pair.Observations))
	p.line("   Correlation: %s", fixed(pair.Correlation, 4))
	p.line("   Covariance: %.6f", pair.Covariance)
	if pair.Beta != nil {
		p.line("   Beta (vs %s): %.3f", pair.MarketAsset, *pair.Beta)
	}
}

// printer remembers the first write error so blocks can be written without checks
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

// percentValue formats a decimal as "0.0123 (1.23%)"
func percentValue(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f (%.2f%%)", *v, *v*100)
}

func fixed(v *float64, places int) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', places, 64)
}

// FormatCount renders an integer with thousands separators: 12345 -> "12,345"
func FormatCount(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
