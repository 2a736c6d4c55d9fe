package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/stocklab/stocklab/internal/domain"
)

// MarkdownRenderer lays the report out as markdown tables. With Style set the
// markdown is rendered for the terminal through glamour.
type MarkdownRenderer struct {
	Style    string // glamour standard style ("dark", "light", "notty"); empty emits raw markdown
	WordWrap int
}

// NewMarkdownRenderer creates a renderer for the given glamour style
func NewMarkdownRenderer(style string) *MarkdownRenderer {
	return &MarkdownRenderer{Style: style, WordWrap: 100}
}

// Render writes the report
func (r *MarkdownRenderer) Render(w io.Writer, report *domain.Report) error {
	md := Markdown(report)
	if r.Style == "" {
		_, err := io.WriteString(w, md)
		return err
	}

	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.Style),
		glamour.WithWordWrap(r.WordWrap),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := term.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Markdown builds the markdown document for a report
func Markdown(report *domain.Report) string {
	var b strings.Builder

	b.WriteString("# Stock Analysis Summary\n\n")
	if report.RunID != "" {
		fmt.Fprintf(&b, "Run `%s` generated %s\n\n", report.RunID, report.GeneratedAt.Format("2006-01-02 15:04:05"))
	}

	b.WriteString("| Asset | Points | Mean | Geo Mean | Ann. Return | Volatility | Ann. Volatility | Sharpe | Skew | Kurtosis | Min | Max |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, asset := range report.Assets {
		s := asset.Statistics
		if s == nil {
			fmt.Fprintf(&b, "| %s | 0 | n/a | n/a | n/a | n/a | n/a | n/a | n/a | n/a | n/a | n/a |\n", asset.Name)
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %.4f | %.4f |\n",
			s.Name, FormatCount(s.Count),
			fixed(&s.Mean, 4), fixed(s.GeometricMean, 4), fixed(&s.AnnualizedReturn, 4),
			fixed(s.StdDev, 4), fixed(s.AnnualizedVolatility, 4),
			fixed(s.SharpeRatio, 3), fixed(s.Skewness, 3), fixed(s.Kurtosis, 3),
			s.Min, s.Max)
	}

	if len(report.Pairs) > 0 {
		b.WriteString("\n## Pairs\n\n")
		b.WriteString("| Pair | Observations | Correlation | Covariance | Beta |\n")
		b.WriteString("|---|---:|---:|---:|---:|\n")
		for _, pair := range report.Pairs {
			beta := "n/a"
			if pair.Beta != nil {
				beta = fmt.Sprintf("%.3f (vs %s)", *pair.Beta, pair.MarketAsset)
			}
			fmt.Fprintf(&b, "| %s / %s | %s | %s | %.6f | %s |\n",
				pair.AssetA, pair.AssetB, FormatCount(pair.Observations),
				fixed(pair.Correlation, 4), pair.Covariance, beta)
		}
	}

	return b.String()
}
