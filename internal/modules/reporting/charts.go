package reporting

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/statistics"
)

// DefaultHistogramBins is the bin count for return distributions
const DefaultHistogramBins = 50

var palette = []drawing.Color{
	drawing.ColorFromHex("2563eb"), // blue-600
	drawing.ColorFromHex("dc2626"), // red-600
	drawing.ColorFromHex("16a34a"), // green-600
	drawing.ColorFromHex("9333ea"), // purple-600
	drawing.ColorFromHex("ea580c"), // orange-600
}

func colorFor(i int) drawing.Color {
	return palette[i%len(palette)]
}

// ChartRenderer draws the analysis panels as PNG images
type ChartRenderer struct {
	Width  int
	Height int
	Bins   int
	Window int // rolling correlation window
}

// NewChartRenderer creates a renderer with 900x400 panels
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{
		Width:  900,
		Height: 400,
		Bins:   DefaultHistogramBins,
		Window: statistics.DefaultRollingWindow,
	}
}

// Histogram renders the distribution of valid returns as a bar chart
func (c *ChartRenderer) Histogram(rs domain.ReturnSeries) ([]byte, error) {
	values := rs.ValidValues()
	if len(values) < 2 {
		return nil, fmt.Errorf("need at least 2 returns for %s, got %d", rs.Name, len(values))
	}
	sort.Float64s(values)

	lo, hi := values[0], values[len(values)-1]
	if lo == hi {
		return nil, fmt.Errorf("returns for %s are constant", rs.Name)
	}

	bins := c.Bins
	if bins < 1 {
		bins = DefaultHistogramBins
	}
	dividers := make([]float64, bins+1)
	// Nudge the top edge so the maximum falls inside the last bin
	floats.Span(dividers, lo, hi+(hi-lo)*1e-9)
	counts := stat.Histogram(nil, dividers, values, nil)

	bars := make([]chart.Value, len(counts))
	for i, n := range counts {
		label := ""
		if i%10 == 0 {
			label = fmt.Sprintf("%.1f%%", dividers[i]*100)
		}
		bars[i] = chart.Value{Value: n, Label: label}
	}

	graph := chart.BarChart{
		Title:      fmt.Sprintf("%s Daily Returns Distribution", rs.Name),
		Width:      c.Width,
		Height:     c.Height,
		BarWidth:   max(2, (c.Width-120)/len(bars)-2),
		BarSpacing: 2,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	return renderPNG(&graph)
}

// ReturnsOverTime renders daily valid returns for each series on a shared time axis
func (c *ChartRenderer) ReturnsOverTime(series ...domain.ReturnSeries) ([]byte, error) {
	var lines []chart.Series
	for i, rs := range series {
		points := rs.ValidPoints()
		if len(points) < 2 {
			continue
		}
		x := make([]time.Time, len(points))
		y := make([]float64, len(points))
		for j, p := range points {
			x[j] = p.Date
			y[j] = p.Value
		}
		lines = append(lines, chart.TimeSeries{
			Name:    rs.Name,
			Style:   chart.Style{StrokeColor: colorFor(i), StrokeWidth: 1},
			XValues: x,
			YValues: y,
		})
	}
	return c.timeChart("Daily Returns Over Time", percentFormatter, lines)
}

// CumulativeReturns renders the growth of one unit invested in each series
func (c *ChartRenderer) CumulativeReturns(series ...domain.ReturnSeries) ([]byte, error) {
	var lines []chart.Series
	for i, rs := range series {
		points := statistics.CumulativeReturns(rs)
		if len(points) < 2 {
			continue
		}
		lines = append(lines, timeSeries(rs.Name, colorFor(i), points))
	}
	return c.timeChart("Cumulative Returns", decimalFormatter, lines)
}

// RollingCorrelation renders the trailing-window correlation between two series
func (c *ChartRenderer) RollingCorrelation(a, b domain.ReturnSeries) ([]byte, error) {
	points := statistics.RollingCorrelation(a, b, c.Window)
	if len(points) < 2 {
		return nil, fmt.Errorf("need more than %d shared returns for rolling correlation of %s and %s",
			c.Window, a.Name, b.Name)
	}
	title := fmt.Sprintf("%d-Day Rolling Correlation: %s vs %s", c.Window, a.Name, b.Name)
	return c.timeChart(title, decimalFormatter, []chart.Series{timeSeries("Correlation", colorFor(3), points)})
}

// Scatter plots the joined returns of a against b with a least-squares fit line
func (c *ChartRenderer) Scatter(a, b domain.ReturnSeries) ([]byte, error) {
	_, x, y := statistics.JoinValid(a, b)
	if len(x) < 2 {
		return nil, fmt.Errorf("need at least 2 shared returns for %s and %s, got %d", a.Name, b.Name, len(x))
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name: "Returns",
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    3,
				DotColor:    colorFor(0).WithAlpha(160),
			},
			XValues: x,
			YValues: y,
		},
	}

	if intercept, slope, ok := statistics.Regression(x, y); ok {
		lo, hi := floats.Min(x), floats.Max(x)
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("Fit (slope %.3f)", slope),
			Style:   chart.Style{StrokeColor: colorFor(1), StrokeWidth: 2},
			XValues: []float64{lo, hi},
			YValues: []float64{intercept + slope*lo, intercept + slope*hi},
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s vs %s Returns", a.Name, b.Name),
		Width:  c.Width,
		Height: c.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis:  chart.XAxis{Name: a.Name + " returns", ValueFormatter: percentFormatter},
		YAxis:  chart.YAxis{Name: b.Name + " returns", ValueFormatter: percentFormatter},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	return renderPNG(&graph)
}

// Volatility compares annualized volatility across assets as bars
func (c *ChartRenderer) Volatility(stats []domain.AssetStatistics) ([]byte, error) {
	var bars []chart.Value
	for i, s := range stats {
		if s.AnnualizedVolatility == nil {
			continue
		}
		bars = append(bars, chart.Value{
			Value: *s.AnnualizedVolatility,
			Label: s.Name,
			Style: chart.Style{FillColor: colorFor(i), StrokeColor: colorFor(i)},
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no assets with a defined volatility")
	}

	graph := chart.BarChart{
		Title:    "Annualized Volatility",
		Width:    c.Width,
		Height:   c.Height,
		BarWidth: 80,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{ValueFormatter: percentFormatter},
		Bars:  bars,
	}
	return renderPNG(&graph)
}

// QQPlot plots sample return quantiles against standard normal quantiles
func (c *ChartRenderer) QQPlot(rs domain.ReturnSeries) ([]byte, error) {
	points := statistics.NormalQuantiles(rs)
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 returns for %s, got %d", rs.Name, len(points))
	}

	x := make([]float64, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.Theoretical
		y[i] = p.Sample
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    rs.Name,
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 3, DotColor: colorFor(0)},
			XValues: x,
			YValues: y,
		},
	}
	if intercept, slope, ok := statistics.Regression(x, y); ok {
		series = append(series, chart.ContinuousSeries{
			Name:    "Reference",
			Style:   chart.Style{StrokeColor: colorFor(1), StrokeWidth: 1.5, StrokeDashArray: []float64{5.0, 3.0}},
			XValues: []float64{x[0], x[len(x)-1]},
			YValues: []float64{intercept + slope*x[0], intercept + slope*x[len(x)-1]},
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Q-Q Plot (Normal)", rs.Name),
		Width:  c.Width,
		Height: c.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis:  chart.XAxis{Name: "Theoretical quantiles", ValueFormatter: decimalFormatter},
		YAxis:  chart.YAxis{Name: "Sample quantiles", ValueFormatter: percentFormatter},
		Series: series,
	}
	return renderPNG(&graph)
}

// WriteAll renders every panel the report supports into dir and returns the
// written file paths. Panels that cannot be drawn for the data are skipped.
func (c *ChartRenderer) WriteAll(dir string, report *domain.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var written []string
	write := func(name string, png []byte, err error) error {
		if err != nil {
			return nil
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, png, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	var loaded []domain.ReturnSeries
	var stats []domain.AssetStatistics
	for _, asset := range report.Assets {
		if asset.Statistics == nil {
			continue
		}
		loaded = append(loaded, asset.Returns)
		stats = append(stats, *asset.Statistics)

		slug := strings.ToLower(asset.Name)
		png, err := c.Histogram(asset.Returns)
		if werr := write(slug+"_histogram.png", png, err); werr != nil {
			return written, werr
		}
		png, err = c.QQPlot(asset.Returns)
		if werr := write(slug+"_qq.png", png, err); werr != nil {
			return written, werr
		}
	}

	png, err := c.ReturnsOverTime(loaded...)
	if werr := write("returns.png", png, err); werr != nil {
		return written, werr
	}
	png, err = c.CumulativeReturns(loaded...)
	if werr := write("cumulative.png", png, err); werr != nil {
		return written, werr
	}
	png, err = c.Volatility(stats)
	if werr := write("volatility.png", png, err); werr != nil {
		return written, werr
	}

	for _, pair := range report.Pairs {
		a, okA := report.Asset(pair.AssetA)
		b, okB := report.Asset(pair.AssetB)
		if !okA || !okB {
			continue
		}
		slug := strings.ToLower(pair.AssetA + "_" + pair.AssetB)
		png, err := c.Scatter(a.Returns, b.Returns)
		if werr := write(slug+"_scatter.png", png, err); werr != nil {
			return written, werr
		}
		png, err = c.RollingCorrelation(a.Returns, b.Returns)
		if werr := write(slug+"_rolling_correlation.png", png, err); werr != nil {
			return written, werr
		}
	}

	return written, nil
}

func (c *ChartRenderer) timeChart(title string, yFormat chart.ValueFormatter, series []chart.Series) ([]byte, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%s: no series with at least 2 points", title)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  c.Width,
		Height: c.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis:  chart.YAxis{ValueFormatter: yFormat},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	return renderPNG(&graph)
}

func timeSeries(name string, color drawing.Color, points []statistics.SeriesPoint) chart.TimeSeries {
	x := make([]time.Time, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.Date
		y[i] = p.Value
	}
	return chart.TimeSeries{
		Name:    name,
		Style:   chart.Style{StrokeColor: color, StrokeWidth: 2},
		XValues: x,
		YValues: y,
	}
}

type pngRenderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func renderPNG(graph pngRenderable) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func percentFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1f%%", f*100)
	}
	return ""
}

func decimalFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return ""
}
