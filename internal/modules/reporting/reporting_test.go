package reporting

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/statistics"
	"github.com/stocklab/stocklab/internal/modules/valuation"
)

func ptr(v float64) *float64 { return &v }

// wave builds a deterministic, non-constant return series of n valid points
func wave(name string, n int, scale float64) domain.ReturnSeries {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	rs := domain.ReturnSeries{Name: name, Points: []domain.ReturnPoint{{Date: start}}}
	for i := 1; i <= n; i++ {
		v := scale * (math.Sin(float64(i)*0.7) + 0.3*math.Cos(float64(i)*2.3))
		rs.Points = append(rs.Points, domain.ReturnPoint{Date: start.AddDate(0, 0, i), Value: v, Valid: true})
	}
	return rs
}

func sampleReport(t *testing.T) *domain.Report {
	t.Helper()
	a := wave("AAPL", 120, 0.01)
	spy := wave("SPY", 120, 0.005)
	market := "SPY"

	aStats, ok := statistics.ComputeAsset(a)
	require.True(t, ok)
	spyStats, ok := statistics.ComputeAsset(spy)
	require.True(t, ok)
	pair, ok := statistics.ComputePair(a, spy, &market)
	require.True(t, ok)

	return &domain.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Market:      market,
		Assets: []domain.AssetResult{
			{Name: "AAPL", Statistics: &aStats, Returns: a},
			{Name: "SPY", Statistics: &spyStats, Returns: spy},
			{Name: "BAD", Error: "price file not found"},
		},
		Pairs: []domain.PairStatistics{pair},
	}
}

func TestTextRenderer_Summary(t *testing.T) {
	report := &domain.Report{
		Assets: []domain.AssetResult{
			{Name: "tsla", Statistics: &domain.AssetStatistics{
				Name: "tsla", Count: 2514, Mean: 0.0021, StdDev: ptr(0.0354),
				AnnualizedReturn: 0.5292, AnnualizedVolatility: ptr(0.562),
				GeometricMean: ptr(0.0015), SharpeRatio: ptr(0.0571),
				Skewness: ptr(0.274), Kurtosis: ptr(4.912), Min: -0.2106, Max: 0.2441,
			}},
			{Name: "EMPTY"},
		},
		Pairs: []domain.PairStatistics{{
			AssetA: "TSLA", AssetB: "SPY", Observations: 2513,
			Covariance: 0.000213, Correlation: ptr(0.4812), Beta: ptr(1.92), MarketAsset: "SPY",
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewTextRenderer().Render(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "STOCK ANALYSIS SUMMARY")
	assert.Contains(t, out, "TSLA STATISTICS:")
	assert.Contains(t, out, "   Data Points: 2,514")
	assert.Contains(t, out, "   Average Daily Return: 0.0021 (0.21%)")
	assert.Contains(t, out, "   Annualized Volatility: 0.5620 (56.20%)")
	assert.Contains(t, out, "   Sharpe Ratio: 0.057")
	assert.Contains(t, out, "   Kurtosis: 4.912")
	assert.Contains(t, out, "   Min/Max Return: -0.2106 / 0.2441")
	assert.Contains(t, out, "PAIR METRICS: TSLA / SPY")
	assert.Contains(t, out, "   Correlation: 0.4812")
	assert.Contains(t, out, "   Covariance: 0.000213")
	assert.Contains(t, out, "   Beta (vs SPY): 1.920")
	assert.NotContains(t, out, "EMPTY STATISTICS")
}

func TestTextRenderer_UndefinedValues(t *testing.T) {
	report := &domain.Report{
		Assets: []domain.AssetResult{{Name: "X", Statistics: &domain.AssetStatistics{
			Name: "X", Count: 1, Mean: 0.01, AnnualizedReturn: 2.52, GeometricMean: ptr(0.01), Min: 0.01, Max: 0.01,
		}}},
		Pairs: []domain.PairStatistics{{AssetA: "X", AssetB: "Y", Observations: 2}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewTextRenderer().Render(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "   Daily Volatility: n/a")
	assert.Contains(t, out, "   Sharpe Ratio: n/a")
	assert.Contains(t, out, "   Correlation: n/a")
	assert.NotContains(t, out, "Beta")
}

func TestJSONRenderer_NullsForUndefined(t *testing.T) {
	report := &domain.Report{
		RunID: "abc",
		Assets: []domain.AssetResult{
			{Name: "X", Statistics: &domain.AssetStatistics{Name: "X", Count: 1, Mean: 0.01}},
			{Name: "Y", Error: "no data"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewJSONRenderer().Render(&buf, report))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "abc", decoded["run_id"])

	assets := decoded["assets"].([]interface{})
	require.Len(t, assets, 2)
	stats := assets[0].(map[string]interface{})["statistics"].(map[string]interface{})
	assert.Nil(t, stats["std_dev"])
	assert.Nil(t, stats["sharpe_ratio"])
	assert.Equal(t, 0.01, stats["mean"])
	assert.Nil(t, assets[1].(map[string]interface{})["statistics"])
	assert.Equal(t, "no data", assets[1].(map[string]interface{})["error"])
}

func TestMarkdown_Tables(t *testing.T) {
	md := Markdown(sampleReport(t))

	assert.Contains(t, md, "# Stock Analysis Summary")
	assert.Contains(t, md, "Run `run-1` generated 2024-05-01 12:00:00")
	assert.Contains(t, md, "| AAPL | 120 |")
	assert.Contains(t, md, "| BAD | 0 | n/a")
	assert.Contains(t, md, "| AAPL / SPY | 120 |")
	assert.Contains(t, md, "(vs SPY)")
}

func TestMarkdownRenderer_RawAndStyled(t *testing.T) {
	report := sampleReport(t)

	var raw bytes.Buffer
	require.NoError(t, (&MarkdownRenderer{}).Render(&raw, report))
	assert.Equal(t, Markdown(report), raw.String())

	var styled bytes.Buffer
	require.NoError(t, (&MarkdownRenderer{Style: "notty", WordWrap: 300}).Render(&styled, report))
	assert.Contains(t, styled.String(), "AAPL")
	assert.Contains(t, styled.String(), "Stock Analysis Summary")
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-12345, "-12,345"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCount(tt.in))
	}
}

func TestRenderValuation(t *testing.T) {
	v, err := valuation.Value(valuation.Inputs{
		Company:           "Acme",
		FreeCashFlow:      1_000_000,
		DiscountRate:      0.10,
		GrowthRate:        0.02,
		SharesOutstanding: 100_000,
		SharePrice:        80,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderValuation(&buf, v))
	out := buf.String()

	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Perpetuity Model")
	assert.Contains(t, out, "Gordon Growth Model")
	assert.Contains(t, out, "$10,000,000.00")
	assert.Contains(t, out, "$127.50")
	assert.Contains(t, out, "25%")
	assert.Contains(t, out, "59%")
	assert.Contains(t, out, "Market Cap: $8,000,000.00")
}

func TestFormatUSDAndPercent(t *testing.T) {
	assert.Equal(t, "$1,020,000.00", FormatUSD(decimal.NewFromInt(1020000)))
	assert.Equal(t, "$0.13", FormatUSD(decimal.RequireFromString("0.125")))
	assert.Equal(t, "-30%", FormatPercent(decimal.RequireFromString("-0.3")))
}

func isPNG(b []byte) bool {
	return bytes.HasPrefix(b, []byte("\x89PNG"))
}

func TestChartRenderer_Panels(t *testing.T) {
	c := NewChartRenderer()
	report := sampleReport(t)
	a := report.Assets[0].Returns
	spy := report.Assets[1].Returns

	png, err := c.Histogram(a)
	require.NoError(t, err)
	assert.True(t, isPNG(png))

	png, err = c.ReturnsOverTime(a, spy)
	require.NoError(t, err)
	assert.True(t, isPNG(png))

	png, err = c.CumulativeReturns(a, spy)
	require.NoError(t, err)
	assert.True(t, isPNG(png))

	png, err = c.Scatter(a, spy)
	require.NoError(t, err)
	assert.True(t, isPNG(png))

	png, err = c.QQPlot(a)
	require.NoError(t, err)
	assert.True(t, isPNG(png))

	png, err = c.Volatility([]domain.AssetStatistics{*report.Assets[0].Statistics, *report.Assets[1].Statistics})
	require.NoError(t, err)
	assert.True(t, isPNG(png))
}

func TestChartRenderer_NotEnoughData(t *testing.T) {
	c := NewChartRenderer()
	short := wave("X", 1, 0.01)

	_, err := c.Histogram(short)
	assert.Error(t, err)
	_, err = c.QQPlot(short)
	assert.Error(t, err)
	_, err = c.RollingCorrelation(short, short)
	assert.Error(t, err)
	_, err = c.ReturnsOverTime(short)
	assert.Error(t, err)
	_, err = c.Volatility(nil)
	assert.Error(t, err)
}

func TestChartRenderer_WriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	written, err := NewChartRenderer().WriteAll(dir, sampleReport(t))
	require.NoError(t, err)

	names := make([]string, 0, len(written))
	for _, p := range written {
		names = append(names, filepath.Base(p))
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "aapl_histogram.png")
	assert.Contains(t, joined, "spy_qq.png")
	assert.Contains(t, joined, "cumulative.png")
	assert.Contains(t, joined, "volatility.png")
	assert.Contains(t, joined, "aapl_spy_scatter.png")
	assert.NotContains(t, joined, "bad_")
}
