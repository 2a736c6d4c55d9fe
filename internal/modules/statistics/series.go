package statistics

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/pkg/formulas"
)

// SeriesPoint is a dated value derived from a return series
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// QuantilePoint pairs a sample quantile with the matching standard normal quantile
type QuantilePoint struct {
	Theoretical float64 `json:"theoretical"`
	Sample      float64 `json:"sample"`
}

// JoinValid inner-joins two series on calendar day, keeping dates where both
// sides are valid. Output is in ascending date order.
func JoinValid(a, b domain.ReturnSeries) ([]time.Time, []float64, []float64) {
	other := b.ByDate()
	dates := make([]time.Time, 0, len(a.Points))
	x := make([]float64, 0, len(a.Points))
	y := make([]float64, 0, len(a.Points))

	points := a.ValidPoints()
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	for _, p := range points {
		v, ok := other[domain.DateKey(p.Date)]
		if !ok {
			continue
		}
		dates = append(dates, p.Date)
		x = append(x, p.Value)
		y = append(y, v)
	}
	return dates, x, y
}

// CumulativeReturns compounds the valid returns: growth of 1 unit invested at the start
func CumulativeReturns(rs domain.ReturnSeries) []SeriesPoint {
	points := rs.ValidPoints()
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	growth := formulas.CumulativeReturns(values)
	out := make([]SeriesPoint, len(points))
	for i, p := range points {
		out[i] = SeriesPoint{Date: p.Date, Value: growth[i]}
	}
	return out
}

// RollingCorrelation correlates the joined returns over a trailing window.
// Windows where the correlation is undefined are omitted. Returns nil when the
// series share no more observations than the window.
func RollingCorrelation(a, b domain.ReturnSeries, window int) []SeriesPoint {
	dates, x, y := JoinValid(a, b)
	if len(x) <= window {
		return nil
	}

	rolling := formulas.RollingCorrelation(x, y, window)
	out := make([]SeriesPoint, 0, len(rolling))
	for i, c := range rolling {
		if math.IsNaN(c) {
			continue
		}
		out = append(out, SeriesPoint{Date: dates[i], Value: c})
	}
	return out
}

// NormalQuantiles returns Q-Q plot points of the valid returns against the
// standard normal, using Blom plotting positions (i - 3/8) / (n + 1/4).
func NormalQuantiles(rs domain.ReturnSeries) []QuantilePoint {
	values := rs.ValidValues()
	if len(values) == 0 {
		return nil
	}
	sort.Float64s(values)

	n := float64(len(values))
	out := make([]QuantilePoint, len(values))
	for i, v := range values {
		p := (float64(i+1) - 0.375) / (n + 0.25)
		out[i] = QuantilePoint{
			Theoretical: distuv.UnitNormal.Quantile(p),
			Sample:      v,
		}
	}
	return out
}

// Regression fits y = intercept + slope*x by least squares.
// ok is false with fewer than two points or a constant x.
func Regression(x, y []float64) (intercept, slope float64, ok bool) {
	if len(x) < 2 || len(x) != len(y) {
		return 0, 0, false
	}
	if v := formulas.Variance(x); v == nil || *v == 0 {
		return 0, 0, false
	}
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	return intercept, slope, true
}
