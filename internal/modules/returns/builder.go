// Package returns turns closing-price histories into daily simple-return series.
package returns

import (
	"math"
	"sort"
	"time"

	"github.com/stocklab/stocklab/internal/domain"
)

// DefaultOutlierThreshold is the absolute daily return above which a point is treated as bad data
const DefaultOutlierThreshold = 0.5

// Options configures return construction
type Options struct {
	// OutlierThreshold marks a return invalid when |r| exceeds it. Zero or negative disables filtering.
	OutlierThreshold float64
}

// DefaultOptions returns the standard 50% outlier filter
func DefaultOptions() Options {
	return Options{OutlierThreshold: DefaultOutlierThreshold}
}

// Build computes r[i] = p[i]/p[i-1] - 1 for a price series.
//
// The output has exactly one point per input price, in ascending date order. The
// first point never has a predecessor and is always invalid. Returns whose absolute
// value exceeds the outlier threshold stay in place but are marked invalid so the
// point count and date alignment are preserved.
//
// Unsorted input is stable-sorted by date. Two points on one calendar day, zero
// dates and non-positive or non-finite prices are rejected with a ValidationError.
func Build(series domain.PriceSeries, opts Options) (domain.ReturnSeries, error) {
	points := make([]domain.PricePoint, len(series.Points))
	copy(points, series.Points)

	for i, p := range points {
		if p.Date.IsZero() {
			return domain.ReturnSeries{}, domain.NewValidationError("Date", "row %d has no date", i)
		}
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			return domain.ReturnSeries{}, domain.NewValidationError("Close",
				"price on %s must be positive, got %v", p.Date.Format("2006-01-02"), p.Close)
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	for i := 1; i < len(points); i++ {
		if domain.DateKey(points[i].Date).Equal(domain.DateKey(points[i-1].Date)) {
			return domain.ReturnSeries{}, domain.NewValidationError("Date",
				"duplicate date %s", points[i].Date.Format("2006-01-02"))
		}
	}

	out := domain.ReturnSeries{
		Name:   series.Name,
		Points: make([]domain.ReturnPoint, len(points)),
	}
	for i, p := range points {
		out.Points[i] = domain.ReturnPoint{Date: p.Date}
		if i == 0 {
			continue
		}
		r := p.Close/points[i-1].Close - 1
		out.Points[i].Value = r
		out.Points[i].Valid = opts.OutlierThreshold <= 0 || math.Abs(r) <= opts.OutlierThreshold
	}

	return out, nil
}

// Align trims both series to the date range they have in common.
// Points keep their order and validity; series that do not overlap come back empty.
func Align(a, b domain.ReturnSeries) (domain.ReturnSeries, domain.ReturnSeries) {
	if a.IsEmpty() || b.IsEmpty() {
		return domain.ReturnSeries{Name: a.Name}, domain.ReturnSeries{Name: b.Name}
	}

	start := a.Points[0].Date
	if b.Points[0].Date.After(start) {
		start = b.Points[0].Date
	}
	end := a.Points[len(a.Points)-1].Date
	if last := b.Points[len(b.Points)-1].Date; last.Before(end) {
		end = last
	}

	return trim(a, start, end), trim(b, start, end)
}

func trim(s domain.ReturnSeries, start, end time.Time) domain.ReturnSeries {
	out := domain.ReturnSeries{Name: s.Name}
	for _, p := range s.Points {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}
