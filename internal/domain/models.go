// Package domain provides core domain models and types.
package domain

import "time"

// PricePoint is a single daily closing price
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is the closing price history of one asset
type PriceSeries struct {
	Name   string       `json:"name"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of price points
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// ReturnPoint is the simple return between a date and the previous one.
// Valid is false for the first point of a series and for outliers.
type ReturnPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Valid bool      `json:"valid"`
}

// ReturnSeries holds one return point per price point of the source series
type ReturnSeries struct {
	Name   string        `json:"name"`
	Points []ReturnPoint `json:"points"`
}

// Len returns the number of points, valid or not
func (s ReturnSeries) Len() int {
	return len(s.Points)
}

// IsEmpty reports whether the series holds no points at all
func (s ReturnSeries) IsEmpty() bool {
	return len(s.Points) == 0
}

// ValidValues returns the valid return values in date order
func (s ReturnSeries) ValidValues() []float64 {
	values := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Valid {
			values = append(values, p.Value)
		}
	}
	return values
}

// ValidCount returns the number of valid points
func (s ReturnSeries) ValidCount() int {
	n := 0
	for _, p := range s.Points {
		if p.Valid {
			n++
		}
	}
	return n
}

// ValidPoints returns only the valid points in date order
func (s ReturnSeries) ValidPoints() []ReturnPoint {
	out := make([]ReturnPoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Valid {
			out = append(out, p)
		}
	}
	return out
}

// ByDate indexes the valid values by calendar day (UTC midnight)
func (s ReturnSeries) ByDate() map[time.Time]float64 {
	m := make(map[time.Time]float64, len(s.Points))
	for _, p := range s.Points {
		if p.Valid {
			m[DateKey(p.Date)] = p.Value
		}
	}
	return m
}

// DateKey truncates a timestamp to its calendar day in UTC
func DateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
