package testing

import (
	"strconv"
	"strings"
	"time"

	"github.com/stocklab/stocklab/internal/domain"
)

// FixtureStart is the first date used by the price fixtures
var FixtureStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// NewPriceSeries builds a daily price series starting at FixtureStart
func NewPriceSeries(name string, closes ...float64) domain.PriceSeries {
	s := domain.PriceSeries{Name: name, Points: make([]domain.PricePoint, len(closes))}
	for i, c := range closes {
		s.Points[i] = domain.PricePoint{Date: FixtureStart.AddDate(0, 0, i), Close: c}
	}
	return s
}

// NewPriceFixtures returns the two-asset example used across tests:
// A moves 100 -> 110 -> 99 and B moves 50 -> 51 -> 50.5
func NewPriceFixtures() (domain.PriceSeries, domain.PriceSeries) {
	return NewPriceSeries("A", 100, 110, 99), NewPriceSeries("B", 50, 51, 50.5)
}

// WritePriceCSV renders a series in the Date,Close layout the CSV loader reads
func WritePriceCSV(s domain.PriceSeries) string {
	var b strings.Builder
	b.WriteString("Date,Open,Close\n")
	for _, p := range s.Points {
		b.WriteString(p.Date.Format("2006-01-02"))
		b.WriteString(",0,")
		b.WriteString(strconv.FormatFloat(p.Close, 'f', -1, 64))
		b.WriteString("\n")
	}
	return b.String()
}
