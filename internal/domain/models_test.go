package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestReturnSeries_ValidHelpers(t *testing.T) {
	rs := ReturnSeries{
		Name: "AAPL",
		Points: []ReturnPoint{
			{Date: day(1)},
			{Date: day(2), Value: 0.01, Valid: true},
			{Date: day(3), Value: 0.9},
			{Date: day(4), Value: -0.02, Valid: true},
		},
	}

	assert.Equal(t, 4, rs.Len())
	assert.False(t, rs.IsEmpty())
	assert.Equal(t, 2, rs.ValidCount())
	assert.Equal(t, []float64{0.01, -0.02}, rs.ValidValues())
	assert.Len(t, rs.ValidPoints(), 2)

	byDate := rs.ByDate()
	assert.Len(t, byDate, 2)
	assert.Equal(t, -0.02, byDate[day(4)])
	_, ok := byDate[day(3)]
	assert.False(t, ok)
}

func TestReturnSeries_Empty(t *testing.T) {
	var rs ReturnSeries
	assert.True(t, rs.IsEmpty())
	assert.Empty(t, rs.ValidValues())
	assert.Equal(t, 0, rs.ValidCount())
}

func TestDateKey(t *testing.T) {
	ts := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), DateKey(ts))
}

func TestErrors_IsAndAs(t *testing.T) {
	err := fmt.Errorf("load: %w", NewValidationError("Close", "must be positive, got %v", -1.0))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "Close", ve.Field)
	assert.Contains(t, err.Error(), "must be positive")

	nf := NewNotFoundError("file", "prices.csv")
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.Equal(t, "file not found: prices.csv", nf.Error())
}
