package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklab/stocklab/internal/domain"
)

func TestJoinValid_SkipsUnsharedDates(t *testing.T) {
	a := series("A", 0.01, 0.02, 0.03)
	b := series("B", 0.04, 0.05)
	b.Points[1].Valid = false

	dates, x, y := JoinValid(a, b)
	require.Len(t, dates, 1)
	assert.Equal(t, day(3), dates[0])
	assert.Equal(t, []float64{0.02}, x)
	assert.Equal(t, []float64{0.05}, y)
}

func TestCumulativeReturns(t *testing.T) {
	got := CumulativeReturns(series("A", 0.1, -0.1))
	require.Len(t, got, 2)
	assert.Equal(t, day(2), got[0].Date)
	assert.InDelta(t, 1.1, got[0].Value, 1e-12)
	assert.InDelta(t, 0.99, got[1].Value, 1e-12)
}

func TestRollingCorrelation(t *testing.T) {
	var av, bv []float64
	for i := 0; i < 10; i++ {
		v := float64(i%3) * 0.01
		av = append(av, v)
		bv = append(bv, 2*v+0.001)
	}
	a := series("A", av...)
	b := series("B", bv...)

	got := RollingCorrelation(a, b, 5)
	require.Len(t, got, 6)
	for _, p := range got {
		assert.InDelta(t, 1.0, p.Value, 1e-9)
	}
	assert.Equal(t, day(6), got[0].Date)

	assert.Nil(t, RollingCorrelation(a, b, 10), "needs more observations than the window")
}

func TestNormalQuantiles(t *testing.T) {
	got := NormalQuantiles(series("A", 0.03, -0.01, 0.01))
	require.Len(t, got, 3)

	assert.Equal(t, -0.01, got[0].Sample)
	assert.Equal(t, 0.03, got[2].Sample)
	assert.InDelta(t, 0.0, got[1].Theoretical, 1e-12)
	assert.InDelta(t, -got[0].Theoretical, got[2].Theoretical, 1e-12)
	assert.Less(t, got[0].Theoretical, 0.0)

	assert.Nil(t, NormalQuantiles(domain.ReturnSeries{}))
}

func TestRegression(t *testing.T) {
	intercept, slope, ok := Regression([]float64{1, 2, 3}, []float64{3, 5, 7})
	require.True(t, ok)
	assert.InDelta(t, 1.0, intercept, 1e-12)
	assert.InDelta(t, 2.0, slope, 1e-12)

	_, _, ok = Regression([]float64{1, 1}, []float64{2, 3})
	assert.False(t, ok)
}
