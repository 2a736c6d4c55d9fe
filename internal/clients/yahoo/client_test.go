package yahoo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnjoon/go-yfinance/pkg/models"

	"github.com/stocklab/stocklab/internal/clientdata"
	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/financials"
	testutil "github.com/stocklab/stocklab/internal/testing"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 14, 30, 0, 0, time.UTC)
}

func newTestClient(t *testing.T, bars []models.Bar) (*Client, *int) {
	t.Helper()
	db, cleanup := testutil.NewTestDB(t, "cache")
	t.Cleanup(cleanup)

	infoCalls := 0
	c := NewClient(clientdata.NewRepository(db.Conn()), zerolog.Nop())
	c.fetchHistory = func(symbol, period string) ([]models.Bar, error) {
		if symbol == "FAIL" {
			return nil, errors.New("upstream unavailable")
		}
		return bars, nil
	}
	c.fetchInfo = func(symbol string) (*financials.Company, error) {
		infoCalls++
		price := 190.5
		return &financials.Company{CompanyName: "Apple Inc.", CurrentSharePrice: &price}, nil
	}
	return c, &infoCalls
}

func TestGetHistoricalPrices(t *testing.T) {
	bars := []models.Bar{
		{Date: day(4), Close: 181.9, High: 183, Low: 180.9, Volume: 300},
		{Date: day(2), Close: 185.6, High: 188.4, Low: 183.9, Volume: 100},
		{Date: day(3), Close: 0},
		{Date: day(3), Close: 184.3, High: 185.9, Low: 183.4, Volume: 200},
	}
	c, _ := newTestClient(t, bars)

	series, err := c.GetHistoricalPrices(context.Background(), " aapl ", "1y")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", series.Name)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), series.Points[0].Date)
	assert.Equal(t, 185.6, series.Points[0].Close)
	assert.Equal(t, 181.9, series.Points[2].Close)
}

func TestGetHistoricalPrices_Errors(t *testing.T) {
	c, _ := newTestClient(t, nil)

	_, err := c.GetHistoricalPrices(context.Background(), "", "1y")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = c.GetHistoricalPrices(context.Background(), "NOPE", "1y")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = c.GetHistoricalPrices(context.Background(), "FAIL", "1y")
	assert.ErrorContains(t, err, "upstream unavailable")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GetHistoricalPrices(ctx, "AAPL", "1y")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetCompanyInfo_UsesCache(t *testing.T) {
	bars := []models.Bar{
		{Date: day(2), Close: 185.6, High: 188.4, Low: 183.9, Volume: 100},
		{Date: day(3), Close: 184.3, High: 185.9, Low: 183.4, Volume: 200},
		{Date: day(4), Close: 181.9, High: 183, Low: 180.9, Volume: 300},
	}
	c, calls := newTestClient(t, bars)

	company, err := c.GetCompanyInfo(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", company.TickerSymbol)
	assert.Equal(t, 188.4, *company.FiftyTwoWeekHigh)
	assert.Equal(t, 180.9, *company.FiftyTwoWeekLow)
	assert.Equal(t, int64(200), *company.AverageVolume)
	assert.Equal(t, int64(300), *company.Volume)

	again, err := c.GetCompanyInfo(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, "Apple Inc.", again.CompanyName)
	assert.Equal(t, 190.5, *again.CurrentSharePrice)
}

func TestGetCompanyInfo_UnknownCompany(t *testing.T) {
	c, _ := newTestClient(t, nil)
	c.fetchInfo = func(symbol string) (*financials.Company, error) {
		return &financials.Company{}, nil
	}

	_, err := c.GetCompanyInfo(context.Background(), "ZZZZ")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
