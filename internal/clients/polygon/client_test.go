package polygon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/stocklab/stocklab/internal/clientdata"
	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/financials"
	testutil "github.com/stocklab/stocklab/internal/testing"
)

const detailsBody = `{"status":"OK","results":{"ticker":"AAPL","name":"Apple Inc.","market":"stocks",
"locale":"us","primary_exchange":"XNAS","type":"CS","currency_name":"usd","cik":"0000320193",
"market_cap":3000000000000,"total_employees":161000,"list_date":"1980-12-12"}}`

const relatedBody = `{"status":"OK","results":[{"ticker":"MSFT"},{"ticker":"googl"},{"ticker":""}]}`

const financialsBody = `{"status":"OK","results":[{"cik":"0000320193","company_name":"Apple Inc.",
"sic":"3571","tickers":["AAPL"],"filing_date":"2023-11-03","start_date":"2022-10-01",
"end_date":"2023-09-30","fiscal_period":"FY","fiscal_year":"2023","timeframe":"annual",
"financials":{
 "income_statement":{"revenues":{"value":383285000000,"unit":"USD","label":"Revenues"},
  "diluted_earnings_per_share":{"value":6.13,"unit":"USD / shares","label":"Diluted EPS"}},
 "balance_sheet":{"assets":{"value":352583000000,"unit":"USD","label":"Assets"},
  "equity_attributable_to_parent":{"value":62146000000,"unit":"USD","label":"Equity"}},
 "cash_flow_statement":{}}}]}`

const moversBody = `{"status":"OK","tickers":[
 {"ticker":"nvda","todaysChange":12.5,"todaysChangePerc":8.25,"day":{"c":164.1,"v":51000000},"lastTrade":{"p":164.3}},
 {"ticker":"TSLA","todaysChange":11.2,"todaysChangePerc":6.75,"day":{"c":194.8,"v":98000000},"lastTrade":{"p":0}}]}`

const aggregatesBody = `{"status":"OK","resultsCount":3,"results":[
 {"c":185.64,"t":1704171600000},{"c":184.25,"t":1704258000000},{"c":0,"t":1704344400000}]}`

type fakePolygon struct {
	server *httptest.Server
	calls  atomic.Int32
	status atomic.Int32
}

func newFakePolygon(t *testing.T) *fakePolygon {
	t.Helper()
	f := &fakePolygon{}
	f.status.Store(http.StatusOK)

	mux := http.NewServeMux()
	respond := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.calls.Add(1)
			if r.URL.Query().Get("apiKey") != "test-key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if status := int(f.status.Load()); status != http.StatusOK {
				w.WriteHeader(status)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/v3/reference/tickers/AAPL", respond(detailsBody))
	mux.HandleFunc("/v1/related-companies/AAPL", respond(relatedBody))
	mux.HandleFunc("/vX/reference/financials", respond(financialsBody))
	mux.HandleFunc("/v2/snapshot/locale/us/markets/stocks/gainers", respond(moversBody))
	mux.HandleFunc("/v2/aggs/ticker/AAPL/range/1/day/2024-01-01/2024-01-05", respond(aggregatesBody))

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestClient(t *testing.T, f *fakePolygon, withCache bool) *Client {
	t.Helper()
	var cache *clientdata.Repository
	if withCache {
		db, cleanup := testutil.NewTestDB(t, "cache")
		t.Cleanup(cleanup)
		cache = clientdata.NewRepository(db.Conn())
	}
	return NewClient("test-key", cache, zerolog.Nop(),
		WithBaseURL(f.server.URL+"/"),
		WithRateLimit(rate.Inf, 1),
	)
}

func TestGetTickerDetails(t *testing.T) {
	f := newFakePolygon(t)
	c := newTestClient(t, f, true)

	details, err := c.GetTickerDetails(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", details.Name)
	assert.Equal(t, "XNAS", details.PrimaryExchange)
	assert.Equal(t, 3e12, *details.MarketCap)
	assert.Equal(t, int64(161000), *details.TotalEmployees)
	assert.Nil(t, details.WeightedSharesOutstanding)

	// second call is served from cache
	_, err = c.GetTickerDetails(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestGetTickerDetails_NotFound(t *testing.T) {
	f := newFakePolygon(t)
	c := newTestClient(t, f, false)

	_, err := c.GetTickerDetails(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = c.GetTickerDetails(context.Background(), " ")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestGetRelatedTickers_StaleFallback(t *testing.T) {
	f := newFakePolygon(t)
	c := newTestClient(t, f, true)

	related, err := c.GetRelatedTickers(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "GOOGL"}, related)

	// expire the cached entry, then break the upstream
	require.NoError(t, c.cacheRepo.Store(clientdata.TablePolygonRelated, "AAPL", []string{"MSFT"}, -time.Hour))
	f.status.Store(http.StatusInternalServerError)

	related, err = c.GetRelatedTickers(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT"}, related)
}

func TestGetRelatedTickers_ErrorWithoutCache(t *testing.T) {
	f := newFakePolygon(t)
	f.status.Store(http.StatusTooManyRequests)
	c := newTestClient(t, f, false)

	_, err := c.GetRelatedTickers(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestListFinancials(t *testing.T) {
	f := newFakePolygon(t)
	c := newTestClient(t, f, false)

	reports, err := c.ListFinancials(context.Background(), "aapl", "", 0)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	r := reports[0]
	assert.Equal(t, "AAPL", r.Filing.Ticker)
	assert.Equal(t, "0000320193", r.Filing.CIK)
	assert.Equal(t, financials.TimeframeAnnual, r.Filing.Timeframe)
	assert.Equal(t, "2023-09-30", r.Filing.PeriodOfReportDate)
	require.NotNil(t, r.IncomeStatement)
	assert.Equal(t, 383285000000.0, *r.IncomeStatement.Revenues)
	assert.Equal(t, 6.13, *r.IncomeStatement.EarningsPerShareDiluted)
	assert.Nil(t, r.IncomeStatement.GrossProfit)
	require.NotNil(t, r.BalanceSheet)
	assert.Equal(t, 62146000000.0, *r.BalanceSheet.StockholdersEquity)
	assert.Nil(t, r.CashFlow)
}

func TestGetTopMovers(t *testing.T) {
	f := newFakePolygon(t)
	c := newTestClient(t, f, false)

	movers, err := c.GetTopMovers(context.Background(), financials.DirectionGainers)
	require.NoError(t, err)
	require.Len(t, movers, 2)
	assert.Equal(t, "NVDA", movers[0].TickerSymbol)
	assert.Equal(t, 1, movers[0].PositionRank)
	assert.Equal(t, 164.3, *movers[0].CurrentPrice)
	assert.Equal(t, int64(51000000), *movers[0].Volume)
	assert.Equal(t, 2, movers[1].PositionRank)
	assert.Equal(t, 194.8, *movers[1].CurrentPrice)

	_, err = c.GetTopMovers(context.Background(), "up")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestGetDailyAggregates(t *testing.T) {
	f := newFakePolygon(t)
	c := newTestClient(t, f, false)

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	series, err := c.GetDailyAggregates(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), series.Points[0].Date)
	assert.Equal(t, 184.25, series.Points[1].Close)

	_, err = c.GetDailyAggregates(context.Background(), "AAPL", to, from)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient("", nil, zerolog.Nop())
	_, err := c.GetTickerDetails(context.Background(), "AAPL")
	assert.ErrorContains(t, err, "API key")
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		period  string
		want    time.Time
		wantErr bool
	}{
		{period: "30d", want: time.Date(2024, time.May, 16, 0, 0, 0, 0, time.UTC)},
		{period: "6mo", want: time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC)},
		{period: "5Y", want: time.Date(2019, time.June, 15, 0, 0, 0, 0, time.UTC)},
		{period: "", want: time.Date(2019, time.June, 15, 0, 0, 0, 0, time.UTC)},
		{period: "ytd", want: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{period: "max", want: time.Date(1994, time.June, 15, 0, 0, 0, 0, time.UTC)},
		{period: "0y", wantErr: true},
		{period: "week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := PeriodStart(tt.period, now)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domain.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
