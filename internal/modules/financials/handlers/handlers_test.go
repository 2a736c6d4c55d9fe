package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklab/stocklab/internal/modules/financials"
	testutil "github.com/stocklab/stocklab/internal/testing"
)

func f64(v float64) *float64 { return &v }

func setupRouter(t *testing.T) chi.Router {
	t.Helper()
	db, cleanup := testutil.NewTestDB(t, "stocklab")
	t.Cleanup(cleanup)

	logger := zerolog.Nop()
	repo := financials.NewRepository(db.Conn(), logger)

	_, err := repo.AddCompany(financials.Company{CompanyName: "Apple Inc.", TickerSymbol: "AAPL", MarketCap: f64(3e12)})
	require.NoError(t, err)
	_, err = repo.AddRelatedTickers("AAPL", []string{"MSFT"})
	require.NoError(t, err)
	id, err := repo.AddFiling(financials.Filing{
		Ticker: "AAPL", CIK: "0000320193", FiscalPeriod: "FY", FiscalYear: "2023", Timeframe: financials.TimeframeAnnual,
	})
	require.NoError(t, err)
	require.NoError(t, repo.AddIncomeStatement(id, financials.IncomeStatement{Revenues: f64(383e9)}))
	require.NoError(t, repo.ReplaceTopMovers(financials.DirectionLosers, []financials.TopMover{
		{TickerSymbol: "INTC", TodaysChangePerc: f64(-9.1)},
		{TickerSymbol: "BA", TodaysChangePerc: f64(-4.2)},
	}))

	handler := NewHandler(financials.NewService(repo, nil, nil, logger), logger)
	r := chi.NewRouter()
	r.Route("/api", handler.RegisterRoutes)
	return r
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response["data"]
}

func TestHandlers(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		validate       func(*testing.T, map[string]interface{})
	}{
		{
			name: "company profile", method: http.MethodGet, path: "/api/companies/aapl", expectedStatus: http.StatusOK,
			validate: func(t *testing.T, data map[string]interface{}) {
				company := data["company"].(map[string]interface{})
				assert.Equal(t, "Apple Inc.", company["company_name"])
				assert.Equal(t, []interface{}{"MSFT"}, data["related"])
			},
		},
		{name: "unknown company", method: http.MethodGet, path: "/api/companies/NOPE", expectedStatus: http.StatusNotFound},
		{
			name: "financial summary", method: http.MethodGet, path: "/api/companies/AAPL/financials", expectedStatus: http.StatusOK,
			validate: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, "2023", data["fiscal_year"])
				assert.Equal(t, 383e9, data["revenues"])
			},
		},
		{name: "quarterly summary missing", method: http.MethodGet, path: "/api/companies/AAPL/financials?timeframe=quarterly", expectedStatus: http.StatusNotFound},
		{
			name: "losers", method: http.MethodGet, path: "/api/movers?direction=losers&limit=1", expectedStatus: http.StatusOK,
			validate: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, float64(1), data["count"])
				movers := data["movers"].([]interface{})
				assert.Equal(t, "INTC", movers[0].(map[string]interface{})["ticker_symbol"])
			},
		},
		{
			name: "gainers default", method: http.MethodGet, path: "/api/movers", expectedStatus: http.StatusOK,
			validate: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, "gainers", data["direction"])
				assert.Equal(t, float64(0), data["count"])
			},
		},
		{name: "bad direction", method: http.MethodGet, path: "/api/movers?direction=up", expectedStatus: http.StatusBadRequest},
		{name: "fetch without provider", method: http.MethodPost, path: "/api/companies/AAPL/fetch", expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.validate != nil {
				tt.validate(t, decodeData(t, w))
			}
		})
	}
}
