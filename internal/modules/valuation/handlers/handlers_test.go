package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklab/stocklab/internal/modules/financials"
	testutil "github.com/stocklab/stocklab/internal/testing"
)

func setupRouter(t *testing.T) (chi.Router, *sql.DB) {
	t.Helper()
	db, cleanup := testutil.NewTestDB(t, "stocklab")
	t.Cleanup(cleanup)

	repo := financials.NewRepository(db.Conn(), zerolog.Nop())
	shares := int64(100_000)
	price := 80.0
	_, err := repo.AddCompany(financials.Company{
		CompanyName: "Acme Corp", TickerSymbol: "ACME", SharesOutstanding: &shares, CurrentSharePrice: &price,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api", NewHandler(repo, zerolog.Nop()).RegisterRoutes)
	return r, db.Conn()
}

func post(router chi.Router, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/valuation", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleValuate(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		company        string
		gordonPrice    string
	}{
		{
			name:           "explicit inputs",
			body:           `{"company":"Acme","free_cash_flow":1000000,"discount_rate":0.10,"growth_rate":0.02,"shares_outstanding":100000,"share_price":80}`,
			expectedStatus: http.StatusOK,
			company:        "Acme",
			gordonPrice:    "127.5",
		},
		{
			name:           "filled from stored company",
			body:           `{"ticker":"acme","free_cash_flow":1000000,"discount_rate":0.10,"growth_rate":0.02}`,
			expectedStatus: http.StatusOK,
			company:        "Acme Corp",
			gordonPrice:    "127.5",
		},
		{name: "unknown ticker", body: `{"ticker":"NOPE","free_cash_flow":1,"discount_rate":0.1}`, expectedStatus: http.StatusNotFound},
		{name: "growth above discount", body: `{"free_cash_flow":1000000,"discount_rate":0.05,"growth_rate":0.06,"shares_outstanding":1,"share_price":1}`, expectedStatus: http.StatusBadRequest},
		{name: "missing shares", body: `{"free_cash_flow":1000000,"discount_rate":0.1,"share_price":1}`, expectedStatus: http.StatusBadRequest},
		{name: "malformed", body: `{"free_cash_flow":`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(router, tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var response struct {
				Data struct {
					Inputs struct {
						Company string `json:"company"`
					} `json:"inputs"`
					GordonGrowth struct {
						ImpliedPrice string `json:"implied_price"`
					} `json:"gordon_growth"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.company, response.Data.Inputs.Company)
			assert.Equal(t, tt.gordonPrice, response.Data.GordonGrowth.ImpliedPrice)
		})
	}
}

func TestHandleValuate_Save(t *testing.T) {
	router, db := setupRouter(t)

	w := post(router, `{"ticker":"ACME","free_cash_flow":1000000,"discount_rate":0.10,"growth_rate":0.02,"save":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var company string
	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*), MAX(company) FROM valuation_metrics").Scan(&rows, &company))
	assert.Equal(t, 2, rows)
	assert.Equal(t, "Acme Corp", company)
}
