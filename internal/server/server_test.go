package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklab/stocklab/internal/config"
	"github.com/stocklab/stocklab/internal/modules/analysis"
	"github.com/stocklab/stocklab/internal/modules/financials"
	"github.com/stocklab/stocklab/internal/modules/prices"
	"github.com/stocklab/stocklab/internal/modules/returns"
	"github.com/stocklab/stocklab/internal/scheduler"
	testutil "github.com/stocklab/stocklab/internal/testing"
)

type signalJob struct {
	name string
	done chan struct{}
	once sync.Once
}

func (j *signalJob) Run() error {
	j.once.Do(func() { close(j.done) })
	return nil
}

func (j *signalJob) Name() string { return j.name }

func newTestServer(t *testing.T, jobs ...scheduler.Job) *Server {
	t.Helper()
	db, cleanup := testutil.NewTestDB(t, "stocklab")
	t.Cleanup(cleanup)
	cache, cleanupCache := testutil.NewTestDB(t, "cache")
	t.Cleanup(cleanupCache)

	log := zerolog.Nop()
	cfg := config.NewDefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.DevMode = true

	priceRepo := prices.NewRepository(db.Conn(), log)
	a, b := testutil.NewPriceFixtures()
	_, err := priceRepo.Upsert("A", a.Points, "test")
	require.NoError(t, err)
	_, err = priceRepo.Upsert("B", b.Points, "test")
	require.NoError(t, err)

	priceService := prices.NewService(priceRepo, nil, "", log)
	financialsRepo := financials.NewRepository(db.Conn(), log)

	s := New(Config{
		Log:            log,
		DB:             db,
		CacheDB:        cache,
		Config:         cfg,
		Prices:         priceService,
		Financials:     financials.NewService(financialsRepo, nil, nil, log),
		FinancialsRepo: financialsRepo,
		Analysis:       analysis.NewService(nil, returns.DefaultOptions(), priceService, analysis.NewRunRepository(db.Conn()), log),
		Jobs:           jobs,
	})
	s.systemHandlers.sysStats = func() (float64, float64) { return 12.5, 40 }
	return s
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "stocklab", body["service"])
}

func TestSystemStatus(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/system/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 12.5, body["cpu_percent"])
	assert.Equal(t, 40.0, body["memory_percent"])
}

func TestDatabaseStats(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/system/database", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	dbs := body["databases"].([]interface{})
	require.Len(t, dbs, 2)
	assert.Equal(t, "stocklab", dbs[0].(map[string]interface{})["name"])
	assert.Equal(t, "cache", dbs[1].(map[string]interface{})["name"])
}

func TestJobs(t *testing.T) {
	job := &signalJob{name: "price_sync", done: make(chan struct{})}
	s := newTestServer(t, job)

	w := doRequest(t, s, http.MethodGet, "/api/system/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"price_sync"}, decode(t, w)["jobs"])

	w = doRequest(t, s, http.MethodPost, "/api/system/jobs/price_sync", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	select {
	case <-job.done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not triggered")
	}

	w = doRequest(t, s, http.MethodPost, "/api/system/jobs/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBackupsNotConfigured(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/system/backups", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestModuleRoutesMounted(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "prices", method: http.MethodGet, path: "/api/prices/A", status: http.StatusOK},
		{name: "statistics", method: http.MethodGet, path: "/api/statistics/A", status: http.StatusOK},
		{name: "pair", method: http.MethodGet, path: "/api/statistics/pair?a=A&b=B", status: http.StatusOK},
		{name: "unknown company", method: http.MethodGet, path: "/api/companies/NOPE", status: http.StatusNotFound},
		{name: "movers", method: http.MethodGet, path: "/api/movers", status: http.StatusOK},
		{
			name: "valuation", method: http.MethodPost, path: "/api/valuation", status: http.StatusOK,
			body: `{"company":"Acme","free_cash_flow":1000000,"discount_rate":0.1,"growth_rate":0.02,"shares_outstanding":100000,"share_price":80}`,
		},
		{name: "analysis runs", method: http.MethodGet, path: "/api/analysis/runs", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}
