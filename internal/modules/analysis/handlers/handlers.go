// Package handlers provides HTTP handlers for return statistics and charts.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/analysis"
	pricehandlers "github.com/stocklab/stocklab/internal/modules/prices/handlers"
	"github.com/stocklab/stocklab/internal/modules/reporting"
	"github.com/stocklab/stocklab/internal/modules/returns"
)

// Handler handles statistics HTTP requests
type Handler struct {
	service *analysis.Service
	charts  *reporting.ChartRenderer
	log     zerolog.Logger
}

// NewHandler creates a new statistics handler
func NewHandler(service *analysis.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		charts:  reporting.NewChartRenderer(),
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// RunRequest is the body of POST /api/analysis
type RunRequest struct {
	Tickers []string `json:"tickers"`
	Market  *string  `json:"market,omitempty"`
	Align   bool     `json:"align"`
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
}

// HandleGetStatistics handles GET /api/statistics/{ticker}?from=&to=
func (h *Handler) HandleGetStatistics(w http.ResponseWriter, r *http.Request, ticker string) {
	from, to, err := pricehandlers.ParseRange(r)
	if err != nil {
		h.writeError(w, err, "Invalid date range")
		return
	}

	src := analysis.FromTicker(ticker)
	rs, err := h.service.ReturnSeries(src.Ticker, from, to)
	if err != nil {
		h.writeError(w, err, "Failed to load returns")
		return
	}

	result := domain.AssetResult{Name: src.DisplayName(), Source: src.Describe()}
	if stats, ok := h.service.Calculator().ComputeAsset(rs); ok {
		result.Statistics = &stats
	}
	h.writeData(w, result)
}

// HandleGetPair handles GET /api/statistics/pair?a=&b=&market=&align=
func (h *Handler) HandleGetPair(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b := analysis.FromTicker(q.Get("a")), analysis.FromTicker(q.Get("b"))
	if a.Ticker == "" || b.Ticker == "" {
		h.writeError(w, domain.NewValidationError("a,b", "both tickers are required"), "Invalid pair")
		return
	}
	from, to, err := pricehandlers.ParseRange(r)
	if err != nil {
		h.writeError(w, err, "Invalid date range")
		return
	}

	ra, err := h.service.ReturnSeries(a.Ticker, from, to)
	if err != nil {
		h.writeError(w, err, "Failed to load returns")
		return
	}
	rb, err := h.service.ReturnSeries(b.Ticker, from, to)
	if err != nil {
		h.writeError(w, err, "Failed to load returns")
		return
	}
	if q.Get("align") == "true" {
		ra, rb = returns.Align(ra, rb)
	}

	var market *string
	if m := strings.TrimSpace(q.Get("market")); m != "" {
		market = &m
	}

	pair, ok := h.service.Calculator().ComputePair(ra, rb, market)
	if !ok {
		h.writeError(w, domain.NewValidationError("a,b",
			"need at least 2 overlapping returns, got %d", pair.Observations), "Insufficient overlap")
		return
	}
	h.writeData(w, pair)
}

// HandleGetChart handles GET /api/charts/{ticker}/{kind}.png
func (h *Handler) HandleGetChart(w http.ResponseWriter, r *http.Request, ticker, kind string) {
	from, to, err := pricehandlers.ParseRange(r)
	if err != nil {
		h.writeError(w, err, "Invalid date range")
		return
	}

	rs, err := h.service.ReturnSeries(ticker, from, to)
	if err != nil {
		h.writeError(w, err, "Failed to load returns")
		return
	}

	var png []byte
	switch kind {
	case "returns":
		png, err = h.charts.ReturnsOverTime(rs)
	case "histogram":
		png, err = h.charts.Histogram(rs)
	case "cumulative":
		png, err = h.charts.CumulativeReturns(rs)
	case "qq":
		png, err = h.charts.QQPlot(rs)
	default:
		h.writeError(w, domain.NewValidationError("kind", "unknown chart %q", kind), "Unknown chart")
		return
	}
	if err != nil {
		h.log.Warn().Err(err).Str("ticker", ticker).Str("chart", kind).Msg("Failed to render chart")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.log.Error().Err(err).Msg("Failed to write chart")
	}
}

// HandleRun handles POST /api/analysis
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.NewValidationError("body", "invalid JSON: %v", err), "Invalid request")
		return
	}

	req := analysis.Request{Market: body.Market, Align: body.Align}
	for _, t := range body.Tickers {
		req.Assets = append(req.Assets, analysis.FromTicker(t))
	}
	var err error
	if req.From, err = parseDate("from", body.From); err != nil {
		h.writeError(w, err, "Invalid request")
		return
	}
	if req.To, err = parseDate("to", body.To); err != nil {
		h.writeError(w, err, "Invalid request")
		return
	}

	report, err := h.service.Run(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "Failed to run analysis")
		return
	}
	h.writeData(w, report)
}

// HandleListRuns handles GET /api/analysis/runs?limit=
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.service.Runs()
	if runs == nil {
		h.writeData(w, map[string]interface{}{"runs": []analysis.RunSummary{}, "count": 0})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	list, err := runs.List(limit)
	if err != nil {
		h.writeError(w, err, "Failed to list runs")
		return
	}
	if list == nil {
		list = []analysis.RunSummary{}
	}
	h.writeData(w, map[string]interface{}{"runs": list, "count": len(list)})
}

// HandleGetRun handles GET /api/analysis/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request, id string) {
	runs := h.service.Runs()
	if runs == nil {
		h.writeError(w, domain.NewNotFoundError("analysis run", id), "Run not found")
		return
	}
	report, err := runs.Get(id)
	if err != nil {
		h.writeError(w, err, "Failed to get run")
		return
	}
	h.writeData(w, report)
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "expected YYYY-MM-DD, got %q", value)
	}
	return t, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Msg(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
