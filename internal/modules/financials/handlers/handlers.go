// Package handlers provides HTTP handlers for company fundamentals.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/financials"
)

// Handler handles fundamentals HTTP requests
type Handler struct {
	service *financials.Service
	log     zerolog.Logger
}

// NewHandler creates a new fundamentals handler
func NewHandler(service *financials.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "financials").Logger(),
	}
}

// HandleGetCompany handles GET /api/companies/{ticker}
func (h *Handler) HandleGetCompany(w http.ResponseWriter, r *http.Request, ticker string) {
	profile, err := h.service.Profile(ticker)
	if err != nil {
		h.writeError(w, err, "Failed to get company")
		return
	}
	h.writeData(w, profile)
}

// HandleFetchCompany handles POST /api/companies/{ticker}/fetch
func (h *Handler) HandleFetchCompany(w http.ResponseWriter, r *http.Request, ticker string) {
	profile, err := h.service.FetchCompany(r.Context(), ticker)
	if err != nil {
		h.writeError(w, err, "Failed to fetch company")
		return
	}
	h.writeData(w, profile)
}

// HandleGetFinancials handles GET /api/companies/{ticker}/financials?timeframe=
func (h *Handler) HandleGetFinancials(w http.ResponseWriter, r *http.Request, ticker string) {
	summary, err := h.service.Summary(ticker, r.URL.Query().Get("timeframe"))
	if err != nil {
		h.writeError(w, err, "Failed to get financial summary")
		return
	}
	h.writeData(w, summary)
}

// HandleFetchFinancials handles POST /api/companies/{ticker}/financials/fetch?timeframe=&limit=
func (h *Handler) HandleFetchFinancials(w http.ResponseWriter, r *http.Request, ticker string) {
	limit := parseLimit(r, 4)
	n, err := h.service.FetchFinancials(r.Context(), ticker, r.URL.Query().Get("timeframe"), limit)
	if err != nil {
		h.writeError(w, err, "Failed to fetch financials")
		return
	}
	h.writeData(w, map[string]interface{}{"ticker": ticker, "filings": n})
}

// HandleGetMovers handles GET /api/movers?direction=&limit=
func (h *Handler) HandleGetMovers(w http.ResponseWriter, r *http.Request) {
	direction := r.URL.Query().Get("direction")
	if direction == "" {
		direction = financials.DirectionGainers
	}

	movers, err := h.service.Movers(direction, parseLimit(r, 10))
	if err != nil {
		h.writeError(w, err, "Failed to get movers")
		return
	}
	h.writeData(w, map[string]interface{}{"direction": direction, "movers": movers, "count": len(movers)})
}

// HandleRefreshMovers handles POST /api/movers/refresh?direction=
func (h *Handler) HandleRefreshMovers(w http.ResponseWriter, r *http.Request) {
	direction := r.URL.Query().Get("direction")
	if direction == "" {
		direction = financials.DirectionGainers
	}

	movers, err := h.service.RefreshMovers(r.Context(), direction)
	if err != nil {
		h.writeError(w, err, "Failed to refresh movers")
		return
	}
	h.writeData(w, map[string]interface{}{"direction": direction, "movers": movers, "count": len(movers)})
}

func parseLimit(r *http.Request, def int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
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
