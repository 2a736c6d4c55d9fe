// Package handlers provides HTTP handlers for stored price data.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/prices"
)

// Handler handles price HTTP requests
type Handler struct {
	service *prices.Service
	log     zerolog.Logger
}

// NewHandler creates a new price handler
func NewHandler(service *prices.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "prices").Logger(),
	}
}

// HandleGetPrices handles GET /api/prices/{ticker}?from=&to=
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request, ticker string) {
	from, to, err := ParseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	series, err := h.service.Series(ticker, from, to)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get prices")
		http.Error(w, "Failed to get prices", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"ticker": series.Name,
			"prices": series.Points,
			"count":  series.Len(),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleSyncPrices handles POST /api/prices/{ticker}/sync?period=
func (h *Handler) HandleSyncPrices(w http.ResponseWriter, r *http.Request, ticker string) {
	period := r.URL.Query().Get("period")

	n, err := h.service.Sync(r.Context(), ticker, period)
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to sync prices")
		http.Error(w, "Failed to sync prices", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"ticker": prices.NormalizeTicker(ticker),
			"rows":   n,
		},
	})
}

// ParseRange reads optional from/to query parameters in YYYY-MM-DD form
func ParseRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = time.Parse(prices.DateLayout, s); err != nil {
			return from, to, domain.NewValidationError("from", "expected YYYY-MM-DD, got %q", s)
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = time.Parse(prices.DateLayout, s); err != nil {
			return from, to, domain.NewValidationError("to", "expected YYYY-MM-DD, got %q", s)
		}
	}
	return from, to, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
