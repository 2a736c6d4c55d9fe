// Package handlers provides HTTP handlers for intrinsic value estimates.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/financials"
	"github.com/stocklab/stocklab/internal/modules/valuation"
)

// Store looks up companies and records valuations
type Store interface {
	GetCompanyByTicker(ticker string) (*financials.Company, error)
	SaveValuation(v *valuation.Valuation) error
}

// Request is the body of POST /api/valuation.
// When Ticker is set, missing shares, price and company name are taken from the stored company.
type Request struct {
	valuation.Inputs
	Ticker string `json:"ticker,omitempty"`
	Save   bool   `json:"save"`
}

// Handler handles valuation HTTP requests
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler creates a new valuation handler. store may be nil.
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "valuation").Logger(),
	}
}

// RegisterRoutes registers valuation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/valuation", h.HandleValuate)
}

// HandleValuate handles POST /api/valuation
func (h *Handler) HandleValuate(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.NewValidationError("body", "invalid JSON: %v", err), "Invalid request")
		return
	}

	in, err := h.resolve(req)
	if err != nil {
		h.writeError(w, err, "Failed to resolve company")
		return
	}

	v, err := valuation.Value(in)
	if err != nil {
		h.writeError(w, err, "Failed to value company")
		return
	}

	if req.Save {
		if h.store == nil {
			h.writeError(w, errors.New("no store configured"), "Failed to save valuation")
			return
		}
		if err := h.store.SaveValuation(v); err != nil {
			h.writeError(w, err, "Failed to save valuation")
			return
		}
	}

	h.log.Info().
		Str("company", in.Company).
		Str("gordon_growth_price", v.GordonGrowth.ImpliedPrice.StringFixed(2)).
		Bool("saved", req.Save).
		Msg("Valuation computed")

	h.writeData(w, v)
}

// resolve fills inputs from the stored company profile when a ticker is given
func (h *Handler) resolve(req Request) (valuation.Inputs, error) {
	in := req.Inputs
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" || h.store == nil {
		return in, nil
	}

	company, err := h.store.GetCompanyByTicker(ticker)
	if err != nil {
		return in, err
	}
	return financials.FillValuationInputs(company, in), nil
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
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
