package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers statistics, chart and analysis run routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/statistics", func(r chi.Router) {
		r.Get("/pair", h.HandleGetPair)
		r.Get("/{ticker}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetStatistics(w, r, chi.URLParam(r, "ticker"))
		})
	})

	r.Get("/charts/{ticker}/{kind}.png", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetChart(w, r, chi.URLParam(r, "ticker"), chi.URLParam(r, "kind"))
	})

	r.Route("/analysis", func(r chi.Router) {
		r.Post("/", h.HandleRun)
		r.Get("/runs", h.HandleListRuns)
		r.Get("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetRun(w, r, chi.URLParam(r, "id"))
		})
	})
}
