package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers company and market mover routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/companies/{ticker}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetCompany(w, r, chi.URLParam(r, "ticker"))
		})
		r.Post("/fetch", func(w http.ResponseWriter, r *http.Request) {
			h.HandleFetchCompany(w, r, chi.URLParam(r, "ticker"))
		})
		r.Get("/financials", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetFinancials(w, r, chi.URLParam(r, "ticker"))
		})
		r.Post("/financials/fetch", func(w http.ResponseWriter, r *http.Request) {
			h.HandleFetchFinancials(w, r, chi.URLParam(r, "ticker"))
		})
	})

	r.Route("/movers", func(r chi.Router) {
		r.Get("/", h.HandleGetMovers)
		r.Post("/refresh", h.HandleRefreshMovers)
	})
}
