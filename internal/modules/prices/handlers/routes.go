package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices", func(r chi.Router) {
		r.Get("/{ticker}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetPrices(w, r, chi.URLParam(r, "ticker"))
		})
		r.Post("/{ticker}/sync", func(w http.ResponseWriter, r *http.Request) {
			h.HandleSyncPrices(w, r, chi.URLParam(r, "ticker"))
		})
	})
}
