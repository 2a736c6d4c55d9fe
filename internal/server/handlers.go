package server

import (
	"encoding/json"
	"net/http"

	"github.com/stocklab/stocklab/internal/version"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if s.deps.DB != nil {
		if err := s.deps.DB.QuickCheck(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("Health check failed")
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, code, map[string]interface{}{
		"status":  status,
		"version": version.Version,
		"service": "stocklab",
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
