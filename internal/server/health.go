package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/conneroisu/keystone/internal/outcome"
	"github.com/conneroisu/keystone/internal/version"
)

// handleHealth returns the server health status for health checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.handleError(w, r, outcome.MethodNotAllowed(http.MethodGet, http.MethodHead))
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"app_dir":   s.config.App.Dir,
		"templates": s.templates.Stats(),
	}
	if s.hub != nil {
		health["live_reload_clients"] = s.hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "failed to encode health response")
	}
}
