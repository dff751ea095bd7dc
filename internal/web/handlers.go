package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/clientdesk/internal/core"
	"github.com/JonMunkholm/clientdesk/internal/logging"
)

const healthTimeout = 2 * time.Second

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string        `json:"status"`
	Imports RegistryStats `json:"imports"`
}

// handleHealth reports liveness and whether the store answers a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Imports: s.sessions.Stats()}
	status := http.StatusOK

	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Error("health check failed", "error", err)
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSONStatus(w, status, resp)
}

// handleDownloadTemplate returns the CSV template with example rows.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	// Set headers for CSV download
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, core.TemplateFileName))

	if err := core.WriteTemplate(w); err != nil {
		logging.FromContext(r.Context()).Error("write template", "error", err)
	}
}
