package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/craftista/concierge/internal/domain"
	"github.com/craftista/concierge/internal/router"
)

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Backend  string `json:"backend"`
	Sessions int    `json:"sessions"`
	UptimeS  int64  `json:"uptimeSeconds"`
}

// handleHealth reports service health. Status degrades to "degraded" while
// the breaker is refusing backend calls; the process itself is still up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.breaker.Tripped() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   status,
		Version:  s.version,
		Backend:  s.breaker.State().String(),
		Sessions: s.sessions.Count(),
		UptimeS:  int64(time.Since(s.startedAt).Seconds()),
	})
}

// handleChat processes a single chat turn over plain HTTP.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res := s.router.Handle(r.Context(), req)
	writeJSON(w, statusFor(res), res.Response)
}

// statusFor maps a routing result to an HTTP status. Failed turns still
// return 200 with an apology reply so the conversation widget keeps going.
func statusFor(res router.Result) int {
	if res.Outcome != router.OutcomeRejected {
		return http.StatusOK
	}
	switch {
	case errors.Is(res.Err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(res.Err, domain.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(res.Err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		// Injection rejections answer politely with 200; the verdict is
		// carried in the blocked flag, not the status.
		return http.StatusOK
	}
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
