package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hubgate/hubgate/internal/observability"
	"github.com/hubgate/hubgate/internal/probe"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9]{1,30}$`)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type versionResponse struct {
	Version string `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, versionResponse{Version: s.version})
}

func (s *Server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !usernamePattern.MatchString(username) {
		respondError(w, http.StatusBadRequest, "username must be 1-30 lowercase alphanumeric characters")
		return
	}

	report, err := s.prober.Run(r.Context(), username)
	if err != nil {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("Probe failed",
				zap.String("username", username),
				zap.Error(err))
		}

		status := http.StatusBadGateway
		if errors.Is(err, probe.ErrCredentialNotSet) {
			status = http.StatusNotFound
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
