// Package server exposes the bot's HTTP health surface.
package server

import (
	"encoding/json"
	"net/http"
)

// StatusSource reports the bot's current lifecycle status string.
type StatusSource interface {
	Status() string
}

// Server serves the health endpoint.
type Server struct {
	status StatusSource
}

// New returns a server reporting health for the given status source.
func New(status StatusSource) *Server {
	return &Server{status: status}
}

// NewHTTPHandler returns an http.Handler with all routes registered.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return mux
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"bot_status": s.status.Status(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
