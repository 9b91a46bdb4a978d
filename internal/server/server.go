// Package server exposes the sink over HTTP for producers that are not
// in-process: one endpoint to record entries, one to flush, one to
// inspect state.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/okanacar/mailsink/pkg/sink"
)

// Server provides the log ingest API.
type Server struct {
	sink   *sink.Sink
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates an ingest server around one sink.
func NewServer(s *sink.Sink, logger *slog.Logger) *Server {
	srv := &Server{
		sink:   s,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/log", s.handleLog)
	s.mux.HandleFunc("POST /api/v1/flush", s.handleFlush)
	s.mux.HandleFunc("GET /api/v1/state", s.handleState)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	var entry sink.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		// Unknown level names surface here via severity.Level's
		// UnmarshalJSON; reject them with the parse error.
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "unknown level") {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	if entry.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	retained := s.sink.Record(r.Context(), entry)
	writeJSON(w, http.StatusAccepted, map[string]bool{"retained": retained})
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	sent := s.sink.Flush(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"sent": sent})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	count, max, ok := s.sink.State()
	state := stateResponse{
		Buffered:  count,
		Threshold: s.sink.Threshold().String(),
	}
	if ok {
		state.MaxSeverity = max.String()
	}
	writeJSON(w, http.StatusOK, state)
}

type stateResponse struct {
	Buffered    int    `json:"buffered"`
	MaxSeverity string `json:"max_severity,omitempty"`
	Threshold   string `json:"threshold"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
