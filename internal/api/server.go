// Package api exposes the HTTP status surface served while a run is active:
// health probes, Prometheus metrics and the live run tally.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
	"github.com/vkarmanov/vacancy-harvester/internal/metrics"
)

// Server wires HTTP handlers to the run tally.
type Server struct {
	router chi.Router
	tally  *harvest.Tally
	logger *zap.Logger
}

// NewServer constructs a Server with routes registered.
func NewServer(tally *harvest.Tally, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		tally:  tally,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/v1/tally", s.getTally)
	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) getTally(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.tally.Snapshot()); err != nil {
		s.logger.Error("encode tally response", zap.Error(err))
	}
}
