// Package api implements the qcreview HTTP API server: the review backend
// contracts over JSON, WebSocket review sessions and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sprite-ai/qcreview/internal/autosave"
	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/events"
)

// Server is the qcreview HTTP API server.
type Server struct {
	addr      string
	mux       *http.ServeMux
	server    *http.Server
	backend   backend.Backend
	persister *autosave.Persister
	events    events.Publisher
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *metrics
}

// Option configures a Server.
type Option func(*Server)

// WithPublisher sets the change event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) { s.events = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a new API server on top of a backend.
func New(addr string, b backend.Backend, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		backend: b,
		events:  events.Nop{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.persister = autosave.NewPersister(b, s.logger)
	s.registry = prometheus.NewRegistry()
	s.metrics = newMetrics(s.registry)

	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.handle("GET /health", s.handleHealth)
	s.handle("GET /api/vehicles", s.handleListVehicles)
	s.handle("GET /api/vehicles/{id}", s.handleGetVehicle)
	s.handle("POST /api/quality-checks", s.handleSaveQualityCheck)
	s.handle("POST /api/assignments", s.handleAssign)
	s.handle("POST /api/image-types", s.handleImageType)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.metrics.instrument(pattern, h))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info("qcreview API server listening", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) publish(ctx context.Context, ev events.VehicleChanged) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish vehicle change failed", "vehicle", ev.VehicleID, "kind", ev.Kind, "err", err)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode error", "err", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
