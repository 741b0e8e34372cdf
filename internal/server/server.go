// Package server is the optional status server: health, counters, recent
// events, Prometheus metrics and a live event stream.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/httpcopy/internal/clock"
	"github.com/SmitUplenchwar2687/httpcopy/internal/recorder"
	"github.com/SmitUplenchwar2687/httpcopy/internal/stats"
)

// DefaultEventLimit is used by /api/events without a limit parameter.
const DefaultEventLimit = 50

// StatsSource provides counter snapshots.
type StatsSource interface {
	Snapshot(ctx context.Context) (stats.Snapshot, error)
}

// EventSource provides recent events, oldest first.
type EventSource interface {
	Recent(n int) []recorder.Event
}

// Options wires the server to the running engine. Nil sources disable
// their endpoints.
type Options struct {
	Clock   clock.Clock
	Listen  string
	Shadow  string
	Stats   StatsSource
	Events  EventSource
	Metrics http.Handler
	Hub     *Hub
}

// Server is the status HTTP server.
type Server struct {
	httpServer *http.Server
	opts       Options
	mux        *http.ServeMux
	started    time.Time
}

// New creates a status server on addr.
func New(addr string, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	s := &Server{
		opts:    opts,
		mux:     http.NewServeMux(),
		started: opts.Clock.Now(),
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           LoggingMiddleware(s.mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/health", s.handleHealth)
	if s.opts.Stats != nil {
		s.mux.HandleFunc("/api/stats", s.handleStats)
	}
	if s.opts.Events != nil {
		s.mux.HandleFunc("/api/events", s.handleEvents)
	}
	if s.opts.Metrics != nil {
		s.mux.Handle("/metrics", s.opts.Metrics)
	}
	if s.opts.Hub != nil {
		s.mux.HandleFunc("/ws", s.opts.Hub.HandleWebSocket)
		s.mux.HandleFunc("/dashboard/", s.handleDashboard)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleRoot describes the running instance.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "httpcopy",
		"status":  "running",
		"listen":  s.opts.Listen,
		"shadow":  s.opts.Shadow,
		"time":    s.opts.Clock.Now().Format(time.RFC3339),
		"uptime":  s.opts.Clock.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Stats.Snapshot(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleEvents returns recent events. Query: ?limit=N
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := DefaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	events := s.opts.Events.Recent(limit)
	if events == nil {
		events = []recorder.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(DashboardHTML))
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.StartOnListener(ln)
}

// StartOnListener begins serving on the provided listener.
// Useful for tests that need to pick an ephemeral port.
func (s *Server) StartOnListener(ln net.Listener) error {
	log.WithField("addr", ln.Addr().String()).Info("status server listening")
	err := s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
