// Package http serves the read-only diagnostics endpoint of a running
// simulator: health, the current status, Prometheus metrics and a
// server-sent event stream of the event log.
//
// Nothing here can drive the vehicle. The controls belong to the operator
// panel only.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/scrm/trolley/pkg/domain"
)

// StatusSource is anything that can report the current simulator status.
type StatusSource interface {
	Status() domain.Status
}

// StatusFunc adapts a function to StatusSource.
type StatusFunc func() domain.Status

func (f StatusFunc) Status() domain.Status { return f() }

// Server holds the handlers of the diagnostics endpoint.
type Server struct {
	Source  StatusSource
	Streams *StreamManager
	Metrics http.Handler
	Version string

	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts a metrics handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithStreams shares a StreamManager, usually one also registered as an
// event sink.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewHandler creates the diagnostics router.
func NewHandler(source StatusSource, opts ...Option) http.Handler {
	s := &Server{Source: source, Version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Get("/events", s.SubscribeEvents)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	st := s.Source.Status()
	writeJSON(w, map[string]string{
		"app":     "trolley",
		"version": s.Version,
		"mode":    string(st.Mode),
	})
}

// GetStatus handles GET /status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, s.Source.Status()); err != nil {
		s.logger.Error("status response encode failed", "error", err)
	}
}

// SubscribeEvents handles GET /events (SSE). An optional kind query
// parameter filters the stream, e.g. ?kind=fault.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	kind := domain.EventKind(r.URL.Query().Get("kind"))
	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if kind != "" && e.Kind != kind {
				continue
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// StreamManager fans events out to the connected SSE clients. It is an
// event sink, so it can be teed next to the log file.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan domain.Event]struct{}
	dropped     atomic.Uint64
}

// NewStreamManager returns a manager with no subscribers.
func NewStreamManager() *StreamManager {
	return &StreamManager{subscribers: make(map[chan domain.Event]struct{})}
}

// Subscribe registers a client. The returned func unregisters it.
func (sm *StreamManager) Subscribe() (<-chan domain.Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan domain.Event, 16)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Record broadcasts e. Slow clients lose events rather than stall the
// simulator.
func (sm *StreamManager) Record(_ context.Context, e domain.Event) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- e:
		default:
			sm.dropped.Add(1)
		}
	}
	return nil
}

// Dropped counts events lost to full client buffers.
func (sm *StreamManager) Dropped() uint64 { return sm.dropped.Load() }

// Subscribers returns the number of connected clients.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Serve runs the diagnostics endpoint on addr until ctx is done. addr must
// be a loopback address.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("diagnostics address: %w", err)
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return fmt.Errorf("diagnostics address %q is not loopback", addr)
	}

	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("diagnostics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
