package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/zeusync/tdr/internal/core/observability/log"
)

// HTTPServer serves the telemetry hub on /ws and a liveness probe on
// /healthz.
type HTTPServer struct {
	hub    *Hub
	log    log.Log
	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

func NewHTTPServer(hub *Hub, logger log.Log) *HTTPServer {
	if logger == nil {
		logger = log.Nop()
	}
	return &HTTPServer{hub: hub, log: logger}
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ws":
		s.hub.ServeHTTP(w, r)
	case "/healthz":
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprintf(w, "ok %d\n", s.hub.Clients())
	default:
		http.NotFound(w, r)
	}
}

// Start listens on addr and serves in the background.
func (s *HTTPServer) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	srv := &http.Server{Handler: s}
	s.server, s.addr = srv, ln.Addr()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("telemetry server stopped", log.Error(err))
		}
	}()
	s.log.Info("telemetry listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil when not running.
func (s *HTTPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop disconnects spectators and shuts the listener down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server, s.addr = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return ErrServerNotRunning
	}
	s.hub.Close()
	return srv.Shutdown(ctx)
}
