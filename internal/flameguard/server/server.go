// Package server exposes health probes, Prometheus metrics and the agent
// status over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/flameguard/internal/flameguard/dispatch"
	"github.com/autopeer-io/flameguard/internal/pkg/metrics"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/options"
)

// StatusSource provides the state served on /status.
type StatusSource interface {
	Snapshot() dispatch.Snapshot
}

// ReadyFunc reports whether the agent can do useful work.
type ReadyFunc func() bool

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	dispatch.Snapshot
	MQTTConnected bool `json:"mqtt_connected"`
}

type Server struct {
	server  *http.Server
	options *options.HttpOptions
	status  StatusSource
	ready   ReadyFunc
	logger  log.Logger
}

func NewServer(opts *options.HttpOptions, status StatusSource, ready ReadyFunc, logger log.Logger) *Server {
	if logger == nil {
		logger = log.Std()
	}
	if ready == nil {
		ready = func() bool { return true }
	}

	s := &Server{
		options: opts,
		status:  status,
		ready:   ready,
		logger:  logger.WithName("http"),
	}

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	}
	return s
}

// Handler returns the routes served by the server.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)
	r.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	network := s.options.Network
	if network == "" {
		network = "tcp"
	}

	ln, err := net.Listen(network, s.server.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("Starting HTTP Server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if !s.ready() {
		http.Error(w, "mqtt not connected", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Snapshot:      s.status.Snapshot(),
		MQTTConnected: s.ready(),
	}
	s.writeJSON(w, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error(err, "Failed to encode response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
