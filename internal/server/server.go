// Package server exposes the pipeline engine over HTTP.
//
//	POST /v1/apply      run a pipeline spec on a bundle, return output and record
//	POST /v1/replay     rerun a record on a bundle
//	POST /v1/reverse    undo a record on its output
//	GET  /v1/transforms registered transform names
//	GET  /healthz       liveness
//	GET  /version       build information
//	GET  /metrics       Prometheus metrics, when a registry is configured
//
// Images travel as base64 PNG or JPEG strings inside the bundle.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/augment/pkg/observability"
	"github.com/matzehuels/augment/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds request bodies when Server.MaxBodyBytes is 0.
const DefaultMaxBodyBytes = 32 << 20

// Server serves the HTTP API. Its Runner caches records like the CLI does.
type Server struct {
	Runner       *pipeline.Runner
	Logger       *log.Logger
	Metrics      *prometheus.Registry
	MaxBodyBytes int64
}

// New returns a server with the given runner. A nil logger uses
// log.Default().
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{Runner: runner, Logger: logger, MaxBodyBytes: DefaultMaxBodyBytes}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	if s.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/transforms", s.handleTransforms)
		r.Post("/apply", s.handleApply)
		r.Post("/replay", s.handleReplay)
		r.Post("/reverse", s.handleReverse)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// observe reports every request to the HTTP hooks under its route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, dur)
		s.Logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
