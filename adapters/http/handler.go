// Package http mounts the endpoint table on a chi router and wires the
// ambient middleware: request IDs, access logging, CORS, and metrics.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/formgate/formgate/adapters/metrics"
	"github.com/formgate/formgate/app"
	"github.com/formgate/formgate/domain/endpoint"
	"github.com/formgate/formgate/ports"
)

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics     *metrics.Collector // request observations (nil disables)
	MetricsPath string             // Prometheus scrape path (empty disables)
	AccessLog   ports.AccessLog
	CORS        *HeaderStore // nil disables CORS handling
	Version     string
}

// NewRouter creates the main HTTP router over the frozen endpoint table.
func NewRouter(pipeline *app.Pipeline, table *endpoint.Table, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	if cfg.CORS != nil {
		r.Use(NewCORSMiddleware(cfg.CORS))
	}
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}
	if cfg.AccessLog != nil {
		r.Use(NewAccessLogMiddleware(cfg.AccessLog))
	}

	// Health endpoints (no validation pipeline)
	r.Get("/health", Liveness)
	r.Get("/health/live", Liveness)

	if cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, promhttp.Handler())
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	r.Get("/version", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(VersionResponse{Version: version, Service: "formgate"})
	})

	// Every configured endpoint goes through the pipeline; method
	// filtering happens there so a disallowed verb gets the 405 envelope
	// rather than chi's plain-text response.
	for _, ep := range table.All() {
		ep := ep
		r.HandleFunc(ep.Path, func(w http.ResponseWriter, req *http.Request) {
			pipeline.Handle(ep, w, req)
		})
	}

	return r
}

// Liveness returns a simple liveness check.
func Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// NewLoggingMiddleware logs HTTP requests.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// NewMetricsMiddleware records request counts, durations, and the
// in-flight gauge.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			m.RequestHandled(r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}

// NewAccessLogMiddleware records one access entry per completed request.
func NewAccessLogMiddleware(log ports.AccessLog) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			log.Record(context.WithoutCancel(r.Context()), ports.AccessEntry{
				ID:        middleware.GetReqID(r.Context()),
				Timestamp: start,
				Method:    r.Method,
				Path:      r.URL.Path,
				Status:    ww.Status(),
				Code:      ww.Status(),
				LatencyMs: time.Since(start).Milliseconds(),
				RemoteIP:  remoteIP(r),
				UserAgent: r.UserAgent(),
			})
		})
	}
}

// remoteIP returns the client address without the port. RealIP middleware
// has already folded X-Forwarded-For into RemoteAddr.
func remoteIP(r *http.Request) string {
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
