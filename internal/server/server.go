// Package server exposes the annotation workflow over HTTP: thin proxy
// routes onto the Langfuse API and JSON views of the annotation page.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jdziat/langfuse-annotator/internal/annotation"
	"github.com/jdziat/langfuse-annotator/internal/metrics"
	"github.com/jdziat/langfuse-annotator/pkg/client"
	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/logging"
)

// Upstream forwards raw JSON to and from the Langfuse API.
// *client.Client satisfies it.
type Upstream interface {
	GetRaw(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	PatchRaw(ctx context.Context, path string, body json.RawMessage) (json.RawMessage, error)
}

// Config holds the server dependencies. MetricsPath defaults to /metrics.
type Config struct {
	Backend        annotation.Backend
	Upstream       Upstream
	Logger         logging.StructuredLogger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	MetricsPath    string
	Version        string
}

// Server routes annotation requests.
type Server struct {
	backend  annotation.Backend
	upstream Upstream
	logger   logging.StructuredLogger
	metrics  *metrics.Metrics
	version  string
	router   chi.Router
}

// New creates a server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		backend:  cfg.Backend,
		upstream: cfg.Upstream,
		logger:   logging.OrNop(cfg.Logger),
		metrics:  cfg.Metrics,
		version:  cfg.Version,
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	s.router = s.routes(cfg.MetricsHandler, metricsPath)
	return s
}

func (s *Server) routes(metricsHandler http.Handler, metricsPath string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(forwardRequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.instrument)

	r.Get("/health", s.handleHealth)
	if metricsHandler != nil {
		r.Handle(metricsPath, metricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/queues", s.handleListQueues)
		api.Route("/queues/{queueID}", func(q chi.Router) {
			q.Get("/", s.handleGetQueue)
			q.Get("/items", s.handleListItems)
			q.Get("/items/{itemID}", s.handleGetItem)
			q.Patch("/items/{itemID}", s.handlePatchItem)
		})
		api.Get("/sessions/{sessionID}", s.handleGetSession)
		api.Get("/traces/{traceID}", s.handleGetTrace)
		api.Get("/score-configs/{configID}", s.handleGetScoreConfig)
	})

	r.Route("/queue/{queueID}", func(q chi.Router) {
		q.Get("/", s.handleView)
		q.Post("/items/{itemID}/scores", s.handleSubmit)
	})

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// circuitReporter is implemented by upstreams that guard reads with a
// circuit breaker. *client.Client does.
type circuitReporter interface {
	CircuitBreakerState() pkghttp.CircuitState
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]string{"status": "ok", "version": s.version}
	if cr, ok := s.upstream.(circuitReporter); ok {
		state := cr.CircuitBreakerState()
		resp["upstream"] = state.String()
		if state == pkghttp.CircuitOpen {
			resp["status"] = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// forwardRequestID tags the upstream calls made for a request with the
// chi request id, so both sides log the same X-Request-ID.
func forwardRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(client.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// logUpstreamError logs err with its error code.
func (s *Server) logUpstreamError(msg string, err error, args ...any) {
	args = append(args, "code", pkgerrors.CodeOf(err), "error", err)
	s.logger.Error(msg, args...)
}

// requestLogger logs each request with its chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// instrument records request metrics by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveRequest(route, r.Method, ww.Status(), time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
