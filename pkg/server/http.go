package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/procurehub/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// HTTPConfig has the configuration for the HTTP server.
type HTTPConfig struct {
	Port           int
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	ReadHeader     time.Duration
}

// NewHTTPServer creates an HTTP server whose handler is wrapped in an otelhttp span per request.
func NewHTTPServer(cfg HTTPConfig, serviceName string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(handler, serviceName),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeader,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// routeSpanName renames the request span after the matched chi route once routing is done.
func routeSpanName(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				trace.SpanFromContext(r.Context()).SetName(r.Method + " " + pattern)
			}
		}
	})
}

type routerOptions struct {
	requestTimeout time.Duration
	heartbeat      string
}

// RouterOption customizes NewChiRouter.
type RouterOption func(*routerOptions)

// WithRequestTimeout cancels the request context after d. Zero disables the deadline.
func WithRequestTimeout(d time.Duration) RouterOption {
	return func(o *routerOptions) { o.requestTimeout = d }
}

// WithHeartbeat answers GET/HEAD on path with 200 "." before any other middleware runs.
func WithHeartbeat(path string) RouterOption {
	return func(o *routerOptions) { o.heartbeat = path }
}

// NewChiRouter creates a new Chi router with a set of
// middleware for request ID injection, structured logging, and recovery.
func NewChiRouter(logger *slog.Logger, opts ...RouterOption) *chi.Mux {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	mux := chi.NewRouter()
	if o.heartbeat != "" {
		mux.Use(middleware.Heartbeat(o.heartbeat))
	}
	mux.Use(middleware.RequestID)
	mux.Use(routeSpanName)
	mux.Use(web.StructuredLogger(logger))
	mux.Use(web.Recoverer(logger))
	if o.requestTimeout > 0 {
		mux.Use(middleware.Timeout(o.requestTimeout))
	}
	return mux
}
