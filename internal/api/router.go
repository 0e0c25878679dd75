package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AthbiHC/mobasher/internal/httpmw"
)

// RouterConfig configures the CORS, rate-limiting, and auth layers
// around the route table.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	AuthMode           AuthMode
	AuthSecret         []byte
}

// DefaultRouterConfig leaves auth off by default: a bare ingestion core
// names no auth scheme of its own, so bearer auth is opt-in via config.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSAllowedOrigins: []string{},
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
		AuthMode:           AuthModeNone,
	}
}

// NewRouter builds the read API's http.Handler: request id, Prometheus
// instrumentation, gzip compression, panic recovery (internal/httpmw),
// CORS and rate limiting (go-chi/cors, go-chi/httprate), an optional
// bearer-auth gate, then the route table.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(adapt(httpmw.RequestID))
	r.Use(adapt(httpmw.PrometheusMetrics))
	r.Use(adapt(httpmw.Recover))
	r.Use(adapt(httpmw.Compression))
	r.Use(chimiddleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthMode, cfg.AuthSecret))

		r.Get("/channels", h.ListChannels)
		r.Get("/channels/{id}", h.GetChannel)
		r.Post("/channels", h.UpsertChannel)
		r.Get("/recordings", h.ListRecordings)
		r.Get("/segments", h.ListSegments)
		r.Get("/transcripts", h.ListTranscripts)
		r.Get("/visual-events", h.ListVisualEvents)
		r.Get("/screenshots", h.ListScreenshots)
	})

	return r
}

// adapt bridges httpmw's http.HandlerFunc-returning middleware
// signature to chi's func(http.Handler) http.Handler.
func adapt(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}
