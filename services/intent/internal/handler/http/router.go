package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jiaorenyu/stripe-demo/pkg/health"
	"github.com/jiaorenyu/stripe-demo/pkg/middleware"
)

// currenciesCacheControl applies to the static currency list.
const currenciesCacheControl = "public, max-age=3600"

// probePaths are scraped constantly and never traced.
var probePaths = []string{"/health/live", "/health/ready", "/metrics"}

// RouterConfig carries the settings the router needs beyond its handlers.
type RouterConfig struct {
	ServiceName       string
	ClientURL         string
	RateLimitRPS      float64
	RateLimitBurst    int
	PprofEnabled      bool
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all intent service routes registered.
// ctx bounds background work owned by the router, such as rate limiter cleanup.
func NewRouter(
	ctx context.Context,
	cfg RouterConfig,
	intentService IntentService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	intentHandler := NewIntentHandler(intentService, logger)

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName, probePaths...))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.ClientURL)))

	r.NotFound(intentHandler.NotFound)
	r.MethodNotAllowed(intentHandler.NotFound)

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	// Intent API endpoints
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", intentHandler.Health)
		r.With(middleware.CacheControl(currenciesCacheControl)).Get("/currencies", intentHandler.ListCurrencies)

		r.With(
			middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger),
			ContentTypeJSON,
		).Post("/create-payment-intent", intentHandler.CreatePaymentIntent)
	})

	return r
}
