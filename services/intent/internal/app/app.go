package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jiaorenyu/stripe-demo/pkg/health"
	"github.com/jiaorenyu/stripe-demo/pkg/tracing"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/config"
	handler "github.com/jiaorenyu/stripe-demo/services/intent/internal/handler/http"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/provider"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/provider/mock"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/provider/stripe"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/service"
)

// Endpoints lists the public API routes, reported at startup.
var Endpoints = []string{
	"POST /api/create-payment-intent",
	"GET  /api/health",
	"GET  /api/currencies",
}

// App wires together all dependencies and runs the intent service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	provider       provider.Provider
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	stopBackground context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	prov, err := newProvider(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init payment provider: %w", err)
	}
	logger.Info("payment provider initialized",
		slog.String("provider", prov.Name()),
		slog.String("key_mode", cfg.KeyMode()),
	)

	intentService := service.NewIntentService(prov, cfg.Environment, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register(prov.Name(), prov.Ping)

	bgCtx, stopBackground := context.WithCancel(context.Background())

	// HTTP router.
	router := handler.NewRouter(bgCtx, handler.RouterConfig{
		ServiceName:       config.ServiceName,
		ClientURL:         cfg.ClientURL,
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		PprofEnabled:      cfg.PprofEnabled,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
	}, intentService, healthHandler, logger)

	// No WriteTimeout: provider calls are bounded by the provider, not locally.
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		provider:       prov,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
		stopBackground: stopBackground,
	}, nil
}

func newProvider(cfg *config.Config, logger *slog.Logger) (provider.Provider, error) {
	switch cfg.PaymentProvider {
	case "mock":
		return mock.NewProvider(), nil
	case "stripe":
		return stripe.NewProvider(stripe.Config{
			SecretKey: cfg.StripeSecretKey,
			APIBase:   cfg.StripeAPIBase,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.Int("port", a.cfg.HTTPPort),
			slog.Any("endpoints", Endpoints),
			slog.String("key_mode", a.cfg.KeyMode()),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.stopBackground()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Background workers
// 3. Tracer (flush pending spans from drained requests)
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Stop the rate limiter sweeper.
	a.stopBackground()

	// 3. Flush pending spans.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
