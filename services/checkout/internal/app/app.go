package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jiaorenyu/stripe-demo/pkg/httpclient"
	"github.com/jiaorenyu/stripe-demo/pkg/logger"
	"github.com/jiaorenyu/stripe-demo/pkg/tracing"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/config"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/confirm"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/domain"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/form"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/intentclient"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/locales"
)

const tracerName = "github.com/jiaorenyu/stripe-demo/services/checkout/app"

// ErrNotCompleted is returned by Run when the payment did not succeed.
var ErrNotCompleted = errors.New("payment not completed")

// Options select what a single Run does.
type Options struct {
	// Check queries the intent service health before submitting.
	Check bool
	// List prints the intent service's currencies and skips the payment.
	List bool
}

// App wires together all dependencies of the checkout form.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	client         *intentclient.Client
	form           *form.Form
	tracerShutdown func(context.Context) error
}

// NewApp creates the checkout form with cfg's currency and language
// selected. paymentMethod is the tokenized card used on submit.
func NewApp(cfg *config.Config, logger *slog.Logger, paymentMethod string) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	catalog, err := locales.Load()
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	// No retries and no client timeout: a retried create makes a second intent.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         0,
		MaxRetries:      0,
		MaxConnsPerHost: 10,
	})
	cbCfg := cfg.CircuitBreaker()
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(intentclient.CircuitOpenFallback)
	logger.Debug("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)
	client := intentclient.New(cbClient, cfg.APIURL, logger)

	// The form refuses to submit without a confirmer.
	var confirmer form.Confirmer
	stripeConfirmer, err := confirm.NewStripeConfirmer(confirm.Config{
		PublishableKey: cfg.StripePublishableKey,
		APIBase:        cfg.StripeAPIBase,
	}, logger)
	if err != nil {
		logger.Warn("stripe confirmer unavailable", slog.String("error", err.Error()))
	} else {
		confirmer = stripeConfirmer
	}

	f := form.New(client, confirmer, confirm.NewStaticCard(paymentMethod), catalog, logger)
	if err := f.SelectCurrency(cfg.Currency); err != nil {
		return nil, fmt.Errorf("select currency: %w", err)
	}
	f.SetLanguage(cfg.Language)

	return &App{
		cfg:            cfg,
		logger:         logger,
		client:         client,
		form:           f,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Form returns the checkout form.
func (a *App) Form() *form.Form {
	return a.form
}

// Run renders the form to w, submits it once and renders the outcome.
// It returns ErrNotCompleted unless the payment succeeded.
func (a *App) Run(ctx context.Context, w io.Writer, opts Options) error {
	ctx = logger.WithCorrelationID(ctx, uuid.NewString())

	if opts.List {
		currencies, err := a.client.Currencies(ctx)
		if err != nil {
			return fmt.Errorf("list currencies: %w", err)
		}
		renderCurrencies(w, currencies)
		return nil
	}

	if opts.Check {
		status, err := a.client.Health(ctx)
		renderHealth(w, status, err)
		if err != nil {
			return fmt.Errorf("intent service health: %w", err)
		}
	}

	renderForm(w, a.form.View())

	ctx, span := tracing.StartClientSpan(ctx, tracerName, "checkout.submit")
	res, err := a.form.Submit(ctx)
	tracing.EndSpan(span, err)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	renderResult(w, res)
	if res.Status != domain.StatusSucceeded {
		return fmt.Errorf("%w: %s", ErrNotCompleted, res.Status)
	}
	return nil
}

// Shutdown flushes pending spans (3s budget).
func (a *App) Shutdown() error {
	if a.tracerShutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.tracerShutdown(ctx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
