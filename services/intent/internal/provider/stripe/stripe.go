package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	stripego "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jiaorenyu/stripe-demo/pkg/tracing"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/domain"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/provider"
)

const (
	providerName = "stripe"
	tracerName   = "github.com/jiaorenyu/stripe-demo/services/intent/provider/stripe"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "payment_provider_request_duration_seconds",
		Help:    "Duration of payment provider API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider", "operation", "outcome"},
)

// Config holds Stripe client settings.
type Config struct {
	SecretKey string
	// APIBase overrides the Stripe API URL, e.g. a local stripe-mock.
	APIBase string
	// HTTPClient overrides the SDK's default client.
	HTTPClient *http.Client
	// MaxNetworkRetries is passed through to the SDK. Zero disables retries.
	MaxNetworkRetries int64
}

// Provider creates payment intents through the Stripe API.
type Provider struct {
	api     *client.API
	backend stripego.Backend
	key     string
	logger  *slog.Logger
}

// NewProvider creates a Stripe provider. The secret key is only held by the
// SDK backend and is never logged.
func NewProvider(cfg Config, logger *slog.Logger) (*Provider, error) {
	key := strings.TrimSpace(cfg.SecretKey)
	if key == "" {
		return nil, errors.New("stripe secret key is required")
	}

	backendCfg := &stripego.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		LeveledLogger:     &leveledLogger{logger: logger},
		MaxNetworkRetries: stripego.Int64(cfg.MaxNetworkRetries),
	}
	if cfg.APIBase != "" {
		backendCfg.URL = stripego.String(strings.TrimRight(cfg.APIBase, "/"))
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg)

	return &Provider{
		api:     client.New(key, &stripego.Backends{API: backend, Connect: backend, Uploads: backend}),
		backend: backend,
		key:     key,
		logger:  logger,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// CreateIntent creates a Stripe PaymentIntent with automatic payment methods.
func (p *Provider) CreateIntent(ctx context.Context, input *provider.CreateIntentInput) (*domain.PaymentIntent, error) {
	ctx, span := tracing.StartClientSpan(ctx, tracerName, "stripe.payment_intents.create",
		attribute.Int64("payment.amount", input.Amount),
		attribute.String("payment.currency", input.Currency),
	)

	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(input.Amount),
		Currency: stripego.String(input.Currency),
	}
	if input.AutomaticPaymentMethods {
		params.AutomaticPaymentMethods = &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		}
	}
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	start := time.Now()
	pi, err := p.api.PaymentIntents.New(params)
	observe("create_intent", start, err)
	if err != nil {
		err = classify(err)
		tracing.EndSpan(span, err)
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	span.SetAttributes(attribute.String("payment.intent_id", pi.ID))
	tracing.EndSpan(span, nil)

	return &domain.PaymentIntent{
		ID:           pi.ID,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       domain.IntentStatus(pi.Status),
		ClientSecret: domain.ClientSecret(pi.ClientSecret),
		Metadata:     pi.Metadata,
	}, nil
}

// Ping retrieves the account that owns the secret key.
func (p *Provider) Ping(ctx context.Context) error {
	ctx, span := tracing.StartClientSpan(ctx, tracerName, "stripe.account.retrieve")

	params := &stripego.Params{Context: ctx}
	start := time.Now()
	err := p.backend.Call(http.MethodGet, "/v1/account", p.key, params, &stripego.Account{})
	observe("ping", start, err)
	if err != nil {
		err = classify(err)
		tracing.EndSpan(span, err)
		return fmt.Errorf("retrieve stripe account: %w", err)
	}
	tracing.EndSpan(span, nil)
	return nil
}

func observe(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	requestDuration.WithLabelValues(providerName, operation, outcome).Observe(time.Since(start).Seconds())
}

// classify converts an SDK error into a *provider.Error.
func classify(err error) error {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		kind := provider.KindOther
		switch stripeErr.Type {
		case stripego.ErrorTypeCard:
			kind = provider.KindCard
		case stripego.ErrorTypeInvalidRequest:
			kind = provider.KindInvalidRequest
		}
		return &provider.Error{Kind: kind, Message: stripeErr.Msg, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &provider.Error{Kind: provider.KindConnectivity, Message: "stripe unreachable", Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &provider.Error{Kind: provider.KindConnectivity, Message: "stripe call interrupted", Err: err}
	}
	return &provider.Error{Kind: provider.KindOther, Message: err.Error(), Err: err}
}

// leveledLogger routes SDK log output into slog. The SDK never logs keys.
type leveledLogger struct {
	logger *slog.Logger
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe-go"))
}

func (l *leveledLogger) Infof(format string, v ...interface{}) {
	// Request lines are noisy at info; keep them at debug.
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe-go"))
}

func (l *leveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), slog.String("component", "stripe-go"))
}

func (l *leveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "stripe-go"))
}
