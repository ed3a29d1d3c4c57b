package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/jiaorenyu/stripe-demo/pkg/errors"
	"github.com/jiaorenyu/stripe-demo/pkg/logger"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/domain"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/provider"
)

// MetadataCreatedAt is the server-set metadata key. It overrides any
// caller-supplied value.
const MetadataCreatedAt = "created_at"

// createdAtLayout is RFC 3339 in UTC with millisecond precision.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

var intentsCreated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_intents_created_total",
		Help: "Create-intent calls that reached the payment provider, by outcome.",
	},
	[]string{"provider", "currency", "outcome"},
)

// IntentService implements the business logic for payment intents.
type IntentService struct {
	provider    provider.Provider
	environment string
	logger      *slog.Logger
	now         func() time.Time
}

// NewIntentService creates a new intent service.
func NewIntentService(prov provider.Provider, environment string, logger *slog.Logger) *IntentService {
	return &IntentService{
		provider:    prov,
		environment: environment,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateIntent validates req and creates a payment intent with the provider.
// Validation failures never reach the provider.
func (s *IntentService) CreateIntent(ctx context.Context, req *domain.IntentRequest) (*domain.PaymentIntent, error) {
	in, err := req.Validate()
	if err != nil {
		return nil, err
	}

	metadata := make(map[string]string, len(in.Metadata)+1)
	for k, v := range in.Metadata {
		metadata[k] = v
	}
	metadata[MetadataCreatedAt] = s.now().UTC().Format(createdAtLayout)

	log := logger.WithContext(ctx, s.logger)

	pi, err := s.provider.CreateIntent(ctx, &provider.CreateIntentInput{
		Amount:                  in.Amount,
		Currency:                in.Currency,
		Metadata:                metadata,
		AutomaticPaymentMethods: true,
	})
	if err != nil {
		appErr := mapProviderError(err)
		intentsCreated.WithLabelValues(s.provider.Name(), currencyLabel(in.Currency), appErr.Type).Inc()
		log.WarnContext(ctx, "create payment intent failed",
			slog.String("provider", s.provider.Name()),
			slog.Int64("amount", in.Amount),
			slog.String("currency", in.Currency),
			slog.String("type", appErr.Type),
			slog.String("error", err.Error()),
		)
		return nil, appErr
	}

	intentsCreated.WithLabelValues(s.provider.Name(), currencyLabel(in.Currency), "success").Inc()
	if !domain.IsValidIntentStatus(string(pi.Status)) {
		log.WarnContext(ctx, "provider returned unknown payment intent status",
			slog.String("payment_intent_id", pi.ID),
			slog.String("status", string(pi.Status)),
		)
	}
	log.InfoContext(ctx, "payment intent created",
		slog.String("payment_intent_id", pi.ID),
		slog.Int64("amount", in.Amount),
		slog.String("currency", in.Currency),
		slog.String("status", string(pi.Status)),
	)

	return pi, nil
}

// mapProviderError converts a classified provider failure into the error
// returned to the caller. Only card and invalid-request messages are passed
// through; everything else becomes the opaque api_error.
func mapProviderError(err error) *apperrors.AppError {
	var pErr *provider.Error
	if errors.As(err, &pErr) {
		switch pErr.Kind {
		case provider.KindCard:
			return apperrors.CardError(pErr.Message, err)
		case provider.KindInvalidRequest:
			return apperrors.ProviderInvalidRequest(pErr.Message, err)
		}
	}
	return apperrors.Unexpected(fmt.Errorf("create payment intent: %w", err))
}

func currencyLabel(code string) string {
	if domain.IsSupportedCurrency(code) {
		return code
	}
	return "other"
}

// HealthReport is the outcome of a provider connectivity probe.
type HealthReport struct {
	Connected   bool
	Environment string
	Timestamp   time.Time
	Err         error
}

// Health probes the provider. It never fails itself; a probe error is
// reported in the result.
func (s *IntentService) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Environment: s.environment,
		Timestamp:   s.now().UTC(),
	}
	if err := s.provider.Ping(ctx); err != nil {
		logger.WithContext(ctx, s.logger).ErrorContext(ctx, "payment provider health check failed",
			slog.String("provider", s.provider.Name()),
			slog.String("error", err.Error()),
		)
		report.Err = err
		return report
	}
	report.Connected = true
	return report
}

// Currencies returns the supported currency list.
func (s *IntentService) Currencies() []domain.Currency {
	return domain.SupportedCurrencies()
}
