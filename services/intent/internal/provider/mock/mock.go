package mock

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jiaorenyu/stripe-demo/services/intent/internal/domain"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/provider"
)

// Provider is an offline payment provider for development and testing.
// It accepts any supported currency and never talks to the network.
type Provider struct {
	// PingErr, when set, is returned by Ping.
	PingErr error
}

// NewProvider creates a new mock payment provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// CreateIntent returns a fresh intent in requires_payment_method. Currencies
// outside the supported list are rejected the way the real provider rejects
// unknown codes.
func (p *Provider) CreateIntent(_ context.Context, input *provider.CreateIntentInput) (*domain.PaymentIntent, error) {
	if !domain.IsSupportedCurrency(input.Currency) {
		return nil, &provider.Error{
			Kind:    provider.KindInvalidRequest,
			Message: "Invalid currency: " + input.Currency,
		}
	}

	id := "pi_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	metadata := make(map[string]string, len(input.Metadata))
	for k, v := range input.Metadata {
		metadata[k] = v
	}

	return &domain.PaymentIntent{
		ID:           id,
		Amount:       input.Amount,
		Currency:     input.Currency,
		Status:       domain.StatusRequiresPaymentMethod,
		ClientSecret: domain.ClientSecret(id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")),
		Metadata:     metadata,
	}, nil
}

// Ping reports PingErr, which is nil unless a test sets it.
func (p *Provider) Ping(_ context.Context) error {
	return p.PingErr
}
