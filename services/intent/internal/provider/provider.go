package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/jiaorenyu/stripe-demo/services/intent/internal/domain"
)

// CreateIntentInput holds the parameters for creating a payment intent.
type CreateIntentInput struct {
	Amount   int64
	Currency string
	Metadata map[string]string
	// AutomaticPaymentMethods lets the provider choose eligible payment methods.
	AutomaticPaymentMethods bool
}

// Provider defines the interface for payment provider integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "stripe").
	Name() string

	// CreateIntent creates a payment intent and returns it with its client secret.
	CreateIntent(ctx context.Context, input *CreateIntentInput) (*domain.PaymentIntent, error)

	// Ping verifies that the provider is reachable and the credentials are accepted.
	Ping(ctx context.Context) error
}

// ErrorKind classifies a provider failure.
type ErrorKind int

const (
	// KindOther is any failure not covered below.
	KindOther ErrorKind = iota
	// KindCard is a card-level decline or card data problem.
	KindCard
	// KindInvalidRequest is a request the provider refused as malformed.
	KindInvalidRequest
	// KindConnectivity means the provider could not be reached.
	KindConnectivity
)

func (k ErrorKind) String() string {
	switch k {
	case KindCard:
		return "card"
	case KindInvalidRequest:
		return "invalid_request"
	case KindConnectivity:
		return "connectivity"
	default:
		return "other"
	}
}

// Error is a provider failure classified at the provider boundary.
// Message is the provider's human-readable text.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or KindOther.
func KindOf(err error) ErrorKind {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return KindOther
}
