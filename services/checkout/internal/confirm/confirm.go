// Package confirm completes a payment intent from the client side using the
// publishable key and the intent's client secret.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	stripego "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jiaorenyu/stripe-demo/pkg/tracing"
)

const tracerName = "github.com/jiaorenyu/stripe-demo/services/checkout/confirm"

// Error types reported by a failed confirmation.
const (
	TypeCardError       = "card_error"
	TypeValidationError = "validation_error"
	TypeAPIError        = "api_error"
)

// Error is a confirmation failure. Message is the provider's user-facing text.
type Error struct {
	Type    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("confirm payment: %s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the intent state after confirmation.
type Result struct {
	PaymentIntentID string
	Status          string
}

// Config holds settings for the Stripe confirmer.
type Config struct {
	PublishableKey string
	// APIBase overrides the Stripe API URL, e.g. a local stripe-mock.
	APIBase    string
	HTTPClient *http.Client
}

// StripeConfirmer confirms card payments against the Stripe API.
// It only ever holds the publishable key.
type StripeConfirmer struct {
	api    *client.API
	logger *slog.Logger
}

// NewStripeConfirmer creates a confirmer. The key must be a publishable key.
func NewStripeConfirmer(cfg Config, logger *slog.Logger) (*StripeConfirmer, error) {
	key := strings.TrimSpace(cfg.PublishableKey)
	if !strings.HasPrefix(key, "pk_") {
		return nil, errors.New("stripe publishable key (pk_...) is required")
	}

	backendCfg := &stripego.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
		MaxNetworkRetries: stripego.Int64(0),
	}
	if cfg.APIBase != "" {
		backendCfg.URL = stripego.String(strings.TrimRight(cfg.APIBase, "/"))
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg)

	return &StripeConfirmer{
		api:    client.New(key, &stripego.Backends{API: backend, Connect: backend, Uploads: backend}),
		logger: logger,
	}, nil
}

// IntentID extracts the payment intent id from a client secret of the form
// "<id>_secret_<token>".
func IntentID(clientSecret string) (string, error) {
	id, _, ok := strings.Cut(clientSecret, "_secret_")
	if !ok || id == "" {
		return "", &Error{Type: TypeValidationError, Message: "invalid client secret"}
	}
	return id, nil
}

// ConfirmCardPayment confirms the intent behind clientSecret with a
// tokenized payment method.
func (c *StripeConfirmer) ConfirmCardPayment(ctx context.Context, clientSecret, paymentMethod string) (*Result, error) {
	id, err := IntentID(clientSecret)
	if err != nil {
		return nil, err
	}
	if paymentMethod == "" {
		return nil, &Error{Type: TypeValidationError, Message: "card details are incomplete"}
	}

	ctx, span := tracing.StartClientSpan(ctx, tracerName, "stripe.payment_intents.confirm",
		attribute.String("payment.intent_id", id),
	)

	params := &stripego.PaymentIntentConfirmParams{
		PaymentMethod: stripego.String(paymentMethod),
	}
	params.AddExtra("client_secret", clientSecret)
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		err = classify(err)
		tracing.EndSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.status", string(pi.Status)))
	tracing.EndSpan(span, nil)

	c.logger.DebugContext(ctx, "payment confirmed",
		slog.String("payment_intent_id", pi.ID),
		slog.String("status", string(pi.Status)),
	)
	return &Result{PaymentIntentID: pi.ID, Status: string(pi.Status)}, nil
}

func classify(err error) error {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		errType := TypeAPIError
		if stripeErr.Type == stripego.ErrorTypeCard {
			errType = TypeCardError
		}
		return &Error{Type: errType, Message: stripeErr.Msg, Err: err}
	}
	return &Error{Type: TypeAPIError, Message: err.Error(), Err: err}
}

// StaticCard is card input backed by an already tokenized payment method,
// e.g. "pm_card_visa". It never holds raw card numbers.
type StaticCard struct {
	mu     sync.Mutex
	method string
}

// NewStaticCard returns card input holding paymentMethod.
func NewStaticCard(paymentMethod string) *StaticCard {
	return &StaticCard{method: strings.TrimSpace(paymentMethod)}
}

// PaymentMethod returns the tokenized payment method id.
func (c *StaticCard) PaymentMethod(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.method == "" {
		return "", &Error{Type: TypeValidationError, Message: "card details are incomplete"}
	}
	return c.method, nil
}

// Clear forgets the payment method.
func (c *StaticCard) Clear() {
	c.mu.Lock()
	c.method = ""
	c.mu.Unlock()
}
