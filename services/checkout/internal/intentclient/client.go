// Package intentclient calls the intent service on behalf of the checkout form.
package intentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jiaorenyu/stripe-demo/pkg/httpclient"
	"github.com/jiaorenyu/stripe-demo/pkg/logger"
)

// serviceName labels errors from the intent service.
const serviceName = "intent"

// ErrUnavailable marks calls rejected locally because the intent service
// has been failing. It wraps the breaker's rejection error.
var ErrUnavailable = errors.New("intent service temporarily unavailable")

// CircuitOpenFallback replaces the bare breaker error with ErrUnavailable.
func CircuitOpenFallback(_ context.Context, err error) (*http.Response, error) {
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client is a typed client for the intent service API.
type Client struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// New creates a client for the intent service at baseURL.
func New(doer HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: baseURL,
		logger:  logger,
	}
}

// CreateIntentRequest is the create-intent request body.
type CreateIntentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreateIntentResponse is the create-intent response body.
type CreateIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	Status          string `json:"status"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// Currency is one entry of the intent service's currency list.
type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// HealthStatus is the intent service's health report.
type HealthStatus struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	Timestamp       string `json:"timestamp"`
	StripeConnected bool   `json:"stripe_connected"`
	Environment     string `json:"environment,omitempty"`
	Error           string `json:"error,omitempty"`
}

// CreatePaymentIntent asks the intent service for a new payment intent.
// A non-2xx answer comes back as *httpclient.APIError when the body carries
// a message, so callers can show it.
func (c *Client) CreatePaymentIntent(ctx context.Context, in *CreateIntentRequest) (*CreateIntentResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal create intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/create-payment-intent", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.WithContext(ctx, c.logger).DebugContext(ctx, "creating payment intent",
		slog.Int64("amount", in.Amount),
		slog.String("currency", in.Currency),
	)

	var out CreateIntentResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &out, nil
}

// Currencies lists the currencies the intent service supports.
func (c *Client) Currencies(ctx context.Context) ([]Currency, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/currencies", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("currencies request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var out struct {
		Currencies []Currency `json:"currencies"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return out.Currencies, nil
}

// Health fetches the intent service health report. A report of a failed
// provider connection is returned together with a non-nil error.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("health request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var out HealthStatus
	err = c.do(ctx, req, &out)
	if err == nil {
		return &out, nil
	}

	// The unhealthy report is a 500 whose body is not an error envelope.
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) && json.Unmarshal([]byte(statusErr.Body), &out) == nil && out.Status != "" {
		return &out, fmt.Errorf("intent service unhealthy: %s", out.Error)
	}
	return nil, fmt.Errorf("health check: %w", err)
}

func (c *Client) do(ctx context.Context, req *http.Request, dst any) error {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", serviceName, err)
	}
	return nil
}
