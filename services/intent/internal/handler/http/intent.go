package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/jiaorenyu/stripe-demo/pkg/errors"
	"github.com/jiaorenyu/stripe-demo/pkg/httputil"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/domain"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/provider"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/service"
)

// timestampLayout matches the created_at metadata format.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Health status strings.
const (
	healthOK    = "OK"
	healthError = "ERROR"

	healthOKMessage    = "Payment server is running"
	healthErrorMessage = "Payment server is running but Stripe connection failed"
)

// IntentService is the subset of the service layer the handlers use.
type IntentService interface {
	CreateIntent(ctx context.Context, req *domain.IntentRequest) (*domain.PaymentIntent, error)
	Health(ctx context.Context) service.HealthReport
	Currencies() []domain.Currency
}

// IntentHandler handles HTTP requests for payment intent endpoints.
type IntentHandler struct {
	service IntentService
	logger  *slog.Logger
}

// NewIntentHandler creates a new intent HTTP handler.
func NewIntentHandler(svc IntentService, logger *slog.Logger) *IntentHandler {
	return &IntentHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Response DTOs ---

// CreateIntentResponse is the body of a successful create-intent call.
// Nothing else about the intent is exposed.
type CreateIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	Status          string `json:"status"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	Timestamp       string `json:"timestamp"`
	StripeConnected bool   `json:"stripe_connected"`
	Environment     string `json:"environment,omitempty"`
	Error           string `json:"error,omitempty"`
}

// CurrenciesResponse is the body of GET /api/currencies.
type CurrenciesResponse struct {
	Currencies []domain.Currency `json:"currencies"`
	Count      int               `json:"count"`
}

// --- Handlers ---

// CreatePaymentIntent handles POST /api/create-payment-intent
func (h *IntentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req domain.IntentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, r, apperrors.InvalidRequest("request body too large"), h.logger)
			return
		}
		httputil.WriteError(w, r, apperrors.InvalidRequest("invalid request body"), h.logger)
		return
	}

	pi, err := h.service.CreateIntent(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CreateIntentResponse{
		ClientSecret:    pi.ClientSecret.Reveal(),
		Status:          string(pi.Status),
		PaymentIntentID: pi.ID,
	})
}

// Health handles GET /api/health
func (h *IntentHandler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.service.Health(r.Context())
	ts := report.Timestamp.Format(timestampLayout)

	if report.Err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, HealthResponse{
			Status:          healthError,
			Message:         healthErrorMessage,
			Timestamp:       ts,
			StripeConnected: false,
			Error:           providerMessage(report.Err),
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:          healthOK,
		Message:         healthOKMessage,
		Timestamp:       ts,
		StripeConnected: true,
		Environment:     report.Environment,
	})
}

// ListCurrencies handles GET /api/currencies
func (h *IntentHandler) ListCurrencies(w http.ResponseWriter, _ *http.Request) {
	currencies := h.service.Currencies()
	httputil.WriteJSON(w, http.StatusOK, CurrenciesResponse{
		Currencies: currencies,
		Count:      len(currencies),
	})
}

// NotFound answers any unmatched route or method.
func (h *IntentHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, r, apperrors.NotFound("Route "+r.URL.RequestURI()+" not found"), h.logger)
}

// providerMessage returns the provider's own text for err, without the
// wrapping added on the way up.
func providerMessage(err error) string {
	var pErr *provider.Error
	if errors.As(err, &pErr) && pErr.Message != "" {
		return pErr.Message
	}
	return err.Error()
}
