package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jiaorenyu/stripe-demo/pkg/errors"
	"github.com/jiaorenyu/stripe-demo/pkg/health"
	"github.com/jiaorenyu/stripe-demo/pkg/httputil"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/domain"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/provider"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/service"
)

// --- Mock Service ---

type mockIntentService struct {
	mock.Mock
}

func (m *mockIntentService) CreateIntent(ctx context.Context, req *domain.IntentRequest) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentIntent), args.Error(1)
}

func (m *mockIntentService) Health(ctx context.Context) service.HealthReport {
	args := m.Called(ctx)
	return args.Get(0).(service.HealthReport)
}

func (m *mockIntentService) Currencies() []domain.Currency {
	return domain.SupportedCurrencies()
}

// --- Helpers ---

var testTime = time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRouter(t *testing.T, svc IntentService, cfg RouterConfig) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if cfg.ServiceName == "" {
		cfg.ServiceName = "intent-test"
	}
	return NewRouter(ctx, cfg, svc, health.NewHandler(), testLogger())
}

func do(router http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var env httputil.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NotNil(t, env.Error)
	return env.Error
}

// ============================================================================
// Create Payment Intent
// ============================================================================

func TestCreatePaymentIntent_Success(t *testing.T) {
	svc := new(mockIntentService)
	svc.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req *domain.IntentRequest) bool {
		return string(req.Amount) == "2999" && string(req.Currency) == `"usd"` && req.Metadata["product"] == "Premium"
	})).Return(&domain.PaymentIntent{
		ID:           "pi_123",
		Amount:       2999,
		Currency:     "usd",
		Status:       domain.StatusRequiresPaymentMethod,
		ClientSecret: "pi_123_secret_abc",
	}, nil)

	router := setupRouter(t, svc, RouterConfig{})
	rec := do(router, http.MethodPost, "/api/create-payment-intent",
		`{"amount":2999,"currency":"usd","metadata":{"product":"Premium"}}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"client_secret": "pi_123_secret_abc",
		"status": "requires_payment_method",
		"payment_intent_id": "pi_123"
	}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestCreatePaymentIntent_ValidationError(t *testing.T) {
	svc := new(mockIntentService)
	svc.On("CreateIntent", mock.Anything, mock.Anything).
		Return(nil, apperrors.InvalidRequest(domain.MsgAmountCurrencyRequired))

	router := setupRouter(t, svc, RouterConfig{})
	rec := do(router, http.MethodPost, "/api/create-payment-intent", `{"currency":"usd"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeError(t, rec)
	assert.Equal(t, "invalid_request_error", errResp.Type)
	assert.Equal(t, "amount and currency required", errResp.Message)
	assert.NotEmpty(t, errResp.RequestID)
}

func TestCreatePaymentIntent_CardError(t *testing.T) {
	svc := new(mockIntentService)
	svc.On("CreateIntent", mock.Anything, mock.Anything).
		Return(nil, apperrors.CardError("Your card was declined.", nil))

	router := setupRouter(t, svc, RouterConfig{})
	rec := do(router, http.MethodPost, "/api/create-payment-intent", `{"amount":2999,"currency":"usd"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeError(t, rec)
	assert.Equal(t, "card_error", errResp.Type)
	assert.Equal(t, "Your card was declined.", errResp.Message)
}

func TestCreatePaymentIntent_UnexpectedError(t *testing.T) {
	svc := new(mockIntentService)
	svc.On("CreateIntent", mock.Anything, mock.Anything).
		Return(nil, apperrors.Unexpected(errors.New("dial tcp: connection refused")))

	router := setupRouter(t, svc, RouterConfig{})
	rec := do(router, http.MethodPost, "/api/create-payment-intent", `{"amount":2999,"currency":"usd"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	errResp := decodeError(t, rec)
	assert.Equal(t, "api_error", errResp.Type)
	assert.Equal(t, "An unexpected error occurred", errResp.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCreatePaymentIntent_MalformedBody(t *testing.T) {
	svc := new(mockIntentService)
	router := setupRouter(t, svc, RouterConfig{})

	rec := do(router, http.MethodPost, "/api/create-payment-intent", `{"amount":`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeError(t, rec)
	assert.Equal(t, "invalid_request_error", errResp.Type)
	assert.Equal(t, "invalid request body", errResp.Message)
	svc.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestCreatePaymentIntent_WrongContentType(t *testing.T) {
	svc := new(mockIntentService)
	router := setupRouter(t, svc, RouterConfig{})

	rec := do(router, http.MethodPost, "/api/create-payment-intent", `amount=2999`,
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "invalid_request_error", decodeError(t, rec).Type)
	svc.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestCreatePaymentIntent_JSONWithCharset(t *testing.T) {
	svc := new(mockIntentService)
	svc.On("CreateIntent", mock.Anything, mock.Anything).Return(&domain.PaymentIntent{
		ID: "pi_1", Status: domain.StatusRequiresPaymentMethod, ClientSecret: "pi_1_secret_x",
	}, nil)
	router := setupRouter(t, svc, RouterConfig{})

	rec := do(router, http.MethodPost, "/api/create-payment-intent", `{"amount":100,"currency":"eur"}`,
		map[string]string{"Content-Type": "application/json; charset=utf-8"})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreatePaymentIntent_RateLimited(t *testing.T) {
	svc := new(mockIntentService)
	svc.On("CreateIntent", mock.Anything, mock.Anything).
		Return(nil, apperrors.InvalidRequest(domain.MsgAmountCurrencyRequired))
	router := setupRouter(t, svc, RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	first := do(router, http.MethodPost, "/api/create-payment-intent", `{}`, nil)
	second := do(router, http.MethodPost, "/api/create-payment-intent", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate_limit_error", decodeError(t, second).Type)
	svc.AssertNumberOfCalls(t, "CreateIntent", 1)
}

// ============================================================================
// Health
// ============================================================================

func TestHealth_Connected(t *testing.T) {
	svc := new(mockIntentService)
	svc.On("Health", mock.Anything).Return(service.HealthReport{
		Connected:   true,
		Environment: "development",
		Timestamp:   testTime,
	})

	rec := do(setupRouter(t, svc, RouterConfig{}), http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"status": "OK",
		"message": "Payment server is running",
		"timestamp": "2026-03-14T15:09:26.535Z",
		"stripe_connected": true,
		"environment": "development"
	}`, rec.Body.String())
}

func TestHealth_Disconnected(t *testing.T) {
	svc := new(mockIntentService)
	svc.On("Health", mock.Anything).Return(service.HealthReport{
		Environment: "development",
		Timestamp:   testTime,
		Err:         errors.New("Invalid API Key provided"),
	})

	rec := do(setupRouter(t, svc, RouterConfig{}), http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{
		"status": "ERROR",
		"message": "Payment server is running but Stripe connection failed",
		"timestamp": "2026-03-14T15:09:26.535Z",
		"stripe_connected": false,
		"error": "Invalid API Key provided"
	}`, rec.Body.String())
}

func TestHealth_Disconnected_ProviderMessageOnly(t *testing.T) {
	svc := new(mockIntentService)
	cause := &provider.Error{
		Kind:    provider.KindInvalidRequest,
		Message: "Invalid API Key provided: sk_test_****1234",
		Err:     errors.New("stripe: 401"),
	}
	svc.On("Health", mock.Anything).Return(service.HealthReport{
		Environment: "development",
		Timestamp:   testTime,
		Err:         fmt.Errorf("retrieve stripe account: %w", cause),
	})

	rec := do(setupRouter(t, svc, RouterConfig{}), http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid API Key provided: sk_test_****1234", body.Error)
	assert.NotContains(t, rec.Body.String(), "retrieve stripe account")
	assert.NotContains(t, rec.Body.String(), "invalid_request")
}

// ============================================================================
// Currencies
// ============================================================================

func TestListCurrencies(t *testing.T) {
	rec := do(setupRouter(t, new(mockIntentService), RouterConfig{}), http.MethodGet, "/api/currencies", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	var resp CurrenciesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 5, resp.Count)
	require.Len(t, resp.Currencies, 5)
	assert.Equal(t, domain.Currency{Code: "usd", Name: "US Dollar", Symbol: "$"}, resp.Currencies[0])
	assert.Equal(t, domain.Currency{Code: "gbp", Name: "British Pound", Symbol: "£"}, resp.Currencies[4])
}

// ============================================================================
// Routing and cross-cutting behavior
// ============================================================================

func TestUnknownRoute(t *testing.T) {
	rec := do(setupRouter(t, new(mockIntentService), RouterConfig{}), http.MethodGet, "/api/unknown?x=1", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errResp := decodeError(t, rec)
	assert.Equal(t, "not_found", errResp.Type)
	assert.Equal(t, "Route /api/unknown?x=1 not found", errResp.Message)
}

func TestWrongMethod_IsNotFound(t *testing.T) {
	rec := do(setupRouter(t, new(mockIntentService), RouterConfig{}), http.MethodGet, "/api/create-payment-intent", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route /api/create-payment-intent not found", decodeError(t, rec).Message)
}

func TestCORS_AllowedOrigins(t *testing.T) {
	router := setupRouter(t, new(mockIntentService), RouterConfig{ClientURL: "https://shop.example.com"})

	for _, origin := range []string{"http://localhost:3000", "http://localhost:3002", "https://shop.example.com"} {
		rec := do(router, http.MethodOptions, "/api/create-payment-intent", "", map[string]string{
			"Origin":                        origin,
			"Access-Control-Request-Method": http.MethodPost,
		})
		assert.Equal(t, http.StatusNoContent, rec.Code, origin)
		assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"), origin)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	router := setupRouter(t, new(mockIntentService), RouterConfig{})

	rec := do(router, http.MethodGet, "/api/currencies", "", map[string]string{"Origin": "https://evil.example.com"})

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationIDEchoed(t *testing.T) {
	router := setupRouter(t, new(mockIntentService), RouterConfig{})

	rec := do(router, http.MethodGet, "/api/currencies", "", map[string]string{"X-Correlation-ID": "corr-42"})

	assert.Equal(t, "corr-42", rec.Header().Get("X-Correlation-ID"))
}

func TestLivenessAndMetrics(t *testing.T) {
	router := setupRouter(t, new(mockIntentService), RouterConfig{})

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/ready", "", nil).Code)

	// Generate one labelled sample first so the family is exported.
	do(router, http.MethodGet, "/api/currencies", "", nil)
	rec := do(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestPprof_DisabledByDefault(t *testing.T) {
	rec := do(setupRouter(t, new(mockIntentService), RouterConfig{}), http.MethodGet, "/debug/pprof/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPprof_Allowlist(t *testing.T) {
	router := setupRouter(t, new(mockIntentService), RouterConfig{
		PprofEnabled:      true,
		PprofAllowedCIDRs: []string{"10.0.0.0/8"},
	})

	// httptest requests come from 192.0.2.1.
	rec := do(router, http.MethodGet, "/debug/pprof/", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "permission_error", decodeError(t, rec).Type)
}
