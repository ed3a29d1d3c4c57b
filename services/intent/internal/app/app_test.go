package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaorenyu/stripe-demo/services/intent/internal/config"
)

func newMockApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{
		Environment:       "test",
		HTTPPort:          0,
		StripeSecretKey:   "sk_test_123",
		PaymentProvider:   "mock",
		RateLimitRPS:      0,
		RateLimitBurst:    1,
		PprofAllowedCIDRs: []string{"127.0.0.0/8"},
	}
	cfg.Tracing.ServiceName = config.ServiceName

	a, err := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { a.stopBackground() })
	return a
}

func TestNewApp_UnknownProvider(t *testing.T) {
	cfg := &config.Config{StripeSecretKey: "sk_test_123", PaymentProvider: "paypal"}
	_, err := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestApp_CreateIntentEndToEnd(t *testing.T) {
	srv := httptest.NewServer(newMockApp(t).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/create-payment-intent", "application/json",
		strings.NewReader(`{"amount":2999,"currency":"usd","metadata":{"language":"en"}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body, 3)
	assert.True(t, strings.HasPrefix(body["payment_intent_id"], "pi_mock_"))
	assert.True(t, strings.HasPrefix(body["client_secret"], body["payment_intent_id"]+"_secret_"))
	assert.Equal(t, "requires_payment_method", body["status"])
}

func TestApp_UnsupportedCurrencyRejectedByProvider(t *testing.T) {
	srv := httptest.NewServer(newMockApp(t).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/create-payment-intent", "application/json",
		strings.NewReader(`{"amount":2999,"currency":"xyz"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_request_error", body.Error.Type)
	assert.Equal(t, "Invalid currency: xyz", body.Error.Message)
}

func TestApp_HealthAndReadiness(t *testing.T) {
	srv := httptest.NewServer(newMockApp(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ready, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	defer ready.Body.Close()
	assert.Equal(t, http.StatusOK, ready.StatusCode)
}

func TestApp_Shutdown(t *testing.T) {
	a := newMockApp(t)
	assert.NoError(t, a.Shutdown())
}
