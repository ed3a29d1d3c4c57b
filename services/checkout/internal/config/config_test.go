package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs sets multiple env vars for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001", cfg.APIURL)
	assert.Equal(t, "pk_test_TYooMQauvdEDq54NiTphI7jx", cfg.StripePublishableKey)
	assert.Empty(t, cfg.StripeAPIBase)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, ServiceName, cfg.Tracing.ServiceName)
}

func TestLoad_FromEnv(t *testing.T) {
	setEnvs(t, map[string]string{
		"API_URL":                "http://intent.internal:3001/",
		"STRIPE_PUBLISHABLE_KEY": "pk_live_abc",
		"STRIPE_API_BASE":        "http://localhost:12111",
		"LANGUAGE":               "fr",
		"CURRENCY":               "EUR",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://intent.internal:3001", cfg.APIURL)
	assert.Equal(t, "pk_live_abc", cfg.StripePublishableKey)
	assert.Equal(t, "http://localhost:12111", cfg.StripeAPIBase)
	assert.Equal(t, "fr", cfg.Language)
	assert.Equal(t, "eur", cfg.Currency)
}

func TestLoad_RejectsSecretKeyAsPublishable(t *testing.T) {
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "sk_test_abc")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "StripePublishableKey")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"bad api url":     {"API_URL": "localhost"},
		"bad currency":    {"CURRENCY": "dollars"},
		"zero cb timeout": {"CB_TIMEOUT_SECONDS": "0"},
		"bad cb ratio":    {"CB_FAILURE_RATIO": "1.5"},
		"bad sample rate": {"OTEL_SAMPLE_RATE": "-0.1"},
		"bad stripe base": {"STRIPE_API_BASE": "::nope"},
	}
	for name, envs := range tests {
		t.Run(name, func(t *testing.T) {
			setEnvs(t, envs)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestCircuitBreaker(t *testing.T) {
	setEnvs(t, map[string]string{
		"CB_MAX_REQUESTS":     "2",
		"CB_INTERVAL_SECONDS": "10",
		"CB_TIMEOUT_SECONDS":  "5",
		"CB_FAILURE_RATIO":    "0.6",
		"CB_MIN_REQUESTS":     "3",
	})

	cfg, err := Load()
	require.NoError(t, err)

	cb := cfg.CircuitBreaker()
	assert.Equal(t, "intent", cb.Name)
	assert.Equal(t, uint32(2), cb.MaxRequests)
	assert.Equal(t, 10*time.Second, cb.Interval)
	assert.Equal(t, 5*time.Second, cb.Timeout)
	assert.Equal(t, 0.6, cb.FailureRatio)
	assert.Equal(t, uint32(3), cb.MinRequests)
}
