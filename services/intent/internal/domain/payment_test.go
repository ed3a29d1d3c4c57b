package domain

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Intent Status Tests
// ============================================================================

func TestValidIntentStatuses_ContainsAll(t *testing.T) {
	expected := []IntentStatus{
		StatusRequiresPaymentMethod, StatusRequiresConfirmation, StatusRequiresAction,
		StatusProcessing, StatusRequiresCapture, StatusSucceeded, StatusCanceled,
	}
	assert.ElementsMatch(t, expected, ValidIntentStatuses())
}

func TestIsValidIntentStatus(t *testing.T) {
	for _, s := range ValidIntentStatuses() {
		assert.True(t, IsValidIntentStatus(string(s)), "expected %q to be valid", s)
	}
	assert.False(t, IsValidIntentStatus("pending"))
	assert.False(t, IsValidIntentStatus(""))
	assert.False(t, IsValidIntentStatus("SUCCEEDED"))
}

func TestClientSecret_RedactedInFormatting(t *testing.T) {
	s := ClientSecret("pi_123_secret_abc")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.NotContains(t, fmt.Sprintf("%+v", PaymentIntent{ClientSecret: s}), "secret_abc")
	assert.Equal(t, "pi_123_secret_abc", s.Reveal())
}

func TestClientSecret_RedactedInLogs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	l.Info("intent created", slog.Any("client_secret", ClientSecret("pi_123_secret_abc")))

	assert.Contains(t, buf.String(), "[REDACTED]")
	assert.NotContains(t, buf.String(), "secret_abc")
}

// ============================================================================
// Currency Tests
// ============================================================================

func TestSupportedCurrencies(t *testing.T) {
	got := SupportedCurrencies()

	assert.Equal(t, []Currency{
		{Code: "usd", Name: "US Dollar", Symbol: "$"},
		{Code: "eur", Name: "Euro", Symbol: "€"},
		{Code: "cny", Name: "Chinese Yuan", Symbol: "¥"},
		{Code: "jpy", Name: "Japanese Yen", Symbol: "¥"},
		{Code: "gbp", Name: "British Pound", Symbol: "£"},
	}, got)
}

func TestSupportedCurrencies_ReturnsCopy(t *testing.T) {
	got := SupportedCurrencies()
	got[0].Code = "xxx"

	assert.Equal(t, "usd", SupportedCurrencies()[0].Code)
}

func TestIsSupportedCurrency(t *testing.T) {
	assert.True(t, IsSupportedCurrency("jpy"))
	assert.False(t, IsSupportedCurrency("xyz"))
	assert.False(t, IsSupportedCurrency("USD"))
}
