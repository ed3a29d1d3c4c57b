package domain

import (
	"log/slog"
)

// IntentStatus is the provider-reported lifecycle state of a payment intent.
type IntentStatus string

// Payment intent status constants.
const (
	StatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	StatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	StatusRequiresAction        IntentStatus = "requires_action"
	StatusProcessing            IntentStatus = "processing"
	StatusRequiresCapture       IntentStatus = "requires_capture"
	StatusSucceeded             IntentStatus = "succeeded"
	StatusCanceled              IntentStatus = "canceled"
)

// ValidIntentStatuses returns all known payment intent statuses.
func ValidIntentStatuses() []IntentStatus {
	return []IntentStatus{
		StatusRequiresPaymentMethod,
		StatusRequiresConfirmation,
		StatusRequiresAction,
		StatusProcessing,
		StatusRequiresCapture,
		StatusSucceeded,
		StatusCanceled,
	}
}

// IsValidIntentStatus checks whether the given status is a known intent status.
func IsValidIntentStatus(status string) bool {
	for _, s := range ValidIntentStatuses() {
		if string(s) == status {
			return true
		}
	}
	return false
}

const redacted = "[REDACTED]"

// ClientSecret authorizes client-side confirmation of exactly one intent.
// It must reach the caller in the create response and nowhere else, so both
// its fmt and slog renderings are redacted.
type ClientSecret string

func (s ClientSecret) String() string { return redacted }

// LogValue implements slog.LogValuer.
func (s ClientSecret) LogValue() slog.Value { return slog.StringValue(redacted) }

// Reveal returns the raw secret for the response body.
func (s ClientSecret) Reveal() string { return string(s) }

// PaymentIntent is the provider-side record created for one checkout attempt.
// It is never stored locally.
type PaymentIntent struct {
	ID           string
	Amount       int64
	Currency     string
	Status       IntentStatus
	ClientSecret ClientSecret
	Metadata     map[string]string
}
