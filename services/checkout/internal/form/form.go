// Package form implements the checkout form: currency and language
// selection, submission and the resulting user-facing message.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jiaorenyu/stripe-demo/pkg/httpclient"
	"github.com/jiaorenyu/stripe-demo/pkg/i18n"
	"github.com/jiaorenyu/stripe-demo/pkg/logger"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/confirm"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/domain"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/intentclient"
)

var (
	// ErrNotReady is returned by Submit when the confirmer or the card input
	// is missing. The form state is left unchanged.
	ErrNotReady = errors.New("checkout form is not ready")

	// ErrSubmissionInProgress is returned by Submit while a previous
	// submission has not finished.
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
)

// IntentCreator creates payment intents. intentclient.Client satisfies it.
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, in *intentclient.CreateIntentRequest) (*intentclient.CreateIntentResponse, error)
}

// Confirmer confirms a payment intent with a tokenized payment method.
type Confirmer interface {
	ConfirmCardPayment(ctx context.Context, clientSecret, paymentMethod string) (*confirm.Result, error)
}

// CardInput supplies the payment method entered by the customer.
type CardInput interface {
	PaymentMethod(ctx context.Context) (string, error)
	Clear()
}

// Result is the outcome of one submission.
type Result struct {
	Status          string
	Message         domain.Message
	PaymentIntentID string
}

// Form holds the checkout form state. It is safe for concurrent use; only
// one submission runs at a time.
type Form struct {
	creator   IntentCreator
	confirmer Confirmer
	card      CardInput
	catalog   *i18n.Catalog
	logger    *slog.Logger

	mu         sync.Mutex
	processing bool
	status     string
	message    *domain.Message
	preset     domain.Preset
	tr         *i18n.Translator
}

// New creates an idle form showing the first preset in English.
// confirmer and card may be nil; Submit then reports ErrNotReady.
func New(creator IntentCreator, confirmer Confirmer, card CardInput, catalog *i18n.Catalog, logger *slog.Logger) *Form {
	return &Form{
		creator:   creator,
		confirmer: confirmer,
		card:      card,
		catalog:   catalog,
		logger:    logger,
		status:    domain.StatusIdle,
		preset:    domain.Presets()[0],
		tr:        catalog.Translator("en"),
	}
}

// SelectCurrency switches the offered price to the preset for code.
func (f *Form) SelectCurrency(code string) error {
	p, err := domain.FindPreset(code)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.preset = p
	f.mu.Unlock()
	return nil
}

// SetLanguage switches the display language to the closest supported one
// and returns it.
func (f *Form) SetLanguage(lang string) string {
	tr := f.catalog.Translator(lang)
	f.mu.Lock()
	f.tr = tr
	f.mu.Unlock()
	return tr.Lang()
}

// Status returns the current form status.
func (f *Form) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Submit creates a payment intent for the selected preset and confirms it
// with the card input. Failures of the payment itself are reported in the
// Result, never as an error.
func (f *Form) Submit(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	if f.confirmer == nil || f.card == nil {
		f.mu.Unlock()
		return nil, ErrNotReady
	}
	if f.processing {
		f.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	f.processing = true
	f.status = domain.StatusSubmitting
	f.message = nil
	preset, tr := f.preset, f.tr
	f.mu.Unlock()

	res := f.submit(ctx, preset, tr)

	f.mu.Lock()
	f.processing = false
	f.status = res.Status
	msg := res.Message
	f.message = &msg
	f.mu.Unlock()

	return res, nil
}

func (f *Form) submit(ctx context.Context, preset domain.Preset, tr *i18n.Translator) *Result {
	log := logger.WithContext(ctx, f.logger)
	failed := func(text string) *Result {
		return &Result{
			Status:  domain.StatusFailed,
			Message: domain.Message{Kind: domain.MessageError, Text: text},
		}
	}

	created, err := f.creator.CreatePaymentIntent(ctx, &intentclient.CreateIntentRequest{
		Amount:   preset.AmountMinor(),
		Currency: preset.Code,
		Metadata: map[string]string{
			"product":  tr.T("payment.product"),
			"language": tr.Lang(),
		},
	})
	if err != nil {
		log.ErrorContext(ctx, "create payment intent failed", slog.String("error", err.Error()))
		return failed(createErrorText(err, tr))
	}
	if created.ClientSecret == "" {
		return failed(tr.T("payment.no_client_secret"))
	}

	pm, err := f.card.PaymentMethod(ctx)
	if err != nil {
		return failed(confirmErrorText(err, tr))
	}

	confirmed, err := f.confirmer.ConfirmCardPayment(ctx, created.ClientSecret, pm)
	if err != nil {
		log.WarnContext(ctx, "payment confirmation failed",
			slog.String("payment_intent_id", created.PaymentIntentID),
			slog.String("error", err.Error()),
		)
		res := failed(confirmErrorText(err, tr))
		res.PaymentIntentID = created.PaymentIntentID
		return res
	}

	res := &Result{PaymentIntentID: confirmed.PaymentIntentID}
	switch confirmed.Status {
	case "succeeded":
		f.card.Clear()
		res.Status = domain.StatusSucceeded
		res.Message = domain.Message{Kind: domain.MessageSuccess, Text: tr.T("payment.success")}
		log.InfoContext(ctx, "payment succeeded", slog.String("payment_intent_id", confirmed.PaymentIntentID))
	case "requires_action":
		// No authentication step is run, so the payment stays incomplete.
		res.Status = domain.StatusRequiresAction
		res.Message = domain.Message{Kind: domain.MessageError, Text: tr.T("payment.requires_action")}
	default:
		res.Status = domain.StatusFailed
		res.Message = domain.Message{Kind: domain.MessageError, Text: tr.T("payment.error")}
	}
	return res
}

func createErrorText(err error, tr *i18n.Translator) string {
	if httpclient.IsUnreachable(err) {
		return tr.T("payment.server_unreachable")
	}
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("HTTP %d: %s", statusErr.StatusCode, http.StatusText(statusErr.StatusCode))
	}
	return tr.T("payment.error")
}

func confirmErrorText(err error, tr *i18n.Translator) string {
	var confirmErr *confirm.Error
	if errors.As(err, &confirmErr) && confirmErr.Message != "" &&
		(confirmErr.Type == confirm.TypeCardError || confirmErr.Type == confirm.TypeValidationError) {
		return confirmErr.Message
	}
	return tr.T("payment.error")
}
