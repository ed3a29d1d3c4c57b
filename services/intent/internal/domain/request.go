package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/jiaorenyu/stripe-demo/pkg/errors"
	"github.com/jiaorenyu/stripe-demo/pkg/money"
	"github.com/jiaorenyu/stripe-demo/pkg/validator"
)

// Validation messages returned to the caller verbatim.
const (
	MsgAmountCurrencyRequired = "amount and currency required"
	MsgAmountInvalid          = "amount must be a positive integer in the smallest currency unit"
	MsgCurrencyInvalid        = "currency must be a 3-letter code"
)

// IntentRequest is the create-intent body as received. Amount and Currency
// stay raw so that a missing field, a wrong JSON type and a fractional number
// can be told apart.
type IntentRequest struct {
	Amount   json.RawMessage   `json:"amount"`
	Currency json.RawMessage   `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// CreateIntentInput is a validated create-intent request.
type CreateIntentInput struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

type intentRule func(req *IntentRequest, in *CreateIntentInput) error

// Rules run in order and the first failure wins.
var intentRules = []intentRule{
	requireAmountAndCurrency,
	parseAmount,
	parseCurrency,
}

// Validate runs the create-intent rules and returns the normalized input.
// Every failure is an invalid_request_error AppError.
func (r *IntentRequest) Validate() (*CreateIntentInput, error) {
	in := &CreateIntentInput{Metadata: r.Metadata}
	for _, rule := range intentRules {
		if err := rule(r, in); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func requireAmountAndCurrency(req *IntentRequest, _ *CreateIntentInput) error {
	if isMissing(req.Amount) || isMissing(req.Currency) {
		return apperrors.InvalidRequest(MsgAmountCurrencyRequired)
	}
	return nil
}

func parseAmount(req *IntentRequest, in *CreateIntentInput) error {
	raw := bytes.TrimSpace(req.Amount)
	if !isNumber(raw) {
		return apperrors.InvalidRequest(MsgAmountInvalid)
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return apperrors.InvalidRequest(MsgAmountInvalid)
	}
	amount, err := money.Integer(d)
	if err != nil || amount <= 0 {
		return apperrors.InvalidRequest(MsgAmountInvalid)
	}
	in.Amount = amount
	return nil
}

func parseCurrency(req *IntentRequest, in *CreateIntentInput) error {
	var code string
	if err := json.Unmarshal(req.Currency, &code); err != nil {
		return apperrors.InvalidRequest(MsgCurrencyInvalid)
	}
	if err := validator.Var(code, "len=3"); err != nil {
		return apperrors.InvalidRequest(MsgCurrencyInvalid)
	}
	in.Currency = strings.ToLower(code)
	return nil
}

// isMissing treats absent, null, false, numeric zero and "" as not supplied.
func isMissing(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	switch {
	case bytes.Equal(raw, []byte("null")), bytes.Equal(raw, []byte("false")):
		return true
	case raw[0] == '"':
		var s string
		return json.Unmarshal(raw, &s) == nil && s == ""
	case isNumber(raw):
		d, err := decimal.NewFromString(string(raw))
		return err == nil && d.IsZero()
	}
	return false
}

func isNumber(raw []byte) bool {
	return len(raw) > 0 && (raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'))
}
