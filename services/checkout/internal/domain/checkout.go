package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jiaorenyu/stripe-demo/pkg/money"
)

// Form status constants.
const (
	StatusIdle           = "idle"
	StatusSubmitting     = "submitting"
	StatusSucceeded      = "succeeded"
	StatusFailed         = "failed"
	StatusRequiresAction = "requires_action"
)

// Preset is a currency offered by the form at a fixed price.
type Preset struct {
	Code   string
	Symbol string
	Price  decimal.Decimal
}

var presets = []Preset{
	{Code: "usd", Symbol: "$", Price: decimal.RequireFromString("29.99")},
	{Code: "eur", Symbol: "€", Price: decimal.RequireFromString("27.99")},
	{Code: "cny", Symbol: "¥", Price: decimal.RequireFromString("199.99")},
	{Code: "jpy", Symbol: "¥", Price: decimal.RequireFromString("3999")},
	{Code: "gbp", Symbol: "£", Price: decimal.RequireFromString("24.99")},
}

// Presets returns the offered currencies in display order. The first is the default.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// FindPreset returns the preset for code.
func FindPreset(code string) (Preset, error) {
	for _, p := range presets {
		if p.Code == code {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unsupported currency %q", code)
}

// AmountMinor is the price in the smallest currency unit: round(price × 100)
// for every currency, JPY included.
func (p Preset) AmountMinor() int64 {
	amount, err := money.ToMinorUnits(p.Price)
	if err != nil {
		// Preset prices are small constants.
		panic(fmt.Sprintf("preset %s: %v", p.Code, err))
	}
	return amount
}

// Display renders the price as symbol plus two decimals, e.g. "¥3999.00".
func (p Preset) Display() string {
	return money.Format(p.Symbol, p.Price)
}

// MessageKind distinguishes success from error messages.
type MessageKind string

// Message kinds.
const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is the user-facing result of a submission.
type Message struct {
	Kind MessageKind
	Text string
}
