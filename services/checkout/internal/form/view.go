package form

import (
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/domain"
)

// Option is one entry of the currency selector.
type Option struct {
	Code     string
	Label    string
	Selected bool
}

// Feature is one entry of the feature list.
type Feature struct {
	Title       string
	Description string
}

// View is the localized presentation of the form.
type View struct {
	Language       string
	Title          string
	Subtitle       string
	FormTitle      string
	CurrencyLabel  string
	Options        []Option
	AmountLabel    string
	Amount         string
	CardLabel      string
	Button         string
	ButtonDisabled bool
	Message        *domain.Message
	FeaturesTitle  string
	Features       []Feature
}

// View renders the current state in the selected language.
func (f *Form) View() View {
	f.mu.Lock()
	preset, tr, processing := f.preset, f.tr, f.processing
	var msg *domain.Message
	if f.message != nil {
		m := *f.message
		msg = &m
	}
	f.mu.Unlock()

	presets := domain.Presets()
	options := make([]Option, 0, len(presets))
	for _, p := range presets {
		options = append(options, Option{
			Code:     p.Code,
			Label:    tr.T("currency."+p.Code) + " (" + p.Symbol + ")",
			Selected: p.Code == preset.Code,
		})
	}

	button := tr.T("payment.pay_now")
	if processing {
		button = tr.T("payment.processing")
	}

	return View{
		Language:       tr.Lang(),
		Title:          tr.T("app.title"),
		Subtitle:       tr.T("app.subtitle"),
		FormTitle:      tr.T("payment.title"),
		CurrencyLabel:  tr.T("payment.select_currency"),
		Options:        options,
		AmountLabel:    tr.T("payment.amount"),
		Amount:         preset.Display(),
		CardLabel:      tr.T("payment.card_details"),
		Button:         button,
		ButtonDisabled: processing || f.confirmer == nil,
		Message:        msg,
		FeaturesTitle:  tr.T("features.title"),
		Features: []Feature{
			{Title: tr.T("features.multi_currency"), Description: tr.T("features.multi_currency_desc")},
			{Title: tr.T("features.multi_language"), Description: tr.T("features.multi_language_desc")},
			{Title: tr.T("features.secure"), Description: tr.T("features.secure_desc")},
		},
	}
}
