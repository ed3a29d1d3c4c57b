package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/domain"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/form"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/intentclient"
)

func renderForm(w io.Writer, v form.View) {
	fmt.Fprintf(w, "%s\n%s\n\n", v.Title, v.Subtitle)
	fmt.Fprintf(w, "%s\n", v.FeaturesTitle)
	for _, f := range v.Features {
		fmt.Fprintf(w, "  - %s: %s\n", f.Title, f.Description)
	}

	fmt.Fprintf(w, "\n%s\n%s:\n", v.FormTitle, v.CurrencyLabel)
	for _, o := range v.Options {
		mark := " "
		if o.Selected {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %s [%s]\n", mark, o.Label, o.Code)
	}
	fmt.Fprintf(w, "%s: %s\n", v.AmountLabel, v.Amount)
	fmt.Fprintf(w, "[ %s ]\n", v.Button)
}

func renderResult(w io.Writer, res *form.Result) {
	prefix := "[failed]"
	if res.Message.Kind == domain.MessageSuccess {
		prefix = "[ok]"
	}
	fmt.Fprintf(w, "\n%s %s\n", prefix, res.Message.Text)
	if res.PaymentIntentID != "" {
		fmt.Fprintf(w, "  payment_intent_id=%s status=%s\n", res.PaymentIntentID, res.Status)
	}
}

func renderHealth(w io.Writer, h *intentclient.HealthStatus, err error) {
	if h == nil {
		fmt.Fprintf(w, "intent service: unreachable (%v)\n", err)
		return
	}
	line := fmt.Sprintf("intent service: %s, %s", h.Status, h.Message)
	if h.Environment != "" {
		line += " (" + h.Environment + ")"
	}
	if h.Error != "" {
		line += ": " + h.Error
	}
	fmt.Fprintln(w, line)
}

func renderCurrencies(w io.Writer, currencies []intentclient.Currency) {
	fmt.Fprintf(w, "%d currencies\n", len(currencies))
	for _, c := range currencies {
		fmt.Fprintf(w, "  %s  %-3s %s\n", strings.ToUpper(c.Code), c.Symbol, c.Name)
	}
}
