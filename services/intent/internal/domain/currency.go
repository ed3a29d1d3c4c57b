package domain

// Currency is an entry in the fixed list of supported currencies.
type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

var supportedCurrencies = []Currency{
	{Code: "usd", Name: "US Dollar", Symbol: "$"},
	{Code: "eur", Name: "Euro", Symbol: "€"},
	{Code: "cny", Name: "Chinese Yuan", Symbol: "¥"},
	{Code: "jpy", Name: "Japanese Yen", Symbol: "¥"},
	{Code: "gbp", Name: "British Pound", Symbol: "£"},
}

// SupportedCurrencies returns a copy of the supported currency list in display order.
func SupportedCurrencies() []Currency {
	out := make([]Currency, len(supportedCurrencies))
	copy(out, supportedCurrencies)
	return out
}

// IsSupportedCurrency reports whether code is in the supported list.
// The create endpoint does not enforce this; the provider decides.
func IsSupportedCurrency(code string) bool {
	for _, c := range supportedCurrencies {
		if c.Code == code {
			return true
		}
	}
	return false
}
