// Package locales embeds the checkout form's message catalogs.
package locales

import (
	"embed"

	"golang.org/x/text/language"

	"github.com/jiaorenyu/stripe-demo/pkg/i18n"
)

//go:embed *.toml
var files embed.FS

// Load returns the catalog for en, zh, es and fr with English as fallback.
func Load() (*i18n.Catalog, error) {
	return i18n.Load(files, ".", language.English)
}
