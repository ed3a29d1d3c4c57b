// Package i18n loads TOML message catalogs and resolves messages for the
// closest supported language.
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// Catalog is an immutable set of translations plus a language matcher.
// It is safe for concurrent use.
type Catalog struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
	tags    []language.Tag
}

// Load reads every *.toml file in dir of fsys. File names carry the
// language, e.g. "active.fr.toml". fallback is used when nothing matches.
func Load(fsys fs.FS, dir string, fallback language.Tag) (*Catalog, error) {
	bundle := i18n.NewBundle(fallback)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(fsys, path.Join(dir, "*.toml"))
	if err != nil {
		return nil, fmt.Errorf("list message files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no message files in %q", dir)
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(fsys, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	tags := bundle.LanguageTags()
	return &Catalog{
		bundle:  bundle,
		matcher: language.NewMatcher(tags),
		tags:    tags,
	}, nil
}

// Languages returns the supported base language codes, fallback first.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.tags))
	for _, t := range c.tags {
		out = append(out, baseOf(t))
	}
	return out
}

// Match returns the supported language closest to the requested one.
// Unparseable or unsupported input yields the fallback.
func (c *Catalog) Match(requested string) string {
	tag, err := language.Parse(requested)
	if err != nil {
		return baseOf(c.tags[0])
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return baseOf(c.tags[0])
	}
	return baseOf(c.tags[idx])
}

// Translator returns a Translator for the closest supported language.
func (c *Catalog) Translator(requested string) *Translator {
	lang := c.Match(requested)
	return &Translator{
		lang:      lang,
		localizer: i18n.NewLocalizer(c.bundle, lang),
	}
}

// Translator resolves message ids in one language.
type Translator struct {
	lang      string
	localizer *i18n.Localizer
}

// Lang is the resolved language code.
func (t *Translator) Lang() string { return t.lang }

// T returns the message for id, falling back to the default language and
// finally to the id itself.
func (t *Translator) T(id string) string {
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
	if msg == "" {
		return id
	}
	// A message missing from the requested language comes back in the
	// fallback language alongside MessageNotFoundErr.
	var notFound *i18n.MessageNotFoundErr
	if err != nil && !errors.As(err, &notFound) {
		return id
	}
	return msg
}

func baseOf(t language.Tag) string {
	b, _ := t.Base()
	return b.String()
}
