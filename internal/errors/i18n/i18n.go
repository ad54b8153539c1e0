// Package i18n resolves user-facing error messages per locale.
//
// Catalogs are keyed by the string form of the codes defined in
// internal/errors/codes.go. They are duplicated as strings here to avoid an
// import cycle.
package i18n

import (
	"strings"
	"text/template"

	"golang.org/x/text/language"
)

// Code mirrors errors.Code for catalog keys.
type Code = string

// Catalog stores user-facing messages for one locale.
type Catalog struct {
	locale   string
	tag      language.Tag
	messages map[Code]string
}

// Locale returns the catalog's BCP 47 locale string.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message for code, expanding {{.Key}} metadata references.
// Unknown codes fall back to a generic message so callers never render an
// empty body.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	msg, ok := c.messages[code]
	if !ok {
		msg = c.messages[codeUnknown]
	}
	if !strings.Contains(msg, "{{") {
		return msg
	}
	tmpl, err := template.New(code).Parse(msg)
	if err != nil {
		return msg
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, metadata); err != nil {
		return msg
	}
	return sb.String()
}

var catalogs = []*Catalog{enUSCatalog, ruRUCatalog}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(catalogs))
	for i, c := range catalogs {
		c.tag = language.MustParse(c.locale)
		tags = append(tags, catalogs[i].tag)
	}
	return language.NewMatcher(tags)
}()

// GetCatalog returns the best catalog for the requested locale, defaulting to
// en-US for empty or unrecognized values.
func GetCatalog(locale string) *Catalog {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return enUSCatalog
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return enUSCatalog
	}
	_, index, _ := matcher.Match(tag)
	if index < 0 || index >= len(catalogs) {
		return enUSCatalog
	}
	return catalogs[index]
}

// MatchAcceptLanguage picks the best catalog for an Accept-Language header.
func MatchAcceptLanguage(header string) *Catalog {
	header = strings.TrimSpace(header)
	if header == "" {
		return enUSCatalog
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return enUSCatalog
	}
	_, index, _ := matcher.Match(tags...)
	if index < 0 || index >= len(catalogs) {
		return enUSCatalog
	}
	return catalogs[index]
}
