package views

import (
	"strings"
	"time"

	"asterias/services/i18n"
)

// SiteMeta describes where the public site lives.
type SiteMeta struct {
	BaseURL string
	Locales []string // default locale first
	Bundle  *i18n.Bundle
}

// NewPage fills the layout fields of a public page. path is locale-less
// ("/rooms"), metaKey selects the meta.<key>.title/description translations.
func (m SiteMeta) NewPage(locale, path, metaKey string, data any) Page {
	loc := m.Bundle.For(locale)
	base := strings.TrimRight(m.BaseURL, "/")
	p := Page{
		Loc:         loc,
		Lang:        locale,
		Locales:     m.Locales,
		Path:        path,
		Title:       loc.T("meta." + metaKey + ".title"),
		Description: loc.T("meta." + metaKey + ".description"),
		Canonical:   base + LocalePath(locale, path),
		Year:        time.Now().Year(),
		Data:        data,
	}
	for _, l := range m.Locales {
		p.Alternates = append(p.Alternates, Alternate{Lang: l, URL: base + LocalePath(l, path)})
	}
	if len(m.Locales) > 0 {
		p.Alternates = append(p.Alternates, Alternate{Lang: "x-default", URL: base + LocalePath(m.Locales[0], path)})
	}
	return p
}
