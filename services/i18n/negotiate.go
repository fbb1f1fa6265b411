package i18n

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultAliases maps region-qualified or legacy language codes onto the
// site's canonical locale codes.
var DefaultAliases = map[string]string{
	"gr":    "el",
	"el-gr": "el",
	"en-us": "en",
	"en-gb": "en",
	"de-de": "de",
	"de-at": "de",
	"de-ch": "de",
}

// Matcher resolves arbitrary language tags to a supported locale.
type Matcher struct {
	supported map[string]bool
	aliases   map[string]string
	fallback  string
}

// NewMatcher builds a Matcher. The first locale is the fallback.
func NewMatcher(locales []string, aliases map[string]string) *Matcher {
	m := &Matcher{supported: make(map[string]bool, len(locales)), aliases: aliases}
	for i, l := range locales {
		l = strings.ToLower(l)
		if i == 0 {
			m.fallback = l
		}
		m.supported[l] = true
	}
	return m
}

// Default returns the fallback locale.
func (m *Matcher) Default() string { return m.fallback }

// Supported reports whether tag is one of the site's locales as written.
func (m *Matcher) Supported(tag string) bool { return m.supported[tag] }

// Alias returns the canonical locale for an alias tag.
func (m *Matcher) Alias(tag string) (string, bool) {
	canonical, ok := m.aliases[strings.ToLower(tag)]
	if !ok || !m.supported[canonical] {
		return "", false
	}
	return canonical, true
}

// Match maps a single tag to a supported locale: exact, alias, then base language.
func (m *Matcher) Match(tag string) (string, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.ReplaceAll(tag, "_", "-")
	if tag == "" {
		return "", false
	}
	if m.supported[tag] {
		return tag, true
	}
	if canonical, ok := m.Alias(tag); ok {
		return canonical, true
	}
	if base, _, found := strings.Cut(tag, "-"); found && m.supported[base] {
		return base, true
	}
	return "", false
}

type weightedTag struct {
	tag string
	q   float64
	pos int
}

// Negotiate picks the visitor's locale from an explicit preference (cookie),
// then the Accept-Language header, then the fallback.
func (m *Matcher) Negotiate(preferred, acceptLanguage string) string {
	if l, ok := m.Match(preferred); ok {
		return l
	}
	for _, wt := range parseAcceptLanguage(acceptLanguage) {
		if wt.tag == "*" {
			break
		}
		if l, ok := m.Match(wt.tag); ok {
			return l
		}
	}
	return m.fallback
}

func parseAcceptLanguage(header string) []weightedTag {
	var tags []weightedTag
	for i, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tag, params, _ := strings.Cut(part, ";")
		q := 1.0
		for _, p := range strings.Split(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.TrimSpace(k) == "q" {
				parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil {
					parsed = 0
				}
				q = parsed
			}
		}
		if q <= 0 {
			continue
		}
		tags = append(tags, weightedTag{tag: strings.TrimSpace(tag), q: q, pos: i})
	}
	sort.SliceStable(tags, func(a, b int) bool { return tags[a].q > tags[b].q })
	return tags
}
