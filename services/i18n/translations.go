package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Bundle holds flattened translations per locale.
type Bundle struct {
	fallback string
	messages map[string]map[string]string
}

// LoadBundle reads every embedded locales/<code>.yaml file.
func LoadBundle(fallback string) (*Bundle, error) {
	return LoadBundleFS(localeFS, "locales", fallback)
}

// LoadBundleFS reads <dir>/<code>.yaml files from fsys.
func LoadBundleFS(fsys fs.FS, dir, fallback string) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: reading %s: %w", dir, err)
	}
	b := &Bundle{fallback: fallback, messages: make(map[string]map[string]string)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("i18n: reading %s: %w", e.Name(), err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("i18n: parsing %s: %w", e.Name(), err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		b.messages[strings.TrimSuffix(e.Name(), ".yaml")] = flat
	}
	if _, ok := b.messages[fallback]; !ok {
		return nil, fmt.Errorf("i18n: fallback locale %q has no translations", fallback)
	}
	return b, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Locales lists the locales that have translations.
func (b *Bundle) Locales() []string {
	out := make([]string, 0, len(b.messages))
	for l := range b.messages {
		out = append(out, l)
	}
	return out
}

// Fallback is the locale used when a key or locale is missing.
func (b *Bundle) Fallback() string { return b.fallback }

// Translate looks key up in locale, then the fallback locale, then returns the key.
func (b *Bundle) Translate(locale, key string) string {
	if msg, ok := b.messages[locale][key]; ok {
		return msg
	}
	if msg, ok := b.messages[b.fallback][key]; ok {
		return msg
	}
	return key
}

// For returns a Localizer bound to locale.
func (b *Bundle) For(locale string) Localizer {
	return Localizer{Locale: locale, bundle: b}
}

// Localizer translates keys for a single locale.
type Localizer struct {
	Locale string
	bundle *Bundle
}

// T translates key. Extra args are applied with fmt.Sprintf.
func (l Localizer) T(key string, args ...any) string {
	if l.bundle == nil {
		return key
	}
	msg := l.bundle.Translate(l.Locale, key)
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
