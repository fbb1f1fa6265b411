// Package redirect canonicalizes public URLs: host, scheme, case, trailing
// slash, locale prefix and legacy paths. All rules are folded into a single
// hop so crawlers never follow a redirect chain.
package redirect

import (
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"

	"asterias/services/i18n"
)

// DefaultLegacyPaths maps paths from the previous site onto current routes.
// Keys and values are locale-less.
var DefaultLegacyPaths = map[string]string{
	"/index.html": "/",
	"/rooms.html": "/rooms",
	"/apartments": "/rooms",
	"/contact-us": "/contact",
	"/specials":   "/offers",
	"/deals":      "/offers",
	"/photos":     "/gallery",
	"/booking":    "/book",
	"/reserve":    "/book",
	"/about-us":   "/about",
}

// DefaultExemptPrefixes are never rewritten.
var DefaultExemptPrefixes = []string{"/api/", "/admin/", "/static/"}

// DefaultExemptPaths are exact paths that are never rewritten.
var DefaultExemptPaths = []string{"/robots.txt", "/sitemap.xml", "/favicon.ico", "/healthz"}

// Options configures the rule set.
type Options struct {
	CanonicalHost  string
	AliasHosts     []string
	ForceHTTPS     bool
	Matcher        *i18n.Matcher
	LegacyPaths    map[string]string
	ExemptPrefixes []string
	ExemptPaths    []string
}

// Rules evaluates requests against the canonicalization rules. It is safe for
// concurrent use.
type Rules struct {
	canonicalHost string
	aliasHosts    map[string]bool
	forceHTTPS    bool
	matcher       *i18n.Matcher
	legacy        map[string]string
	exemptPrefix  []string
	exemptPath    map[string]bool
}

func New(opts Options) *Rules {
	r := &Rules{
		canonicalHost: strings.ToLower(opts.CanonicalHost),
		aliasHosts:    make(map[string]bool, len(opts.AliasHosts)),
		forceHTTPS:    opts.ForceHTTPS,
		matcher:       opts.Matcher,
		legacy:        opts.LegacyPaths,
		exemptPrefix:  opts.ExemptPrefixes,
		exemptPath:    make(map[string]bool),
	}
	for _, h := range opts.AliasHosts {
		h = strings.ToLower(h)
		if h != r.canonicalHost {
			r.aliasHosts[h] = true
		}
	}
	if r.canonicalHost != "" && !strings.HasPrefix(r.canonicalHost, "www.") {
		r.aliasHosts["www."+r.canonicalHost] = true
	}
	if r.legacy == nil {
		r.legacy = DefaultLegacyPaths
	}
	if r.exemptPrefix == nil {
		r.exemptPrefix = DefaultExemptPrefixes
	}
	paths := opts.ExemptPaths
	if paths == nil {
		paths = DefaultExemptPaths
	}
	for _, p := range paths {
		r.exemptPath[p] = true
	}
	return r
}

// Request is the part of an HTTP request the rules look at.
type Request struct {
	Scheme string
	Host   string
	// Path is decoded, as in url.URL.Path.
	Path           string
	RawQuery       string
	LocaleCookie   string
	AcceptLanguage string
}

// FromHTTP extracts a Request, honouring X-Forwarded-Proto and X-Forwarded-Host
// set by the fronting proxy.
func FromHTTP(req *http.Request, localeCookie string) Request {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	host := req.Host
	if fwd := req.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return Request{
		Scheme:         scheme,
		Host:           host,
		Path:           req.URL.Path,
		RawQuery:       req.URL.RawQuery,
		LocaleCookie:   localeCookie,
		AcceptLanguage: req.Header.Get("Accept-Language"),
	}
}

// Decision is the outcome of evaluating a Request.
type Decision struct {
	Redirect bool
	Location string
	Status   int
	// Locale is the locale of the (possibly rewritten) path; empty for exempt paths.
	Locale string
}

// Evaluate applies every rule and returns at most one redirect.
func (r *Rules) Evaluate(req Request) Decision {
	p := req.Path
	if p == "" {
		p = "/"
	}
	if r.exempt(p) {
		return Decision{}
	}

	permanent, temporary := false, false

	origScheme := req.Scheme
	if origScheme == "" {
		origScheme = "http"
	}
	scheme := origScheme
	if r.forceHTTPS && scheme == "http" {
		scheme = "https"
		permanent = true
	}

	host := req.Host
	hostname, port := splitHost(host)
	if r.aliasHosts[hostname] {
		host = r.canonicalHost
		if port != "" && !isDefaultPort(port) {
			host = net.JoinHostPort(r.canonicalHost, port)
		}
		permanent = true
	}

	if lower := strings.ToLower(p); lower != p {
		p = lower
		permanent = true
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
		permanent = true
	}

	// Case or slash fixes can reveal an exempt path such as /Admin/.
	if r.exempt(p) {
		if !permanent {
			return Decision{}
		}
		return r.decide(scheme, origScheme, host, req, p, "", false)
	}

	segments := splitPath(p)
	locale := ""
	if len(segments) > 0 {
		first := segments[0]
		if r.matcher.Supported(first) {
			locale = first
			segments = segments[1:]
		} else if canonical, ok := r.matcher.Alias(first); ok {
			locale = canonical
			segments = segments[1:]
			permanent = true
		}
	}

	rest := "/" + strings.Join(segments, "/")
	if target, ok := r.legacy[rest]; ok {
		rest = target
		permanent = true
	}

	if locale == "" {
		locale = r.matcher.Negotiate(req.LocaleCookie, req.AcceptLanguage)
		temporary = true
	}

	if !permanent && !temporary {
		return Decision{Locale: locale}
	}

	target := "/" + locale
	if rest != "/" {
		target += rest
	}
	return r.decide(scheme, origScheme, host, req, target, locale, temporary)
}

func (r *Rules) decide(scheme, origScheme, host string, req Request, target, locale string, temporary bool) Decision {
	// The target is a decoded path; an encoded ? or # must stay in the path.
	location := (&url.URL{Path: target}).EscapedPath()
	if scheme != origScheme || host != req.Host {
		location = scheme + "://" + host + target
	}
	if req.RawQuery != "" {
		location += "?" + req.RawQuery
	}

	status := http.StatusMovedPermanently
	if temporary {
		status = http.StatusTemporaryRedirect
	}
	return Decision{Redirect: true, Location: location, Status: status, Locale: locale}
}

func (r *Rules) exempt(p string) bool {
	if r.exemptPath[p] {
		return true
	}
	for _, prefix := range r.exemptPrefix {
		if strings.HasPrefix(p, prefix) || p == strings.TrimSuffix(prefix, "/") {
			return true
		}
	}
	// Static assets carry an extension; .html is a legacy page, not an asset.
	ext := strings.ToLower(path.Ext(p))
	return ext != "" && ext != ".html"
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func splitHost(host string) (string, string) {
	if h, port, err := net.SplitHostPort(host); err == nil {
		return strings.ToLower(h), port
	}
	return strings.ToLower(host), ""
}

func isDefaultPort(port string) bool {
	return port == "80" || port == "443"
}
