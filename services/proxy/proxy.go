package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"asterias/utils"

	"go.uber.org/zap"
)

// TokenSource extracts the backend bearer token for a browser request.
// It returns "" for anonymous requests.
type TokenSource func(r *http.Request) string

// Invalidator drops cached backend GETs after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, path string)
}

type Options struct {
	Target      string // backend root, e.g. http://localhost:5000
	MountPrefix string // local prefix, e.g. /api/backend
	Tokens      TokenSource
	Invalidator Invalidator
	Logger      *zap.Logger
}

// Proxy forwards MountPrefix/* to <Target>/api/*.
type Proxy struct {
	mount       string
	tokens      TokenSource
	invalidator Invalidator
	logger      *zap.Logger
	rp          *httputil.ReverseProxy
}

func New(opts Options) (*Proxy, error) {
	target, err := url.Parse(strings.TrimRight(opts.Target, "/"))
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("proxy: invalid backend URL %q", opts.Target)
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	p := &Proxy{
		mount:       strings.TrimRight(opts.MountPrefix, "/"),
		tokens:      opts.Tokens,
		invalidator: opts.Invalidator,
		logger:      opts.Logger.Named("proxy"),
	}
	p.rp = &httputil.ReverseProxy{
		Rewrite:        func(pr *httputil.ProxyRequest) { p.rewrite(pr, target) },
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.errorHandler,
	}
	return p, nil
}

// UpstreamPath maps a local path to the backend path.
func (p *Proxy) UpstreamPath(local string) string {
	rest := strings.TrimPrefix(local, p.mount)
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return "/api" + rest
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest, target *url.URL) {
	pr.Out.URL.Path = p.UpstreamPath(pr.In.URL.Path)
	pr.Out.URL.RawPath = ""
	pr.SetURL(target)
	pr.SetXForwarded()

	// Browser cookies stay here; the backend only ever sees the bearer token.
	pr.Out.Header.Del("Cookie")
	pr.Out.Header.Del("Authorization")
	if p.tokens != nil {
		if token := p.tokens(pr.In); token != "" {
			pr.Out.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if id := pr.In.Header.Get(utils.RequestIDKey); id != "" {
		pr.Out.Header.Set(utils.RequestIDKey, id)
	} else if id := utils.RequestIDFromContext(pr.In.Context()); id != "" {
		pr.Out.Header.Set(utils.RequestIDKey, id)
	}
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	req := resp.Request
	if p.invalidator == nil || req == nil || !isMutation(req.Method) {
		return nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.invalidator.Invalidate(req.Context(), req.URL.Path)
	}
	return nil
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("backend unavailable",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("requestID", r.Header.Get(utils.RequestIDKey)),
		zap.Error(err),
	)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Backend unavailable"})
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
