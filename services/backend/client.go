package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"asterias/services/apicache"
	"asterias/utils"

	"go.uber.org/zap"
)

type tokenKey struct{}

// WithToken attaches the admin bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the token set by WithToken.
func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

// Client talks JSON to the backend REST API. GETs go through the cache
// when one is configured; mutations invalidate it.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *apicache.Cache
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, cache *apicache.Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.L()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		logger:  logger.Named("backend"),
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	load := func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodGet, path, query, nil, nil)
	}
	var (
		body []byte
		err  error
	)
	if c.cache != nil {
		body, err = c.cache.Do(ctx, apicache.NewKey(http.MethodGet, path, query, TokenFrom(ctx)), load)
	} else {
		body, err = load(ctx)
	}
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any, header http.Header) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("backend: encoding %s %s: %w", method, path, err)
		}
	}
	body, err := c.do(ctx, method, path, nil, payload, header)
	if err != nil {
		return err
	}
	c.Invalidate(ctx, path)
	if out == nil || len(body) == 0 {
		return nil
	}
	return decode(body, out)
}

// Invalidate drops cached GETs affected by a mutation of path.
func (c *Client) Invalidate(ctx context.Context, path string) {
	if c.cache == nil {
		return
	}
	for _, prefix := range InvalidationPrefixes(path) {
		c.cache.Invalidate(ctx, prefix)
	}
}

// InvalidationPrefixes maps a mutated path to the cached resources it can
// change: the resource collection itself, plus availability and dashboard
// figures for anything touching bookings or rooms.
func InvalidationPrefixes(path string) []string {
	rest := strings.TrimPrefix(path, "/api/")
	if rest == path || rest == "" {
		return nil
	}
	resource, _, _ := strings.Cut(rest, "/")
	out := []string{"/api/" + resource}
	switch resource {
	case "bookings", "rooms", "offers":
		out = append(out, "/api/availability", "/api/admin/dashboard")
	case "guests":
		out = append(out, "/api/admin/dashboard")
	}
	return out
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte, header http.Header) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("backend: building %s %s: %w", method, path, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := utils.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(utils.RequestIDKey, id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("backend: reading %s %s: %w", method, path, err)
	}
	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// decode unwraps an optional {"data": ...} envelope before unmarshalling.
func decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if json.Unmarshal(trimmed, &env) == nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			trimmed = env.Data
		}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("backend: decoding response: %w", err)
	}
	return nil
}

// Ping reports whether the backend answers at all. Any status below 500
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/rooms?limit=1", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}
