package middleware

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"asterias/services/backend"
	"asterias/services/i18n"
	"asterias/services/redirect"
	"asterias/utils"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		trusted []string
		header  map[string]string
		remote  string
		want    string
	}{
		{"forwarded via trusted proxy", []string{"10.0.0.0/8"}, map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip via trusted proxy", []string{"10.0.0.0/8"}, map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"garbage header", []string{"10.0.0.0/8"}, map[string]string{"X-Forwarded-For": "<script>"}, "10.0.0.2:1234", "10.0.0.2"},
		{"untrusted sender", []string{"10.0.0.0/8"}, map[string]string{"X-Forwarded-For": "203.0.113.7"}, "192.0.2.9:1234", "192.0.2.9"},
		{"no proxies trusted", nil, map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "10.0.0.2"},
		{"remote", nil, nil, "192.0.2.1:5555", "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			require.NoError(t, r.SetTrustedProxies(tc.trusted))
			var got string
			r.GET("/", func(c *gin.Context) { got = ClientIP(c) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			r.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(2, time.Minute, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "buckets are per IP")

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("a"))

	now = now.Add(time.Hour)
	l.Allow("c")
	l.mu.Lock()
	assert.NotContains(t, l.limiters, "b", "idle limiters are swept")
	l.mu.Unlock()
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewRateLimiter(1, time.Hour, 1)))
	r.POST("/api/contact", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusAccepted, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestRateLimitIgnoresRotatedForwardedFor(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.Use(RateLimitMiddleware(NewRateLimiter(10, time.Hour, 3)))
	r.POST("/api/contact", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	accepted := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code == http.StatusAccepted {
			accepted++
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
	assert.Equal(t, 3, accepted)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, utils.RequestIDFromContext(c.Request.Context()))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rec.Header().Get(utils.RequestIDKey)
	assert.Len(t, id, 36)
	assert.Equal(t, id, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(utils.RequestIDKey, "upstream-1")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-1", rec.Body.String())
}

func TestCanonicalize(t *testing.T) {
	rules := redirect.New(redirect.Options{
		CanonicalHost: "asteriashomes.gr",
		AliasHosts:    []string{"www.asteriashomes.gr"},
		Matcher:       i18n.NewMatcher([]string{"en", "el", "de"}, i18n.DefaultAliases),
	})
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(Canonicalize(rules))
	page := func(c *gin.Context) { c.String(http.StatusOK, c.GetString(LocaleKey)) }
	r.GET("/:locale/*rest", page)
	r.POST("/:locale/*rest", page)

	req := httptest.NewRequest(http.MethodGet, "http://www.asteriashomes.gr/GR/Apartments/?x=1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "http://asteriashomes.gr/el/rooms?x=1", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "http://asteriashomes.gr/rooms", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/de/rooms", rec.Header().Get("Location"))
	assert.Equal(t, "Cookie, Accept-Language", rec.Header().Get("Vary"))

	req = httptest.NewRequest(http.MethodGet, "http://asteriashomes.gr/el/offers", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "el", rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "http://asteriashomes.gr/EL/offers/", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "non-GET requests are never redirected")
}

func TestBrotli(t *testing.T) {
	r := gin.New()
	r.Use(Brotli(5))
	r.GET("/page", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<h1>Καλώς ήρθατε</h1>"))
	})
	r.GET("/proxied", func(c *gin.Context) {
		c.Header("Content-Encoding", "br")
		c.Data(http.StatusOK, "application/json", []byte{0x0b, 0x01, 0x80})
	})
	r.GET("/image", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/png", []byte("\x89PNG"))
	})

	get := func(path, accept string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", accept)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/page", "gzip, br")
	require.Equal(t, "br", rec.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(rec.Body))
	require.NoError(t, err)
	assert.Equal(t, "<h1>Καλώς ήρθατε</h1>", string(plain))

	rec = get("/page", "gzip")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "<h1>Καλώς ήρθατε</h1>", rec.Body.String())

	rec = get("/page", "br;q=0")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))

	rec = get("/proxied", "br")
	assert.Equal(t, []byte{0x0b, 0x01, 0x80}, rec.Body.Bytes())

	rec = get("/image", "br")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func adminToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin-1", "role": "admin", "exp": exp.Unix(),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return tok
}

func TestAdminAuth(t *testing.T) {
	sealer, err := utils.NewSessionSealer("test-secret")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin/bookings", AdminAuth(sealer, AdminHTML), func(c *gin.Context) {
		c.String(http.StatusOK, backend.TokenFrom(c.Request.Context()))
	})
	r.GET("/api/admin/rooms", AdminAuth(sealer, AdminJSON), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	withCookie := func(req *http.Request, token string) *http.Request {
		sealed, err := sealer.Seal(token)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: sealed})
		return req
	}

	t.Run("valid session", func(t *testing.T) {
		tok := adminToken(t, time.Now().Add(time.Hour))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, withCookie(httptest.NewRequest(http.MethodGet, "/admin/bookings", nil), tok))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tok, rec.Body.String())
	})

	t.Run("missing cookie redirects html", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/bookings?status=pending", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/login?next=%2Fadmin%2Fbookings%3Fstatus%3Dpending", rec.Header().Get("Location"))
	})

	t.Run("expired token is 401 for json", func(t *testing.T) {
		tok := adminToken(t, time.Now().Add(-time.Minute))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, withCookie(httptest.NewRequest(http.MethodGet, "/api/admin/rooms", nil), tok))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), utils.SessionCookieName+"=;")
	})

	t.Run("tampered cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/rooms", nil)
		req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: "forged"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("session token source", func(t *testing.T) {
		src := SessionToken(sealer)
		tok := adminToken(t, time.Now().Add(time.Hour))
		assert.Equal(t, tok, src(withCookie(httptest.NewRequest(http.MethodGet, "/", nil), tok)))
		assert.Empty(t, src(httptest.NewRequest(http.MethodGet, "/", nil)))
	})
}

func TestSessionCookieNeverBecomesBrowserSession(t *testing.T) {
	sealer, err := utils.NewSessionSealer("test-secret")
	require.NoError(t, err)

	for _, age := range []time.Duration{300 * time.Millisecond, 0, -time.Second} {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		require.NoError(t, SetSessionCookie(c, sealer, "token", age, true))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, 1, cookies[0].MaxAge, age.String())
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	require.NoError(t, SetSessionCookie(c, sealer, "token", 2*time.Hour, true))
	assert.Equal(t, 7200, rec.Result().Cookies()[0].MaxAge)
}
