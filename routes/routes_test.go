package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"asterias/handlers"
	"asterias/middleware"
	"asterias/models"
	"asterias/services/i18n"
	"asterias/services/payment"
	"asterias/services/redirect"
	"asterias/services/sitemap"
	"asterias/utils"
	"asterias/views"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBackend struct {
	handlers.AdminBackend
}

func (stubBackend) ListRooms(context.Context) ([]models.Room, error) {
	return []models.Room{{ID: "r1", Slug: "studio", Name: models.LocalizedText{"en": "Studio"}, Active: true}}, nil
}
func (stubBackend) GetRoom(context.Context, string) (*models.Room, error) {
	return &models.Room{ID: "r1", Slug: "studio", Active: true}, nil
}
func (stubBackend) ListOffers(context.Context) ([]models.Offer, error)          { return nil, nil }
func (stubBackend) ListGallery(context.Context) ([]models.GalleryImage, error) { return nil, nil }

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	renderer, err := views.New("en", false)
	require.NoError(t, err)
	bundle, err := i18n.LoadBundle("en")
	require.NoError(t, err)
	sealer, err := utils.NewSessionSealer("routes-test")
	require.NoError(t, err)

	locales := []string{"en", "el", "de"}
	b := stubBackend{}
	meta := views.SiteMeta{BaseURL: "https://asteriashomes.gr", Locales: locales, Bundle: bundle}
	hb := &handlers.HandlerBundle{
		Site:    handlers.NewSiteHandler(b, renderer, meta, handlers.SiteConfig{MinNights: 2}),
		Booking: handlers.NewBookingHandler(nil),
		Webhook: handlers.NewWebhookHandler(payment.NewStripeGateway("whsec_test"), nil, nil),
		Contact: handlers.NewContactHandler(nil),
		Admin:   handlers.NewAdminHandler(b, nil, nil, renderer, sealer, false),
		Storage: handlers.NewStorageHandler(nil),
		SEO:     handlers.NewSEOHandler(sitemap.NewGenerator("https://asteriashomes.gr", locales, b), "https://asteriashomes.gr"),
		Health:  handlers.NewHealthHandler(utils.NewHealthMonitor(nil, time.Minute)),
		Proxy: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Proxied", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}),
		Redirects: redirect.New(redirect.Options{
			CanonicalHost: "asteriashomes.gr",
			AliasHosts:    []string{"www.asteriashomes.gr"},
			Matcher:       i18n.NewMatcher(locales, i18n.DefaultAliases),
		}),
		Sealer:      sealer,
		APILimiter:  middleware.NewRateLimiter(1000, time.Minute, 100),
		FormLimiter: middleware.NewRateLimiter(1000, time.Minute, 100),
		BrotliLevel: 5,
	}
	r := gin.New()
	RegisterRoutes(r, hb)
	return r
}

func do(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPublicPages(t *testing.T) {
	r := newRouter(t)

	for _, p := range []string{"/en", "/el/rooms", "/de/rooms/studio", "/en/gallery", "/en/offers", "/en/contact", "/en/about", "/en/book"} {
		rec := do(r, http.MethodGet, "http://asteriashomes.gr"+p)
		assert.Equal(t, http.StatusOK, rec.Code, p)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", p)
		assert.NotEmpty(t, rec.Header().Get(utils.RequestIDKey), p)
	}
	assert.Equal(t, http.StatusOK, do(r, http.MethodHead, "http://asteriashomes.gr/en/rooms").Code)
}

func TestCanonicalRedirectsRunBeforeRouting(t *testing.T) {
	r := newRouter(t)

	rec := do(r, http.MethodGet, "http://www.asteriashomes.gr/EN/Rooms/")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "http://asteriashomes.gr/en/rooms", rec.Header().Get("Location"))

	rec = do(r, http.MethodGet, "http://asteriashomes.gr/")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/en", rec.Header().Get("Location"))
}

func TestNotFound(t *testing.T) {
	r := newRouter(t)

	rec := do(r, http.MethodGet, "http://asteriashomes.gr/api/nothing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Not found", body["message"])

	rec = do(r, http.MethodGet, "http://asteriashomes.gr/el/nowhere/at/all")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `<html lang="el">`)
}

func TestSEOAndStatic(t *testing.T) {
	r := newRouter(t)

	rec := do(r, http.MethodGet, "http://asteriashomes.gr/robots.txt")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Disallow: /admin")

	rec = do(r, http.MethodGet, "http://asteriashomes.gr/sitemap.xml")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/de/rooms/studio")

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "http://asteriashomes.gr/healthz").Code)

	rec = do(r, http.MethodGet, "http://asteriashomes.gr/static/css/site.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=604800", rec.Header().Get("Cache-Control"))
}

func TestAdminRequiresSession(t *testing.T) {
	r := newRouter(t)

	rec := do(r, http.MethodGet, "http://asteriashomes.gr/admin/bookings")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login?next=%2Fadmin%2Fbookings", rec.Header().Get("Location"))

	rec = do(r, http.MethodGet, "http://asteriashomes.gr/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "http://asteriashomes.gr/admin/login").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "http://asteriashomes.gr/api/admin/dashboard").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "http://asteriashomes.gr/api/admin/uploads").Code)
}

func TestWebhookAndProxyAreMounted(t *testing.T) {
	r := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "http://asteriashomes.gr/api/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "http://asteriashomes.gr/api/backend/rooms?limit=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/backend/rooms", rec.Header().Get("X-Proxied"))
}

func TestCORSConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"https://a.gr", "*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"https://asteriashomes.gr"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, []string{"https://asteriashomes.gr"}, cfg.AllowOrigins)
}
