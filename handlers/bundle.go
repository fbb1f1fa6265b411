package handlers

import (
	"net/http"

	"asterias/middleware"
	"asterias/services/redirect"
	"asterias/utils"
)

// HandlerBundle groups every endpoint handler and the shared pieces the
// router needs to mount them.
type HandlerBundle struct {
	Site    *SiteHandler
	Booking *BookingHandler
	Webhook *WebhookHandler
	Contact *ContactHandler
	Admin   *AdminHandler
	Storage *StorageHandler
	SEO     *SEOHandler
	Health  *HealthHandler

	// Proxy forwards /api/backend/* to the backend.
	Proxy http.Handler

	Redirects      *redirect.Rules
	Sealer         *utils.SessionSealer
	APILimiter     *middleware.RateLimiter
	FormLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	BrotliLevel    int
}
