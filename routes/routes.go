package routes

import (
	"net/http"
	"strings"
	"time"

	"asterias/handlers"
	"asterias/middleware"
	"asterias/utils"
	"asterias/views"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSiteRoutes mounts the public pages below the locale prefix.
func RegisterSiteRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	s := hb.Site
	pages := map[string]gin.HandlerFunc{
		"/:locale":             s.Home(),
		"/:locale/rooms":       s.Rooms(),
		"/:locale/rooms/:room": s.Room,
		"/:locale/gallery":     s.Gallery(),
		"/:locale/offers":      s.Offers(),
		"/:locale/contact":     s.Contact(),
		"/:locale/about":       s.About(),
		"/:locale/book":        s.Book(),
	}
	for path, h := range pages {
		r.GET(path, h)
		r.HEAD(path, h)
	}
}

// RegisterSEORoutes serves crawler files, health and static assets.
func RegisterSEORoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/robots.txt", hb.SEO.Robots)
	r.GET("/sitemap.xml", hb.SEO.Sitemap)
	r.GET("/healthz", hb.Health.Healthz)
	r.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	static := r.Group("/static", func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=604800")
	})
	static.StaticFS("/", http.FS(views.Static()))
}

// RegisterBookingRoutes sets up the booking wizard and the payment webhook.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.Use(middleware.RateLimitMiddleware(hb.APILimiter))
		bookingGroup.POST("/quote", hb.Booking.Quote)
		bookingGroup.POST("/checkout", hb.Booking.Checkout)
		bookingGroup.POST("/confirm", hb.Booking.Confirm)
		bookingGroup.GET("/session/:id", hb.Booking.Session)
		bookingGroup.DELETE("/session/:id", hb.Booking.CancelSession)
	}
	// Stripe retries on its own schedule; it is never rate limited.
	r.POST("/api/webhooks/stripe", hb.Webhook.Stripe)
}

func RegisterContactRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/contact", middleware.RateLimitMiddleware(hb.FormLimiter), hb.Contact.Submit)
}

// RegisterProxyRoutes forwards /api/backend/* with the admin token attached.
func RegisterProxyRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Any("/api/backend/*path", middleware.RateLimitMiddleware(hb.APILimiter), gin.WrapH(hb.Proxy))
}

// RegisterAdminRoutes sets up the back-office pages and its JSON API.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	a := hb.Admin
	r.GET("/admin/login", a.LoginPage)
	r.POST("/admin/login", middleware.RateLimitMiddleware(hb.FormLimiter), a.Login)
	r.POST("/admin/logout", a.Logout)

	pages := r.Group("/admin")
	{
		pages.Use(middleware.AdminAuth(hb.Sealer, middleware.AdminHTML))
		pages.GET("", a.Dashboard)
		pages.GET("/bookings", a.Bookings)
		pages.GET("/bookings/:id", a.Booking)
		pages.GET("/rooms", a.Rooms)
		pages.GET("/offers", a.Offers)
		pages.GET("/guests", a.Guests)
	}

	api := r.Group("/api/admin")
	{
		api.Use(middleware.RateLimitMiddleware(hb.APILimiter), middleware.AdminAuth(hb.Sealer, middleware.AdminJSON))
		api.GET("/dashboard", a.APIDashboard)

		api.GET("/rooms", a.ListRooms)
		api.POST("/rooms", a.CreateRoom)
		api.PUT("/rooms/:id", a.UpdateRoom)
		api.DELETE("/rooms/:id", a.DeleteRoom)

		api.GET("/offers", a.ListOffers)
		api.POST("/offers", a.CreateOffer)
		api.PUT("/offers/:id", a.UpdateOffer)
		api.DELETE("/offers/:id", a.DeleteOffer)

		api.GET("/guests", a.ListGuests)
		api.GET("/guests/:id", a.GetGuest)
		api.POST("/guests", a.CreateGuest)
		api.PUT("/guests/:id", a.UpdateGuest)
		api.DELETE("/guests/:id", a.DeleteGuest)

		api.GET("/gallery", a.ListGallery)
		api.POST("/gallery", a.AddGalleryImage)
		api.DELETE("/gallery/:id", a.DeleteGalleryImage)

		api.GET("/bookings", a.ListBookings)
		api.GET("/bookings/:id", a.GetBooking)
		api.PATCH("/bookings/:id/status", a.UpdateBookingStatus)

		api.GET("/inquiries", a.ListInquiries)
		api.POST("/inquiries/:id/answered", a.AnswerInquiry)

		api.POST("/uploads", hb.Storage.UploadImageHandler)
		api.DELETE("/uploads", hb.Storage.DeleteImageHandler)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Stripe-Signature", utils.RequestIDKey},
		ExposeHeaders: []string{"Content-Length", utils.RequestIDKey},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Site paths are canonicalized by the redirect layer, not by gin.
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(
		middleware.RequestID(),
		utils.ErrorHandler(),
		middleware.RequestLogger(),
		cors.New(corsConfig(hb.AllowedOrigins)),
		middleware.Brotli(hb.BrotliLevel),
		middleware.Canonicalize(hb.Redirects),
	)

	RegisterSEORoutes(r, hb)
	RegisterSiteRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterContactRoutes(r, hb)
	RegisterProxyRoutes(r, hb)
	RegisterAdminRoutes(r, hb)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			utils.JSONError(c, http.StatusNotFound, "Not found", "")
			return
		}
		hb.Site.NotFound(c)
	})
}
