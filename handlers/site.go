package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"asterias/middleware"
	"asterias/models"
	"asterias/services/backend"
	"asterias/utils"
	"asterias/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SiteBackend is the read-only slice of the backend the public pages use.
type SiteBackend interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListOffers(ctx context.Context) ([]models.Offer, error)
	ListGallery(ctx context.Context) ([]models.GalleryImage, error)
}

// SiteConfig carries the settings the public pages need besides content.
type SiteConfig struct {
	PublishableKey string
	MinNights      int
	SecureCookies  bool
	Location       *time.Location
}

type SiteHandler struct {
	backend  SiteBackend
	renderer *views.Renderer
	meta     views.SiteMeta
	cfg      SiteConfig
	now      func() time.Time
}

func NewSiteHandler(b SiteBackend, renderer *views.Renderer, meta views.SiteMeta, cfg SiteConfig) *SiteHandler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &SiteHandler{backend: b, renderer: renderer, meta: meta, cfg: cfg, now: time.Now}
}

// locale returns the page locale, or false when the prefix is not a site locale.
func (h *SiteHandler) locale(c *gin.Context) (string, bool) {
	l := c.GetString(middleware.LocaleKey)
	if l == "" {
		l = c.Param("locale")
	}
	for _, supported := range h.meta.Locales {
		if l == supported {
			return l, true
		}
	}
	return "", false
}

func (h *SiteHandler) render(c *gin.Context, status int, name, locale string, p views.Page) {
	var buf bytes.Buffer
	if err := h.renderer.Site(&buf, name, p); err != nil {
		utils.LoggerFrom(c).Error("Failed to render page", zap.String("page", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.LocaleCookieName, locale, int(utils.LocaleCookieTTL.Seconds()), "/", "", h.cfg.SecureCookies, false)
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// page renders a static-content page at a locale-less path.
func (h *SiteHandler) page(name, path, metaKey string, data func(c *gin.Context) gin.H) gin.HandlerFunc {
	return func(c *gin.Context) {
		locale, ok := h.locale(c)
		if !ok {
			h.NotFound(c)
			return
		}
		var d gin.H
		if data != nil {
			d = data(c)
		}
		h.render(c, http.StatusOK, name, locale, h.meta.NewPage(locale, path, metaKey, d))
	}
}

func (h *SiteHandler) Home() gin.HandlerFunc {
	return h.page("home", "/", "home", func(c *gin.Context) gin.H {
		return gin.H{"Rooms": h.activeRooms(c), "Offers": h.currentOffers(c)}
	})
}

func (h *SiteHandler) Rooms() gin.HandlerFunc {
	return h.page("rooms", "/rooms", "rooms", func(c *gin.Context) gin.H {
		return gin.H{"Rooms": h.activeRooms(c)}
	})
}

func (h *SiteHandler) Gallery() gin.HandlerFunc {
	return h.page("gallery", "/gallery", "gallery", func(c *gin.Context) gin.H {
		images, err := h.backend.ListGallery(c.Request.Context())
		if err != nil {
			utils.LoggerFrom(c).Warn("Gallery unavailable", zap.Error(err))
		}
		return gin.H{"Images": images}
	})
}

func (h *SiteHandler) Offers() gin.HandlerFunc {
	return h.page("offers", "/offers", "offers", func(c *gin.Context) gin.H {
		return gin.H{"Offers": h.currentOffers(c)}
	})
}

func (h *SiteHandler) Contact() gin.HandlerFunc { return h.page("contact", "/contact", "contact", nil) }

func (h *SiteHandler) About() gin.HandlerFunc { return h.page("about", "/about", "about", nil) }

func (h *SiteHandler) Book() gin.HandlerFunc {
	return h.page("book", "/book", "book", func(c *gin.Context) gin.H {
		return gin.H{
			"Rooms":          h.activeRooms(c),
			"RoomID":         c.Query("roomId"),
			"OfferID":        c.Query("offerId"),
			"PublishableKey": h.cfg.PublishableKey,
			"MinNights":      h.cfg.MinNights,
		}
	})
}

// Room renders a room detail page addressed by slug or by backend ID. Paths
// reach here lower-cased, so both are matched case-insensitively.
func (h *SiteHandler) Room(c *gin.Context) {
	locale, ok := h.locale(c)
	if !ok {
		h.NotFound(c)
		return
	}
	room, err := h.findRoom(c.Request.Context(), c.Param("room"))
	if err != nil {
		if !backend.IsNotFound(err) {
			utils.LoggerFrom(c).Error("Failed to load room", zap.String("room", c.Param("room")), zap.Error(err))
		}
		h.NotFound(c)
		return
	}
	p := h.meta.NewPage(locale, "/rooms/"+room.PathKey(), "rooms", gin.H{"Room": room})
	if name := room.Name.In(locale, h.meta.Locales[0]); name != "" {
		p.Title = name + " | " + p.Title
	}
	h.render(c, http.StatusOK, "room", locale, p)
}

func (h *SiteHandler) findRoom(ctx context.Context, key string) (*models.Room, error) {
	rooms, err := h.backend.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		r := rooms[i]
		if r.Active && (strings.EqualFold(r.Slug, key) || strings.EqualFold(r.ID, key)) {
			return &rooms[i], nil
		}
	}
	room, err := h.backend.GetRoom(ctx, key)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, &backend.APIError{Status: http.StatusNotFound, Message: "room is not listed"}
	}
	return room, nil
}

// NotFound renders the 404 page in the visitor's locale.
func (h *SiteHandler) NotFound(c *gin.Context) {
	locale, ok := h.locale(c)
	if !ok {
		locale, _ = c.Cookie(utils.LocaleCookieName)
		if !h.supported(locale) {
			locale = h.meta.Locales[0]
		}
	}
	h.render(c, http.StatusNotFound, "not_found", locale, h.meta.NewPage(locale, c.Request.URL.Path, "not_found", nil))
}

func (h *SiteHandler) supported(locale string) bool {
	for _, l := range h.meta.Locales {
		if l == locale {
			return true
		}
	}
	return false
}

func (h *SiteHandler) activeRooms(c *gin.Context) []models.Room {
	rooms, err := h.backend.ListRooms(c.Request.Context())
	if err != nil {
		utils.LoggerFrom(c).Warn("Rooms unavailable", zap.Error(err))
		return nil
	}
	out := rooms[:0:0]
	for _, r := range rooms {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}

// currentOffers are active offers whose window has not closed yet.
func (h *SiteHandler) currentOffers(c *gin.Context) []models.Offer {
	offers, err := h.backend.ListOffers(c.Request.Context())
	if err != nil {
		utils.LoggerFrom(c).Warn("Offers unavailable", zap.Error(err))
		return nil
	}
	today := h.now().In(h.cfg.Location).Format(models.DateLayout)
	out := offers[:0:0]
	for _, o := range offers {
		if o.Active && (o.ValidTo == "" || o.ValidTo >= today) {
			out = append(out, o)
		}
	}
	return out
}
