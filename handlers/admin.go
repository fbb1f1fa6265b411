package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
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

// defaultSessionAge applies when a backend token carries no expiry.
const defaultSessionAge = 12 * time.Hour

// minSessionAge is the shortest token lifetime worth a session cookie.
const minSessionAge = time.Minute

// AdminBackend is the back-office slice of the backend API.
type AdminBackend interface {
	Login(ctx context.Context, in models.LoginRequest) (*models.LoginResponse, error)
	Dashboard(ctx context.Context) (*models.DashboardStats, error)

	ListBookings(ctx context.Context, f models.BookingFilter) (models.ListResponse[models.Booking], error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, in models.StatusUpdate) (*models.Booking, error)

	ListRooms(ctx context.Context) ([]models.Room, error)
	CreateRoom(ctx context.Context, in models.RoomInput) (*models.Room, error)
	UpdateRoom(ctx context.Context, id string, in models.RoomInput) (*models.Room, error)
	DeleteRoom(ctx context.Context, id string) error

	ListOffers(ctx context.Context) ([]models.Offer, error)
	CreateOffer(ctx context.Context, in models.OfferInput) (*models.Offer, error)
	UpdateOffer(ctx context.Context, id string, in models.OfferInput) (*models.Offer, error)
	DeleteOffer(ctx context.Context, id string) error

	ListGuests(ctx context.Context, search string, page, limit int) (models.ListResponse[models.Guest], error)
	GetGuest(ctx context.Context, id string) (*models.Guest, error)
	CreateGuest(ctx context.Context, in models.GuestInput) (*models.Guest, error)
	UpdateGuest(ctx context.Context, id string, in models.GuestInput) (*models.Guest, error)
	DeleteGuest(ctx context.Context, id string) error

	ListGallery(ctx context.Context) ([]models.GalleryImage, error)
	AddGalleryImage(ctx context.Context, in models.GalleryImageInput) (*models.GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, id string) error
}

// InquiryBook is what the back office reads from the inquiry store.
type InquiryBook interface {
	List(ctx context.Context, status models.InquiryStatus, limit int64) ([]models.Inquiry, error)
	CountByStatus(ctx context.Context, status models.InquiryStatus) (int64, error)
	MarkAnswered(ctx context.Context, id string) error
}

// LedgerCounter reports payment events that still need attention.
type LedgerCounter interface {
	CountUnprocessed(ctx context.Context) (int64, error)
}

var bookingStatuses = []models.BookingStatus{
	models.BookingPending, models.BookingConfirmed, models.BookingCancelled, models.BookingCompleted,
}

// AdminHandler serves the back-office pages and the admin JSON API.
type AdminHandler struct {
	backend       AdminBackend
	inquiries     InquiryBook
	ledger        LedgerCounter
	renderer      *views.Renderer
	sealer        *utils.SessionSealer
	secureCookies bool
	now           func() time.Time
}

func NewAdminHandler(b AdminBackend, inquiries InquiryBook, ledger LedgerCounter, renderer *views.Renderer, sealer *utils.SessionSealer, secureCookies bool) *AdminHandler {
	return &AdminHandler{
		backend:       b,
		inquiries:     inquiries,
		ledger:        ledger,
		renderer:      renderer,
		sealer:        sealer,
		secureCookies: secureCookies,
		now:           time.Now,
	}
}

func (h *AdminHandler) render(c *gin.Context, status int, name, title string, data gin.H) {
	p := views.Page{Lang: "en", Title: title, Year: h.now().Year(), Data: data}
	if v, ok := c.Get(middleware.AdminClaimsKey); ok {
		if claims, ok := v.(*utils.TokenClaims); ok {
			p.User = &models.AdminUser{ID: claims.Subject, Email: claims.Email, Role: claims.Role}
		}
	}
	if flash, ok := data["Flash"].(string); ok {
		p.Flash = flash
	}
	var buf bytes.Buffer
	if err := h.renderer.Admin(&buf, name, p); err != nil {
		utils.LoggerFrom(c).Error("Failed to render admin page", zap.String("page", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// pageError turns a backend failure on an HTML page into a redirect to the
// login form for dead sessions, or an error flash otherwise.
func (h *AdminHandler) pageError(c *gin.Context, name, title string, err error, empty gin.H) {
	if backend.IsUnauthorized(err) {
		middleware.ClearSessionCookie(c)
		c.Redirect(http.StatusSeeOther, "/admin/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		return
	}
	utils.LoggerFrom(c).Error("Admin page failed", zap.String("page", name), zap.Error(err))
	status := http.StatusBadGateway
	if backend.IsNotFound(err) {
		status = http.StatusNotFound
	}
	empty["Flash"] = "Could not load data: " + errMessage(err)
	h.render(c, status, name, title, empty)
}

func errMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "the backend is unavailable"
}

// safeNext only allows redirects back into the back office.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/admin") || strings.HasPrefix(next, "/admin/login") || strings.Contains(next, "\\") {
		return "/admin"
	}
	return next
}

func (h *AdminHandler) LoginPage(c *gin.Context) {
	if _, err := c.Cookie(utils.SessionCookieName); err == nil {
		if token := middleware.SessionToken(h.sealer)(c.Request); token != "" {
			c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
			return
		}
	}
	h.render(c, http.StatusOK, "login", "Sign in", gin.H{"Next": safeNext(c.Query("next")), "Email": ""})
}

// Login exchanges credentials for a backend token and seals it into the
// session cookie. The cookie lives as long as the token.
func (h *AdminHandler) Login(c *gin.Context) {
	next := safeNext(c.PostForm("next"))
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusBadRequest, "login", "Sign in", gin.H{"Next": next, "Email": req.Email, "Flash": "Enter your e-mail and password."})
		return
	}
	resp, err := h.backend.Login(c.Request.Context(), req)
	if err != nil {
		status, flash := http.StatusBadGateway, "Sign-in is unavailable, try again shortly."
		if backend.IsUnauthorized(err) || backend.StatusCode(err) == http.StatusBadRequest {
			status, flash = http.StatusUnauthorized, "Invalid e-mail or password."
		}
		utils.LoggerFrom(c).Warn("Admin login failed", zap.String("email", req.Email), zap.Error(err))
		h.render(c, status, "login", "Sign in", gin.H{"Next": next, "Email": req.Email, "Flash": flash})
		return
	}

	now := h.now()
	maxAge := defaultSessionAge
	claims, err := utils.InspectToken(resp.Token, now)
	switch {
	case err != nil:
		utils.LoggerFrom(c).Error("Backend issued an unusable token", zap.Error(err))
		h.render(c, http.StatusBadGateway, "login", "Sign in", gin.H{"Next": next, "Email": req.Email, "Flash": "Sign-in is unavailable, try again shortly."})
		return
	case !claims.ExpiresAt.IsZero():
		maxAge = claims.ExpiresAt.Sub(now)
	}
	if maxAge < minSessionAge {
		utils.LoggerFrom(c).Error("Backend issued a token that is about to expire", zap.Time("expiresAt", claims.ExpiresAt))
		h.render(c, http.StatusBadGateway, "login", "Sign in", gin.H{"Next": next, "Email": req.Email, "Flash": "Sign-in is unavailable, try again shortly."})
		return
	}
	if err := middleware.SetSessionCookie(c, h.sealer, resp.Token, maxAge, h.secureCookies); err != nil {
		utils.LoggerFrom(c).Error("Failed to seal session", zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.LoggerFrom(c).Info("Admin signed in", zap.String("email", resp.User.Email))
	c.Redirect(http.StatusSeeOther, next)
}

func (h *AdminHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/admin/login")
}

// Dashboard shows backend figures plus the site's own inquiry and payment
// ledger counters.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.backend.Dashboard(ctx)
	if err != nil {
		h.pageError(c, "dashboard", "Dashboard", err, gin.H{"Stats": &models.DashboardStats{}})
		return
	}
	h.localCounters(c, stats)
	h.render(c, http.StatusOK, "dashboard", "Dashboard", gin.H{"Stats": stats})
}

func (h *AdminHandler) localCounters(c *gin.Context, stats *models.DashboardStats) {
	ctx := c.Request.Context()
	if h.inquiries != nil {
		n, err := h.inquiries.CountByStatus(ctx, models.InquiryNew)
		if err != nil {
			utils.LoggerFrom(c).Warn("Counting inquiries failed", zap.Error(err))
		}
		stats.NewInquiries = n
	}
	if h.ledger != nil {
		n, err := h.ledger.CountUnprocessed(ctx)
		if err != nil {
			utils.LoggerFrom(c).Warn("Counting payment events failed", zap.Error(err))
		}
		stats.UnprocessedEvents = n
	}
}

func bookingFilter(c *gin.Context) models.BookingFilter {
	f := models.BookingFilter{
		Status: models.BookingStatus(c.Query("status")),
		From:   c.Query("from"),
		To:     c.Query("to"),
		RoomID: c.Query("roomId"),
	}
	if !f.Status.Valid() {
		f.Status = ""
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	return f
}

func (h *AdminHandler) Bookings(c *gin.Context) {
	f := bookingFilter(c)
	page, err := h.backend.ListBookings(c.Request.Context(), f)
	if err != nil {
		h.pageError(c, "bookings", "Bookings", err, gin.H{"Bookings": []models.Booking{}, "Total": 0, "Status": f.Status, "From": f.From, "To": f.To, "Statuses": bookingStatuses})
		return
	}
	h.render(c, http.StatusOK, "bookings", "Bookings", gin.H{
		"Bookings": page.Items,
		"Total":    page.Total,
		"Status":   f.Status,
		"From":     f.From,
		"To":       f.To,
		"Statuses": bookingStatuses,
	})
}

func (h *AdminHandler) Booking(c *gin.Context) {
	b, err := h.backend.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.pageError(c, "booking", "Booking", err, gin.H{"Booking": &models.Booking{}, "Statuses": bookingStatuses})
		return
	}
	h.render(c, http.StatusOK, "booking", "Booking "+b.Reference, gin.H{"Booking": b, "Statuses": bookingStatuses})
}

func (h *AdminHandler) Rooms(c *gin.Context) {
	rooms, err := h.backend.ListRooms(c.Request.Context())
	if err != nil {
		h.pageError(c, "rooms", "Rooms", err, gin.H{"Rooms": []models.Room{}})
		return
	}
	h.render(c, http.StatusOK, "rooms", "Rooms", gin.H{"Rooms": rooms})
}

func (h *AdminHandler) Offers(c *gin.Context) {
	offers, err := h.backend.ListOffers(c.Request.Context())
	if err != nil {
		h.pageError(c, "offers", "Offers", err, gin.H{"Offers": []models.Offer{}})
		return
	}
	h.render(c, http.StatusOK, "offers", "Offers", gin.H{"Offers": offers})
}

func (h *AdminHandler) Guests(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	pageNo, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	page, err := h.backend.ListGuests(c.Request.Context(), q, pageNo, 50)
	if err != nil {
		h.pageError(c, "guests", "Guests", err, gin.H{"Guests": []models.Guest{}, "Query": q})
		return
	}
	h.render(c, http.StatusOK, "guests", "Guests", gin.H{"Guests": page.Items, "Query": q})
}
