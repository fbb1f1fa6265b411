package handlers

import (
	"net/http"

	"asterias/models"
	"asterias/services/booking"
	"asterias/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the booking wizard's JSON endpoints.
type BookingHandler struct {
	svc booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// Quote prices a stay without opening a checkout.
func (h *BookingHandler) Quote(c *gin.Context) {
	var req models.StayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	quote, err := h.svc.Quote(c.Request.Context(), req)
	if err != nil {
		bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// Checkout re-quotes the stay and opens a payment.
func (h *BookingHandler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Locale == "" {
		req.Locale, _ = c.Cookie(utils.LocaleCookieName)
	}
	resp, err := h.svc.Checkout(c.Request.Context(), req)
	if err != nil {
		bookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Confirm is called by the wizard once Stripe.js reports the payment.
func (h *BookingHandler) Confirm(c *gin.Context) {
	var req models.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	sess, err := h.svc.Confirm(c.Request.Context(), req.SessionID, req.PaymentIntentID)
	if err != nil {
		bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Session lets the wizard resume after a reload or a 3-D Secure redirect.
func (h *BookingHandler) Session(c *gin.Context) {
	sess, err := h.svc.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// CancelSession abandons a checkout and its payment.
func (h *BookingHandler) CancelSession(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		bookingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
