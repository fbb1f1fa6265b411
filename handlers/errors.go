package handlers

import (
	"errors"
	"net/http"

	"asterias/services/backend"
	"asterias/services/booking"
	"asterias/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bookingError maps wizard failures onto HTTP answers.
func bookingError(c *gin.Context, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.FieldError(c, verr.Field, verr.Message)
	case errors.Is(err, booking.ErrSessionNotFound):
		utils.JSONError(c, http.StatusNotFound, "Checkout session not found or expired", "")
	case errors.Is(err, booking.ErrUnavailable):
		utils.JSONError(c, http.StatusConflict, "The room is not available for these dates", "")
	case errors.Is(err, booking.ErrPaymentIncomplete):
		utils.JSONError(c, http.StatusPaymentRequired, "Payment has not completed", err.Error())
	case errors.Is(err, booking.ErrAmountMismatch):
		utils.JSONError(c, http.StatusConflict, "Payment does not match the quote", "")
	case errors.Is(err, booking.ErrAlreadyConfirmed):
		utils.JSONError(c, http.StatusConflict, "Booking is already confirmed", "")
	case errors.Is(err, booking.ErrSessionBusy):
		c.Header("Retry-After", "2")
		utils.JSONError(c, http.StatusConflict, "Checkout session is being processed", "")
	default:
		backendError(c, err)
	}
}

// backendError passes client errors from the backend through and turns
// everything else into a 502 or 500. Internal detail goes to the log only.
func backendError(c *gin.Context, err error) {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		utils.LoggerFrom(c).Error("Request failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	switch {
	case backend.IsUnauthorized(err):
		utils.JSONError(c, http.StatusUnauthorized, "Authentication required", apiErr.Message)
	case apiErr.Status >= 400 && apiErr.Status < 500:
		utils.JSONError(c, apiErr.Status, apiErr.Message, "")
	default:
		utils.LoggerFrom(c).Warn("Backend error", zap.Int("status", apiErr.Status), zap.String("message", apiErr.Message))
		utils.JSONError(c, http.StatusBadGateway, "Backend unavailable", "")
	}
}

// bindError answers a request body that failed gin binding.
func bindError(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
}
