package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"asterias/models"
	"asterias/services/booking"
	"asterias/services/payment"
	"asterias/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBytes = 64 << 10

// PaymentLedger records every gateway event once.
type PaymentLedger interface {
	Record(ctx context.Context, ev models.PaymentEvent) (bool, error)
	Get(ctx context.Context, eventID string) (*models.PaymentEvent, error)
	MarkProcessed(ctx context.Context, eventID, sessionID, bookingID string, procErr error) error
}

type WebhookHandler struct {
	gateway payment.Gateway
	svc     booking.BookingService
	ledger  PaymentLedger
}

func NewWebhookHandler(gateway payment.Gateway, svc booking.BookingService, ledger PaymentLedger) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, svc: svc, ledger: ledger}
}

// Stripe verifies and applies a Stripe webhook. Events already processed are
// acknowledged without being applied again; events that failed earlier are
// retried.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	logger := utils.LoggerFrom(c)
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Unreadable payload", err.Error())
		return
	}
	ev, err := h.gateway.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook", err.Error())
		return
	}
	logger = logger.With(zap.String("event", ev.ID), zap.String("type", ev.Type))

	ctx := c.Request.Context()
	entry := models.PaymentEvent{EventID: ev.ID, Type: ev.Type}
	if ev.Intent != nil {
		entry.PaymentIntentID = ev.Intent.ID
	}
	fresh, err := h.ledger.Record(ctx, entry)
	if err != nil {
		logger.Error("Failed to record payment event", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to record event", "")
		return
	}
	if !fresh {
		prev, err := h.ledger.Get(ctx, ev.ID)
		if err == nil && prev.Processed {
			logger.Info("Duplicate payment event acknowledged")
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}
	}

	sessionID, bookingID, procErr := h.apply(ctx, ev)
	if err := h.ledger.MarkProcessed(ctx, ev.ID, sessionID, bookingID, procErr); err != nil {
		logger.Error("Failed to close payment event", zap.Error(err))
	}
	switch {
	case procErr == nil:
		logger.Info("Payment event processed", zap.String("session", sessionID), zap.String("booking", bookingID))
	case errors.Is(procErr, booking.ErrSessionNotFound):
		// Nothing left to settle; a retry would not find it either.
		logger.Warn("Payment event for unknown checkout session", zap.Error(procErr))
	default:
		logger.Error("Payment event failed", zap.Error(procErr))
		utils.JSONError(c, http.StatusInternalServerError, "Event processing failed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) apply(ctx context.Context, ev *models.WebhookEvent) (sessionID, bookingID string, err error) {
	if ev.Intent == nil {
		return "", "", nil
	}
	sessionID = ev.Intent.Metadata[booking.MetadataSessionKey]
	switch ev.Type {
	case "payment_intent.succeeded":
		sess, err := h.svc.ConfirmIntent(ctx, ev.Intent)
		if err != nil {
			return sessionID, "", err
		}
		return sess.ID, sess.BookingID, nil
	case "payment_intent.payment_failed":
		return sessionID, "", h.svc.MarkFailed(ctx, ev.Intent, "payment failed")
	case "payment_intent.canceled":
		return sessionID, "", h.svc.MarkFailed(ctx, ev.Intent, "payment canceled")
	}
	return sessionID, "", nil
}
