package booking

import (
	"context"
	"time"

	"asterias/models"
)

// Backend is the part of the backend API the wizard needs.
type Backend interface {
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	GetOffer(ctx context.Context, id string) (*models.Offer, error)
	Availability(ctx context.Context, q models.AvailabilityQuery) (*models.Availability, error)
	CreateBooking(ctx context.Context, in models.CreateBookingRequest, idempotencyKey string) (*models.Booking, error)
}

// SessionStore persists checkout sessions between wizard steps.
type SessionStore interface {
	Save(ctx context.Context, s *models.CheckoutSession, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.CheckoutSession, error)
	Delete(ctx context.Context, id string) error
	// Lock serialises confirm, fail and cancel for one session.
	Lock(ctx context.Context, id string, ttl time.Duration) (unlock func(), err error)
}

// TaskQueue schedules background work for the wizard.
type TaskQueue interface {
	EnqueueBookingConfirmation(ctx context.Context, p models.BookingConfirmationPayload) error
	EnqueueCheckoutExpiry(ctx context.Context, sessionID string, after time.Duration) error
}

// BookingService is the booking wizard used by the HTTP handlers, the
// payment webhook and the worker.
type BookingService interface {
	Quote(ctx context.Context, stay models.StayRequest) (*models.Quote, error)
	Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error)
	Confirm(ctx context.Context, sessionID, paymentIntentID string) (*models.CheckoutSession, error)
	ConfirmIntent(ctx context.Context, intent *models.PaymentIntent) (*models.CheckoutSession, error)
	MarkFailed(ctx context.Context, intent *models.PaymentIntent, reason string) error
	Cancel(ctx context.Context, sessionID string) error
	Expire(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
}
