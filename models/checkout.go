package models

import "time"

type CheckoutStatus string

const (
	CheckoutPendingPayment CheckoutStatus = "pending_payment"
	CheckoutConfirmed      CheckoutStatus = "confirmed"
	CheckoutPaymentFailed  CheckoutStatus = "payment_failed"
)

// StayRequest is the dates-and-guests part of the booking wizard.
type StayRequest struct {
	RoomID   string `json:"roomId" binding:"required"`
	CheckIn  string `json:"checkIn" binding:"required"`
	CheckOut string `json:"checkOut" binding:"required"`
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
	OfferID  string `json:"offerId"`
}

// Quote is the priced stay returned to the wizard.
type Quote struct {
	RoomID          string      `json:"roomId"`
	RoomName        string      `json:"roomName"`
	CheckIn         string      `json:"checkIn"`
	CheckOut        string      `json:"checkOut"`
	Nights          int         `json:"nights"`
	Adults          int         `json:"adults"`
	Children        int         `json:"children"`
	NightlyRates    []NightRate `json:"nightlyRates"`
	Subtotal        float64     `json:"subtotal"`
	OfferID         string      `json:"offerId,omitempty"`
	DiscountPercent float64     `json:"discountPercent,omitempty"`
	Discount        float64     `json:"discount"`
	Total           float64     `json:"total"`
	Currency        string      `json:"currency"`
}

// AmountCents is the quote total in the currency's minor unit.
func (q Quote) AmountCents() int64 {
	return int64(q.Total*100 + 0.5)
}

// CheckoutRequest is the wizard's final step before payment.
type CheckoutRequest struct {
	StayRequest
	Guest           GuestDetails `json:"guest" binding:"required"`
	SpecialRequests string       `json:"specialRequests" binding:"max=2000"`
	Locale          string       `json:"locale"`
}

// CheckoutSession links a quote and guest to a PaymentIntent until the booking
// exists in the backend.
type CheckoutSession struct {
	ID              string         `json:"id"`
	Quote           Quote          `json:"quote"`
	Guest           GuestDetails   `json:"guest"`
	SpecialRequests string         `json:"specialRequests,omitempty"`
	Locale          string         `json:"locale"`
	PaymentIntentID string         `json:"paymentIntentId"`
	Status          CheckoutStatus `json:"status"`
	BookingID       string         `json:"bookingId,omitempty"`
	BookingRef      string         `json:"bookingRef,omitempty"`
	FailureReason   string         `json:"failureReason,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// CheckoutResponse is returned when a checkout session is opened.
type CheckoutResponse struct {
	SessionID      string `json:"sessionId"`
	ClientSecret   string `json:"clientSecret"`
	PublishableKey string `json:"publishableKey"`
	Quote          Quote  `json:"quote"`
}

// ConfirmRequest is sent by the wizard after Stripe.js returns.
type ConfirmRequest struct {
	SessionID       string `json:"sessionId" binding:"required"`
	PaymentIntentID string `json:"paymentIntentId"`
}
