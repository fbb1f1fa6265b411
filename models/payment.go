package models

import "time"

// PaymentEvent is the ledger entry for a processed Stripe webhook event.
type PaymentEvent struct {
	EventID         string    `bson:"_id" json:"eventId"`
	Type            string    `bson:"type" json:"type"`
	PaymentIntentID string    `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	SessionID       string    `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	BookingID       string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	Processed       bool      `bson:"processed" json:"processed"`
	Error           string    `bson:"error,omitempty" json:"error,omitempty"`
	ReceivedAt      time.Time `bson:"receivedAt" json:"receivedAt"`
	ProcessedAt     time.Time `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
}

// PaymentIntent is the gateway-neutral view of a Stripe PaymentIntent.
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"-"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// PaymentIntentStatusSucceeded mirrors Stripe's terminal success state.
const PaymentIntentStatusSucceeded = "succeeded"

// IntentRequest describes a PaymentIntent to create.
type IntentRequest struct {
	Amount         int64
	Currency       string
	Description    string
	ReceiptEmail   string
	IdempotencyKey string
	Metadata       map[string]string
}

// WebhookEvent is a verified gateway event.
type WebhookEvent struct {
	ID     string
	Type   string
	Intent *PaymentIntent
}
