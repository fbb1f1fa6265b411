package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Valid reports whether s is a status the backend understands.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

type Booking struct {
	ID              string        `json:"id"`
	Reference       string        `json:"reference,omitempty"`
	RoomID          string        `json:"roomId"`
	RoomName        string        `json:"roomName,omitempty"`
	GuestID         string        `json:"guestId,omitempty"`
	Guest           GuestDetails  `json:"guest"`
	CheckIn         string        `json:"checkIn"`
	CheckOut        string        `json:"checkOut"`
	Adults          int           `json:"adults"`
	Children        int           `json:"children"`
	TotalPrice      float64       `json:"totalPrice"`
	Currency        string        `json:"currency"`
	Status          BookingStatus `json:"status"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty"`
	OfferID         string        `json:"offerId,omitempty"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
	Source          string        `json:"source,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// GuestDetails is the contact information collected by the booking wizard.
type GuestDetails struct {
	FirstName string `json:"firstName" binding:"required,max=80"`
	LastName  string `json:"lastName" binding:"required,max=80"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"max=40"`
	Country   string `json:"country" binding:"max=80"`
}

// CreateBookingRequest is sent to the backend once payment has succeeded.
type CreateBookingRequest struct {
	RoomID          string       `json:"roomId"`
	Guest           GuestDetails `json:"guest"`
	CheckIn         string       `json:"checkIn"`
	CheckOut        string       `json:"checkOut"`
	Adults          int          `json:"adults"`
	Children        int          `json:"children"`
	TotalPrice      float64      `json:"totalPrice"`
	Currency        string       `json:"currency"`
	PaymentIntentID string       `json:"paymentIntentId"`
	OfferID         string       `json:"offerId,omitempty"`
	SpecialRequests string       `json:"specialRequests,omitempty"`
	Language        string       `json:"language,omitempty"`
	Source          string       `json:"source"`
}

// BookingFilter narrows admin booking listings.
type BookingFilter struct {
	Status BookingStatus
	From   string
	To     string
	RoomID string
	Page   int
	Limit  int
}

// StatusUpdate is the admin payload for moving a booking between states.
type StatusUpdate struct {
	Status BookingStatus `json:"status" binding:"required"`
	Note   string        `json:"note" binding:"max=500"`
}
