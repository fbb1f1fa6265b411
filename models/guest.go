package models

import "time"

type Guest struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Country   string    `json:"country,omitempty"`
	Language  string    `json:"language,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Bookings  int       `json:"bookings"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (g Guest) FullName() string {
	if g.LastName == "" {
		return g.FirstName
	}
	return g.FirstName + " " + g.LastName
}

// GuestInput is the admin payload for creating or updating a guest.
type GuestInput struct {
	FirstName string `json:"firstName" binding:"required,max=80"`
	LastName  string `json:"lastName" binding:"max=80"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"max=40"`
	Country   string `json:"country" binding:"max=80"`
	Language  string `json:"language" binding:"max=8"`
	Notes     string `json:"notes" binding:"max=2000"`
}
