package models

import "time"

type InquiryStatus string

const (
	InquiryNew      InquiryStatus = "new"
	InquiryAnswered InquiryStatus = "answered"
)

// Inquiry is a contact-form submission kept by the site.
type Inquiry struct {
	ID        string        `bson:"id" json:"id"`
	Name      string        `bson:"name" json:"name"`
	Email     string        `bson:"email" json:"email"`
	Phone     string        `bson:"phone,omitempty" json:"phone,omitempty"`
	Message   string        `bson:"message" json:"message"`
	Locale    string        `bson:"locale" json:"locale"`
	RoomID    string        `bson:"roomId,omitempty" json:"roomId,omitempty"`
	CheckIn   string        `bson:"checkIn,omitempty" json:"checkIn,omitempty"`
	CheckOut  string        `bson:"checkOut,omitempty" json:"checkOut,omitempty"`
	IP        string        `bson:"ip" json:"-"`
	Status    InquiryStatus `bson:"status" json:"status"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

// ContactRequest is the public contact-form payload.
type ContactRequest struct {
	Name     string `json:"name" form:"name" binding:"required,max=120"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Phone    string `json:"phone" form:"phone" binding:"max=40"`
	Message  string `json:"message" form:"message" binding:"required,min=10,max=5000"`
	Locale   string `json:"locale" form:"locale" binding:"max=8"`
	RoomID   string `json:"roomId" form:"roomId"`
	CheckIn  string `json:"checkIn" form:"checkIn"`
	CheckOut string `json:"checkOut" form:"checkOut"`
	// Website is a honeypot: humans never see the field.
	Website string `json:"website" form:"website"`
}
