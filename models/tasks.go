package models

// BookingConfirmationPayload is the background e-mail task for a new booking.
type BookingConfirmationPayload struct {
	BookingID string       `json:"bookingId"`
	Reference string       `json:"reference"`
	Guest     GuestDetails `json:"guest"`
	RoomName  string       `json:"roomName"`
	CheckIn   string       `json:"checkIn"`
	CheckOut  string       `json:"checkOut"`
	Nights    int          `json:"nights"`
	Adults    int          `json:"adults"`
	Children  int          `json:"children"`
	Total     float64      `json:"total"`
	Currency  string       `json:"currency"`
	Locale    string       `json:"locale"`
}

// ContactInquiryPayload is the background e-mail task for a contact message.
type ContactInquiryPayload struct {
	InquiryID string `json:"inquiryId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message"`
	Locale    string `json:"locale"`
	RoomID    string `json:"roomId,omitempty"`
	CheckIn   string `json:"checkIn,omitempty"`
	CheckOut  string `json:"checkOut,omitempty"`
}
