package models

// NightRate is the backend's price for a single night.
type NightRate struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Availability is the backend's answer for a room and date range.
type Availability struct {
	RoomID    string      `json:"roomId"`
	CheckIn   string      `json:"checkIn"`
	CheckOut  string      `json:"checkOut"`
	Available bool        `json:"available"`
	Reason    string      `json:"reason,omitempty"`
	Nights    []NightRate `json:"nights"`
	Currency  string      `json:"currency"`
}

// AvailabilityQuery identifies an availability lookup.
type AvailabilityQuery struct {
	RoomID   string `form:"roomId" binding:"required"`
	CheckIn  string `form:"checkIn" binding:"required"`
	CheckOut string `form:"checkOut" binding:"required"`
	Guests   int    `form:"guests"`
}
