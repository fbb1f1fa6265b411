package models

import "time"

type Offer struct {
	ID              string        `json:"id"`
	Title           LocalizedText `json:"title"`
	Description     LocalizedText `json:"description"`
	DiscountPercent float64       `json:"discountPercent"`
	RoomIDs         []string      `json:"roomIds"`
	ValidFrom       string        `json:"validFrom"`
	ValidTo         string        `json:"validTo"`
	MinNights       int           `json:"minNights"`
	Image           string        `json:"image,omitempty"`
	Active          bool          `json:"active"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// AppliesToRoom reports whether the offer is restricted to, or open to, roomID.
func (o Offer) AppliesToRoom(roomID string) bool {
	if len(o.RoomIDs) == 0 {
		return true
	}
	for _, id := range o.RoomIDs {
		if id == roomID {
			return true
		}
	}
	return false
}

// OfferInput is the admin payload for creating or updating an offer.
type OfferInput struct {
	Title           LocalizedText `json:"title" binding:"required"`
	Description     LocalizedText `json:"description"`
	DiscountPercent float64       `json:"discountPercent" binding:"required,gt=0,lte=90"`
	RoomIDs         []string      `json:"roomIds"`
	ValidFrom       string        `json:"validFrom" binding:"required,datetime=2006-01-02"`
	ValidTo         string        `json:"validTo" binding:"required,datetime=2006-01-02"`
	MinNights       int           `json:"minNights" binding:"min=0,max=30"`
	Image           string        `json:"image"`
	Active          bool          `json:"active"`
}
