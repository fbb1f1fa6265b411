package models

import (
	"strings"
	"time"
)

type Room struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Name        LocalizedText `json:"name"`
	Description LocalizedText `json:"description"`
	Capacity    int           `json:"capacity"`
	Bedrooms    int           `json:"bedrooms"`
	SizeSqm     int           `json:"sizeSqm"`
	BasePrice   float64       `json:"basePrice"`
	Amenities   []string      `json:"amenities"`
	Images      []string      `json:"images"`
	Active      bool          `json:"active"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// PathKey is the lower-case slug, or ID, used in public room URLs.
func (r Room) PathKey() string {
	if r.Slug != "" {
		return strings.ToLower(r.Slug)
	}
	return strings.ToLower(r.ID)
}

// RoomInput is the admin payload for creating or updating a room.
type RoomInput struct {
	Slug        string        `json:"slug" binding:"required,max=80"`
	Name        LocalizedText `json:"name" binding:"required"`
	Description LocalizedText `json:"description"`
	Capacity    int           `json:"capacity" binding:"required,min=1,max=12"`
	Bedrooms    int           `json:"bedrooms" binding:"min=0,max=6"`
	SizeSqm     int           `json:"sizeSqm" binding:"min=0"`
	BasePrice   float64       `json:"basePrice" binding:"required,gt=0"`
	Amenities   []string      `json:"amenities"`
	Images      []string      `json:"images"`
	Active      bool          `json:"active"`
}
