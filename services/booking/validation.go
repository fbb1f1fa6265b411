package booking

import (
	"math"
	"net/mail"
	"strings"
	"time"

	"asterias/models"
)

// stay is a validated StayRequest.
type stay struct {
	checkIn  time.Time
	checkOut time.Time
	nights   int
}

// validateStay checks dates and party size. room may be nil when the
// capacity check should be skipped.
func (s *Service) validateStay(req models.StayRequest, room *models.Room) (*stay, error) {
	if strings.TrimSpace(req.RoomID) == "" {
		return nil, invalid("roomId", "is required")
	}
	in, err := models.ParseDate(req.CheckIn, s.cfg.Location)
	if err != nil {
		return nil, invalid("checkIn", "must be a date in YYYY-MM-DD format")
	}
	out, err := models.ParseDate(req.CheckOut, s.cfg.Location)
	if err != nil {
		return nil, invalid("checkOut", "must be a date in YYYY-MM-DD format")
	}

	now := s.cfg.Now().In(s.cfg.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
	if in.Before(today) {
		return nil, invalid("checkIn", "cannot be in the past")
	}
	if !out.After(in) {
		return nil, invalid("checkOut", "must be after check-in")
	}
	// Days are 23 or 25 hours long across DST changes.
	nights := int(math.Round(out.Sub(in).Hours() / 24))
	if nights < s.cfg.MinNights {
		return nil, invalid("checkOut", "minimum stay is %d nights", s.cfg.MinNights)
	}
	if nights > s.cfg.MaxNights {
		return nil, invalid("checkOut", "maximum stay is %d nights", s.cfg.MaxNights)
	}

	if req.Adults < 1 {
		return nil, invalid("adults", "at least one adult is required")
	}
	if req.Children < 0 {
		return nil, invalid("children", "cannot be negative")
	}
	if room != nil && room.Capacity > 0 && req.Adults+req.Children > room.Capacity {
		return nil, invalid("adults", "this room sleeps at most %d guests", room.Capacity)
	}
	return &stay{checkIn: in, checkOut: out, nights: nights}, nil
}

func validateGuest(g models.GuestDetails) error {
	if strings.TrimSpace(g.FirstName) == "" {
		return invalid("guest.firstName", "is required")
	}
	if strings.TrimSpace(g.LastName) == "" {
		return invalid("guest.lastName", "is required")
	}
	addr, err := mail.ParseAddress(g.Email)
	if err != nil || addr.Address != strings.TrimSpace(g.Email) {
		return invalid("guest.email", "must be a valid e-mail address")
	}
	return nil
}
