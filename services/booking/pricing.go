package booking

import (
	"context"
	"fmt"
	"math"

	"asterias/models"
	"asterias/services/backend"

	"go.uber.org/zap"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Quote prices a stay from the backend's nightly rates and, when it applies,
// the requested offer.
func (s *Service) Quote(ctx context.Context, req models.StayRequest) (*models.Quote, error) {
	room, err := s.backend.GetRoom(ctx, req.RoomID)
	if err != nil {
		if backend.IsNotFound(err) {
			return nil, invalid("roomId", "unknown room")
		}
		return nil, fmt.Errorf("loading room %s: %w", req.RoomID, err)
	}
	st, err := s.validateStay(req, room)
	if err != nil {
		return nil, err
	}

	avail, err := s.backend.Availability(ctx, models.AvailabilityQuery{
		RoomID:   req.RoomID,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Guests:   req.Adults + req.Children,
	})
	if err != nil {
		if backend.IsConflict(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("checking availability: %w", err)
	}
	if !avail.Available {
		if avail.Reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, avail.Reason)
		}
		return nil, ErrUnavailable
	}

	rates := avail.Nights
	if len(rates) != st.nights {
		// No per-night breakdown: every night at the room's base price.
		rates = make([]models.NightRate, st.nights)
		for i := range rates {
			rates[i] = models.NightRate{
				Date:  st.checkIn.AddDate(0, 0, i).Format(models.DateLayout),
				Price: room.BasePrice,
			}
		}
	}
	var subtotal float64
	for _, r := range rates {
		subtotal += r.Price
	}

	q := &models.Quote{
		RoomID:       room.ID,
		RoomName:     room.Name.In("en", ""),
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		Nights:       st.nights,
		Adults:       req.Adults,
		Children:     req.Children,
		NightlyRates: rates,
		Subtotal:     round2(subtotal),
		Currency:     avail.Currency,
	}
	if q.RoomID == "" {
		q.RoomID = req.RoomID
	}
	if q.Currency == "" {
		q.Currency = s.cfg.Currency
	}

	if req.OfferID != "" {
		offer, err := s.backend.GetOffer(ctx, req.OfferID)
		switch {
		case err != nil:
			s.logger.Warn("offer lookup failed, quoting without discount", zap.String("offerId", req.OfferID), zap.Error(err))
		case offerApplies(offer, q.RoomID, req.CheckIn, st.nights):
			q.OfferID = offer.ID
			q.DiscountPercent = offer.DiscountPercent
			q.Discount = round2(q.Subtotal * offer.DiscountPercent / 100)
		default:
			s.logger.Debug("offer does not apply", zap.String("offerId", req.OfferID))
		}
	}
	q.Total = round2(q.Subtotal - q.Discount)
	return q, nil
}

// offerApplies checks activity, room restriction, the check-in window
// (inclusive, YYYY-MM-DD compares lexically) and the offer's minimum stay.
func offerApplies(o *models.Offer, roomID, checkIn string, nights int) bool {
	if o == nil || !o.Active || o.DiscountPercent <= 0 || o.DiscountPercent >= 100 {
		return false
	}
	if !o.AppliesToRoom(roomID) {
		return false
	}
	if o.ValidFrom != "" && checkIn < o.ValidFrom {
		return false
	}
	if o.ValidTo != "" && checkIn > o.ValidTo {
		return false
	}
	return nights >= o.MinNights
}
