package booking

import (
	"context"
	"fmt"
	"strings"

	"asterias/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Checkout re-quotes the stay, opens a PaymentIntent and stores the session
// the wizard resumes from.
func (s *Service) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if err := validateGuest(req.Guest); err != nil {
		return nil, err
	}
	quote, err := s.Quote(ctx, req.StayRequest)
	if err != nil {
		return nil, err
	}

	now := s.cfg.Now()
	id := "cs_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent, err := s.gateway.CreateIntent(ctx, models.IntentRequest{
		Amount:         quote.AmountCents(),
		Currency:       quote.Currency,
		Description:    fmt.Sprintf("Asterias Homes: %s, %s to %s", quote.RoomName, quote.CheckIn, quote.CheckOut),
		ReceiptEmail:   req.Guest.Email,
		IdempotencyKey: id,
		Metadata: map[string]string{
			MetadataSessionKey: id,
			"room_id":          quote.RoomID,
			"check_in":         quote.CheckIn,
			"check_out":        quote.CheckOut,
		},
	})
	if err != nil {
		return nil, err
	}

	session := &models.CheckoutSession{
		ID:              id,
		Quote:           *quote,
		Guest:           req.Guest,
		SpecialRequests: req.SpecialRequests,
		Locale:          req.Locale,
		PaymentIntentID: intent.ID,
		Status:          models.CheckoutPendingPayment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.sessions.Save(ctx, session, s.cfg.CheckoutTTL+sessionGrace); err != nil {
		if cerr := s.gateway.CancelIntent(ctx, intent.ID); cerr != nil {
			s.logger.Error("cancelling orphaned intent", zap.String("intent", intent.ID), zap.Error(cerr))
		}
		return nil, fmt.Errorf("saving checkout session: %w", err)
	}
	if s.tasks != nil {
		if err := s.tasks.EnqueueCheckoutExpiry(ctx, id, s.cfg.CheckoutTTL); err != nil {
			s.logger.Warn("scheduling checkout expiry", zap.String("session", id), zap.Error(err))
		}
	}

	s.logger.Info("checkout opened",
		zap.String("session", id),
		zap.String("intent", intent.ID),
		zap.String("room", quote.RoomID),
		zap.Float64("total", quote.Total),
	)
	return &models.CheckoutResponse{
		SessionID:      id,
		ClientSecret:   intent.ClientSecret,
		PublishableKey: s.cfg.PublishableKey,
		Quote:          *quote,
	}, nil
}
