package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"asterias/models"

	"go.uber.org/zap"
)

// Session returns a checkout session for the wizard to resume.
func (s *Service) Session(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// Confirm turns a paid checkout session into a backend booking. It is safe to
// call repeatedly and concurrently: every call after the first returns the
// already confirmed session.
func (s *Service) Confirm(ctx context.Context, sessionID, paymentIntentID string) (*models.CheckoutSession, error) {
	unlock, err := s.sessions.Lock(ctx, sessionID, lockTTL)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.CheckoutConfirmed {
		return sess, nil
	}
	if paymentIntentID != "" && paymentIntentID != sess.PaymentIntentID {
		return nil, invalid("paymentIntentId", "does not belong to this checkout session")
	}

	intent, err := s.gateway.GetIntent(ctx, sess.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != models.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: intent status is %s", ErrPaymentIncomplete, intent.Status)
	}
	if intent.Amount != sess.Quote.AmountCents() || !strings.EqualFold(intent.Currency, sess.Quote.Currency) {
		s.logger.Error("paid amount differs from quote",
			zap.String("session", sess.ID),
			zap.Int64("paid", intent.Amount),
			zap.Int64("quoted", sess.Quote.AmountCents()),
			zap.String("currency", intent.Currency),
		)
		return nil, ErrAmountMismatch
	}

	q := sess.Quote
	booking, err := s.backend.CreateBooking(ctx, models.CreateBookingRequest{
		RoomID:          q.RoomID,
		Guest:           sess.Guest,
		CheckIn:         q.CheckIn,
		CheckOut:        q.CheckOut,
		Adults:          q.Adults,
		Children:        q.Children,
		TotalPrice:      q.Total,
		Currency:        q.Currency,
		PaymentIntentID: sess.PaymentIntentID,
		OfferID:         q.OfferID,
		SpecialRequests: sess.SpecialRequests,
		Language:        sess.Locale,
		Source:          "website",
	}, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("creating booking for %s: %w", sess.ID, err)
	}

	sess.Status = models.CheckoutConfirmed
	sess.BookingID = booking.ID
	sess.BookingRef = booking.Reference
	sess.FailureReason = ""
	sess.UpdatedAt = s.cfg.Now()
	if err := s.sessions.Save(ctx, sess, confirmedTTL); err != nil {
		// The booking exists; a retry is absorbed by the backend idempotency key.
		return nil, fmt.Errorf("saving confirmed session: %w", err)
	}

	if s.tasks != nil {
		payload := models.BookingConfirmationPayload{
			BookingID: booking.ID,
			Reference: booking.Reference,
			Guest:     sess.Guest,
			RoomName:  q.RoomName,
			CheckIn:   q.CheckIn,
			CheckOut:  q.CheckOut,
			Nights:    q.Nights,
			Adults:    q.Adults,
			Children:  q.Children,
			Total:     q.Total,
			Currency:  q.Currency,
			Locale:    sess.Locale,
		}
		if err := s.tasks.EnqueueBookingConfirmation(ctx, payload); err != nil {
			s.logger.Error("enqueueing confirmation e-mail", zap.String("booking", booking.ID), zap.Error(err))
		}
	}
	s.logger.Info("booking confirmed", zap.String("session", sess.ID), zap.String("booking", booking.ID))
	return sess, nil
}

func sessionIDOf(intent *models.PaymentIntent) (string, error) {
	if intent == nil || intent.Metadata[MetadataSessionKey] == "" {
		return "", ErrSessionNotFound
	}
	return intent.Metadata[MetadataSessionKey], nil
}

// ConfirmIntent confirms the session named in a succeeded intent's metadata.
func (s *Service) ConfirmIntent(ctx context.Context, intent *models.PaymentIntent) (*models.CheckoutSession, error) {
	id, err := sessionIDOf(intent)
	if err != nil {
		return nil, err
	}
	return s.Confirm(ctx, id, intent.ID)
}

// MarkFailed records a failed payment attempt. Confirmed sessions are left alone.
func (s *Service) MarkFailed(ctx context.Context, intent *models.PaymentIntent, reason string) error {
	id, err := sessionIDOf(intent)
	if err != nil {
		return err
	}
	unlock, err := s.sessions.Lock(ctx, id, lockTTL)
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.Status == models.CheckoutConfirmed {
		return nil
	}
	sess.Status = models.CheckoutPaymentFailed
	sess.FailureReason = reason
	sess.UpdatedAt = s.cfg.Now()
	return s.sessions.Save(ctx, sess, s.cfg.CheckoutTTL+sessionGrace)
}

// Cancel abandons an unpaid checkout: the intent is cancelled and the
// session removed.
func (s *Service) Cancel(ctx context.Context, sessionID string) error {
	unlock, err := s.sessions.Lock(ctx, sessionID, lockTTL)
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Status == models.CheckoutConfirmed {
		return ErrAlreadyConfirmed
	}
	if err := s.gateway.CancelIntent(ctx, sess.PaymentIntentID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}

// Expire settles a session whose checkout window has passed: a payment that
// did succeed is confirmed, anything else is cancelled.
func (s *Service) Expire(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if sess.Status == models.CheckoutConfirmed {
		return nil
	}
	intent, err := s.gateway.GetIntent(ctx, sess.PaymentIntentID)
	if err != nil {
		return err
	}
	if intent.Status == models.PaymentIntentStatusSucceeded {
		_, err := s.Confirm(ctx, sessionID, intent.ID)
		return err
	}
	s.logger.Info("checkout expired", zap.String("session", sessionID), zap.String("intentStatus", intent.Status))
	err = s.Cancel(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrAlreadyConfirmed) {
		return nil
	}
	return err
}
