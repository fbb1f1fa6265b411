package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"asterias/models"

	"go.uber.org/zap"
)

// ErrSpam is returned when the honeypot field was filled in.
var ErrSpam = errors.New("contact form rejected")

// FieldError reports an invalid contact-form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

type InquiryStore interface {
	Create(ctx context.Context, inq models.Inquiry) (string, error)
}

type Notifier interface {
	EnqueueContactInquiry(ctx context.Context, p models.ContactInquiryPayload) error
}

type Service struct {
	store    InquiryStore
	notifier Notifier
	locales  map[string]bool
	fallback string
	now      func() time.Time
	logger   *zap.Logger
}

// NewService stores inquiries and hands them to the owner notification queue.
// locales[0] is used when a submission carries an unknown locale.
func NewService(store InquiryStore, notifier Notifier, locales []string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	s := &Service{
		store:    store,
		notifier: notifier,
		locales:  make(map[string]bool, len(locales)),
		now:      time.Now,
		logger:   logger.Named("contact"),
	}
	for _, l := range locales {
		s.locales[l] = true
	}
	if len(locales) > 0 {
		s.fallback = locales[0]
	}
	return s
}

// Submit validates and stores a contact-form message.
func (s *Service) Submit(ctx context.Context, req models.ContactRequest, ip string) (*models.Inquiry, error) {
	if strings.TrimSpace(req.Website) != "" {
		s.logger.Info("honeypot tripped", zap.String("ip", ip))
		return nil, ErrSpam
	}
	if err := validateDates(req.CheckIn, req.CheckOut); err != nil {
		return nil, err
	}
	locale := strings.ToLower(req.Locale)
	if !s.locales[locale] {
		locale = s.fallback
	}

	inq := models.Inquiry{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Message:   strings.TrimSpace(req.Message),
		Locale:    locale,
		RoomID:    req.RoomID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		IP:        ip,
		Status:    models.InquiryNew,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.store.Create(ctx, inq)
	if err != nil {
		return nil, fmt.Errorf("storing inquiry: %w", err)
	}
	inq.ID = id

	err = s.notifier.EnqueueContactInquiry(ctx, models.ContactInquiryPayload{
		InquiryID: id,
		Name:      inq.Name,
		Email:     inq.Email,
		Phone:     inq.Phone,
		Message:   inq.Message,
		Locale:    inq.Locale,
		RoomID:    inq.RoomID,
		CheckIn:   inq.CheckIn,
		CheckOut:  inq.CheckOut,
	})
	if err != nil {
		// The inquiry is stored and visible in the back office.
		s.logger.Error("enqueueing inquiry notification", zap.String("inquiry", id), zap.Error(err))
	}
	s.logger.Info("inquiry received", zap.String("inquiry", id), zap.String("locale", locale))
	return &inq, nil
}

func validateDates(checkIn, checkOut string) error {
	if checkIn == "" && checkOut == "" {
		return nil
	}
	in, err := time.Parse(models.DateLayout, checkIn)
	if err != nil {
		return &FieldError{Field: "checkIn", Message: "must be a date in YYYY-MM-DD format"}
	}
	out, err := time.Parse(models.DateLayout, checkOut)
	if err != nil {
		return &FieldError{Field: "checkOut", Message: "must be a date in YYYY-MM-DD format"}
	}
	if !out.After(in) {
		return &FieldError{Field: "checkOut", Message: "must be after check-in"}
	}
	return nil
}
