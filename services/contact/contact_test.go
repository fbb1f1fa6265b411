package contact

import (
	"context"
	"errors"
	"testing"

	"asterias/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memInquiries struct {
	saved []models.Inquiry
	err   error
}

func (m *memInquiries) Create(_ context.Context, inq models.Inquiry) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, inq)
	return "inq-1", nil
}

type recordingNotifier struct {
	payloads []models.ContactInquiryPayload
	err      error
}

func (r *recordingNotifier) EnqueueContactInquiry(_ context.Context, p models.ContactInquiryPayload) error {
	r.payloads = append(r.payloads, p)
	return r.err
}

func validRequest() models.ContactRequest {
	return models.ContactRequest{
		Name:    " Hans Müller ",
		Email:   "hans@example.de",
		Message: "Is the studio free in the first week of May?",
		Locale:  "DE",
	}
}

func TestSubmit(t *testing.T) {
	store := &memInquiries{}
	notifier := &recordingNotifier{}
	s := NewService(store, notifier, []string{"en", "el", "de"}, zap.NewNop())

	inq, err := s.Submit(context.Background(), validRequest(), "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, "inq-1", inq.ID)
	assert.Equal(t, "Hans Müller", inq.Name)
	assert.Equal(t, "de", inq.Locale)

	require.Len(t, store.saved, 1)
	assert.Equal(t, "203.0.113.9", store.saved[0].IP)
	assert.Equal(t, models.InquiryNew, store.saved[0].Status)
	require.Len(t, notifier.payloads, 1)
	assert.Equal(t, "inq-1", notifier.payloads[0].InquiryID)
}

func TestSubmitHoneypot(t *testing.T) {
	store := &memInquiries{}
	s := NewService(store, &recordingNotifier{}, []string{"en"}, zap.NewNop())
	req := validRequest()
	req.Website = "http://spam.example"
	_, err := s.Submit(context.Background(), req, "198.51.100.1")
	assert.ErrorIs(t, err, ErrSpam)
	assert.Empty(t, store.saved)
}

func TestSubmitDates(t *testing.T) {
	s := NewService(&memInquiries{}, &recordingNotifier{}, []string{"en"}, zap.NewNop())
	req := validRequest()
	req.CheckIn, req.CheckOut = "2026-05-04", "2026-05-01"
	_, err := s.Submit(context.Background(), req, "")
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "checkOut", fe.Field)

	req.CheckIn, req.CheckOut = "2026-05-01", "2026-05-04"
	inq, err := s.Submit(context.Background(), req, "")
	require.NoError(t, err)
	assert.Equal(t, "en", inq.Locale, "unknown locale falls back")
}

func TestSubmitSurvivesQueueFailure(t *testing.T) {
	s := NewService(&memInquiries{}, &recordingNotifier{err: errors.New("redis down")}, []string{"en"}, zap.NewNop())
	_, err := s.Submit(context.Background(), validRequest(), "")
	assert.NoError(t, err)

	failing := NewService(&memInquiries{err: errors.New("mongo down")}, &recordingNotifier{}, []string{"en"}, zap.NewNop())
	_, err = failing.Submit(context.Background(), validRequest(), "")
	assert.ErrorContains(t, err, "mongo down")
}
