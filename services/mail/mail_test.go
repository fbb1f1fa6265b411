package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"asterias/models"
	"asterias/services/i18n"
	"asterias/views"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, m...)
	return nil
}

func newTestMailer(t *testing.T, sender Sender, owner string) *SMTPMailer {
	t.Helper()
	r, err := views.New("en", false)
	require.NoError(t, err)
	b, err := i18n.LoadBundle("en")
	require.NoError(t, err)
	return NewMailer(Config{From: "Asterias Homes <info@asteriashomes.gr>", Owner: owner}, sender, r, b, zap.NewNop())
}

func raw(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSendBookingConfirmation(t *testing.T) {
	sender := &captureSender{}
	m := newTestMailer(t, sender, "owner@asteriashomes.gr")

	err := m.SendBookingConfirmation(context.Background(), models.BookingConfirmationPayload{
		BookingID: "b1",
		Reference: "AST-7",
		Guest:     models.GuestDetails{FirstName: "Maria", LastName: "P", Email: "maria@example.com"},
		RoomName:  "Studio",
		CheckIn:   "2026-07-01",
		CheckOut:  "2026-07-04",
		Total:     300,
		Currency:  "eur",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"Your booking at Asterias Homes (AST-7)"}, msg.GetHeader("Subject"))
	assert.Equal(t, []string{"owner@asteriashomes.gr"}, msg.GetHeader("Bcc"))
	assert.Contains(t, msg.GetHeader("To")[0], "maria@example.com")
	assert.Contains(t, raw(t, msg), "AST-7")
}

func TestSendContactInquiry(t *testing.T) {
	sender := &captureSender{}
	m := newTestMailer(t, sender, "owner@asteriashomes.gr")

	err := m.SendContactInquiry(context.Background(), models.ContactInquiryPayload{
		InquiryID: "i1", Name: "Hans", Email: "hans@example.de", Message: "Is the studio free in May?", Locale: "de",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"New inquiry from Hans"}, msg.GetHeader("Subject"))
	assert.Contains(t, msg.GetHeader("Reply-To")[0], "hans@example.de")

	noOwner := newTestMailer(t, sender, "")
	require.NoError(t, noOwner.SendContactInquiry(context.Background(), models.ContactInquiryPayload{InquiryID: "i2"}))
	assert.Len(t, sender.sent, 1)
}

func TestSendFailures(t *testing.T) {
	m := newTestMailer(t, &captureSender{err: errors.New("connection refused")}, "owner@asteriashomes.gr")
	err := m.SendContactInquiry(context.Background(), models.ContactInquiryPayload{InquiryID: "i1", Name: "A"})
	assert.ErrorContains(t, err, "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok := &captureSender{}
	m = newTestMailer(t, ok, "owner@asteriashomes.gr")
	assert.ErrorIs(t, m.SendContactInquiry(ctx, models.ContactInquiryPayload{InquiryID: "i1"}), context.Canceled)
	assert.Empty(t, ok.sent)
}
