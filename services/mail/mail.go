package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	"asterias/models"
	"asterias/services/i18n"
	"asterias/views"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Mailer sends the site's transactional e-mail.
type Mailer interface {
	SendBookingConfirmation(ctx context.Context, p models.BookingConfirmationPayload) error
	SendContactInquiry(ctx context.Context, p models.ContactInquiryPayload) error
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Owner receives contact-form inquiries.
	Owner string
}

type SMTPMailer struct {
	cfg      Config
	sender   Sender
	renderer *views.Renderer
	bundle   *i18n.Bundle
	logger   *zap.Logger
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer dials the configured SMTP server over STARTTLS for every send.
func NewSMTPMailer(cfg Config, renderer *views.Renderer, bundle *i18n.Bundle, logger *zap.Logger) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return NewMailer(cfg, d, renderer, bundle, logger)
}

func NewMailer(cfg Config, sender Sender, renderer *views.Renderer, bundle *i18n.Bundle, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.L()
	}
	return &SMTPMailer{cfg: cfg, sender: sender, renderer: renderer, bundle: bundle, logger: logger.Named("mail")}
}

func (m *SMTPMailer) SendBookingConfirmation(ctx context.Context, p models.BookingConfirmationPayload) error {
	locale := p.Locale
	if locale == "" {
		locale = m.bundle.Fallback()
	}
	loc := m.bundle.For(locale)
	body, err := m.renderer.Mail("booking_confirmation", views.MailData{Locale: locale, Loc: loc, Payload: p})
	if err != nil {
		return fmt.Errorf("rendering booking confirmation: %w", err)
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetAddressHeader("To", p.Guest.Email, p.Guest.FirstName+" "+p.Guest.LastName)
	if m.cfg.Owner != "" {
		msg.SetHeader("Bcc", m.cfg.Owner)
	}
	msg.SetHeader("Subject", loc.T("mail.booking.subject", p.Reference))
	msg.SetBody("text/html", body)
	return m.send(ctx, msg, zap.String("booking", p.BookingID), zap.String("to", p.Guest.Email))
}

func (m *SMTPMailer) SendContactInquiry(ctx context.Context, p models.ContactInquiryPayload) error {
	if m.cfg.Owner == "" {
		m.logger.Warn("no owner address configured, dropping inquiry mail", zap.String("inquiry", p.InquiryID))
		return nil
	}
	body, err := m.renderer.Mail("contact_inquiry", views.MailData{Locale: p.Locale, Loc: m.bundle.For(m.bundle.Fallback()), Payload: p})
	if err != nil {
		return fmt.Errorf("rendering contact inquiry: %w", err)
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.Owner)
	msg.SetAddressHeader("Reply-To", p.Email, p.Name)
	msg.SetHeader("Subject", m.bundle.For(m.bundle.Fallback()).T("mail.contact.subject", p.Name))
	msg.SetBody("text/html", body)
	return m.send(ctx, msg, zap.String("inquiry", p.InquiryID))
}

// send honours ctx cancellation before dialing; gomail itself has no context.
func (m *SMTPMailer) send(ctx context.Context, msg *gomail.Message, fields ...zap.Field) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.sender.DialAndSend(msg); err != nil {
		m.logger.Error("sending mail failed", append(fields, zap.Error(err))...)
		return fmt.Errorf("sending mail: %w", err)
	}
	m.logger.Info("mail sent", fields...)
	return nil
}
