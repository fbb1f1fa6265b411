package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"asterias/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrInvalidSignature is returned for webhook payloads that fail verification.
var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// Gateway is the payment provider used by the booking wizard.
type Gateway interface {
	CreateIntent(ctx context.Context, req models.IntentRequest) (*models.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error)
	CancelIntent(ctx context.Context, id string) error
	ParseWebhook(payload []byte, signature string) (*models.WebhookEvent, error)
}

// StripeGateway implements Gateway with the package-level stripe.Key.
type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(webhookSecret string) *StripeGateway {
	return &StripeGateway{webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req models.IntentRequest) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("payment: creating intent: %w", err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("payment: retrieving intent %s: %w", id, err)
	}
	return toIntent(pi), nil
}

// CancelIntent cancels an unpaid intent. Cancelling one that is already
// cancelled is not an error.
func (g *StripeGateway) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := paymentintent.Cancel(id, params)
	if err == nil {
		return nil
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.PaymentIntent != nil &&
		stripeErr.PaymentIntent.Status == stripe.PaymentIntentStatusCanceled {
		return nil
	}
	return fmt.Errorf("payment: cancelling intent %s: %w", id, err)
}

// ParseWebhook verifies the Stripe-Signature header and decodes payment
// intent events. Other event types come back with a nil Intent.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*models.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	out := &models.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("payment: decoding %s: %w", out.Type, err)
		}
		out.Intent = toIntent(&pi)
	}
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *models.PaymentIntent {
	return &models.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}
