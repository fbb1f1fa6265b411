package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testSecret = "whsec_test"

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: []byte(payload), Secret: testSecret})
	return sp.Header, sp.Payload
}

func TestParseWebhookPaymentIntent(t *testing.T) {
	g := NewStripeGateway(testSecret)
	header, body := signed(t, `{
		"id": "evt_1",
		"object": "event",
		"api_version": "2020-08-27",
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_1",
			"object": "payment_intent",
			"amount": 25550,
			"currency": "eur",
			"status": "succeeded",
			"metadata": {"checkout_session": "cs_1"}
		}}
	}`)

	ev, err := g.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "payment_intent.succeeded", ev.Type)
	require.NotNil(t, ev.Intent)
	assert.Equal(t, "pi_1", ev.Intent.ID)
	assert.EqualValues(t, 25550, ev.Intent.Amount)
	assert.Equal(t, "eur", ev.Intent.Currency)
	assert.Equal(t, "cs_1", ev.Intent.Metadata["checkout_session"])
}

func TestParseWebhookOtherEvent(t *testing.T) {
	g := NewStripeGateway(testSecret)
	header, body := signed(t, `{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)
	ev, err := g.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Nil(t, ev.Intent)
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	g := NewStripeGateway("whsec_other")
	header, body := signed(t, `{"id":"evt_3","object":"event","type":"payment_intent.succeeded"}`)
	_, err := g.ParseWebhook(body, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = g.ParseWebhook(body, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
