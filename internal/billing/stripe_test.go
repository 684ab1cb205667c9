package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func newTestProvider() *StripeProvider {
	return NewStripeProvider("sk_test_dummy", testWebhookSecret, Plan{Amount: 1900, Currency: "eur"})
}

func sign(t *testing.T, payload string, secret string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_1","object":"checkout.session","customer":"cus_1","subscription":"sub_1"}}}`

	evt, err := newTestProvider().ParseWebhook([]byte(payload), sign(t, payload, testWebhookSecret))
	require.NoError(t, err)

	assert.Equal(t, EventCheckoutCompleted, evt.Type)
	require.NotNil(t, evt.CheckoutSession)
	assert.Equal(t, "cus_1", evt.CheckoutSession.CustomerID)
	assert.Equal(t, "sub_1", evt.CheckoutSession.SubscriptionID)
	assert.Nil(t, evt.Subscription)
}

func TestParseWebhook_SubscriptionUpdated(t *testing.T) {
	payload := `{"id":"evt_2","object":"event","type":"customer.subscription.updated",
		"data":{"object":{"id":"sub_1","object":"subscription","status":"past_due","customer":"cus_1","current_period_end":1717200000}}}`

	evt, err := newTestProvider().ParseWebhook([]byte(payload), sign(t, payload, testWebhookSecret))
	require.NoError(t, err)

	require.NotNil(t, evt.Subscription)
	assert.Equal(t, "sub_1", evt.Subscription.ID)
	assert.Equal(t, "past_due", evt.Subscription.Status)
	require.NotNil(t, evt.Subscription.CurrentPeriodEnd)
	assert.Equal(t, time.Unix(1717200000, 0).UTC(), *evt.Subscription.CurrentPeriodEnd)
}

func TestParseWebhook_IgnoredTypeCarriesNoPayload(t *testing.T) {
	payload := `{"id":"evt_3","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`

	evt, err := newTestProvider().ParseWebhook([]byte(payload), sign(t, payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, "invoice.paid", evt.Type)
	assert.Nil(t, evt.CheckoutSession)
	assert.Nil(t, evt.Subscription)
}

func TestParseWebhook_MissingSignature(t *testing.T) {
	_, err := newTestProvider().ParseWebhook([]byte(`{}`), "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseWebhook_WrongSecret(t *testing.T) {
	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`

	_, err := newTestProvider().ParseWebhook([]byte(payload), sign(t, payload, "whsec_other"))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseWebhook_TamperedPayload(t *testing.T) {
	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`
	header := sign(t, payload, testWebhookSecret)

	_, err := newTestProvider().ParseWebhook([]byte(payload+" "), header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestUnconfigured_FailsEveryCall(t *testing.T) {
	var p Provider = Unconfigured{}
	ctx := context.Background()

	_, err := p.GetSubscription(ctx, "sub_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = p.CreateCustomer(ctx, "owner@example.com", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = p.CreateCheckoutSession(ctx, CheckoutRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = p.ParseWebhook([]byte("{}"), "sig")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
