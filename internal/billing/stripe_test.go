package billing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

func newTestBilling(t *testing.T, handler http.HandlerFunc) *Billing {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		URL:               stripe.String(server.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return NewBillingWithClient(stripe.NewClient("sk_test_123", stripe.WithBackends(backends)))
}

const pricesPage = `{
  "object": "list",
  "url": "/v1/prices",
  "has_more": false,
  "data": [
    {"id": "price_premium", "object": "price", "active": true, "currency": "usd", "unit_amount": 14900, "type": "recurring",
     "recurring": {"interval": "month", "interval_count": 1},
     "product": {"id": "prod_premium", "object": "product", "active": true, "name": "Premium"}},
    {"id": "price_basic", "object": "price", "active": true, "currency": "usd", "unit_amount": 2900, "type": "recurring",
     "recurring": {"interval": "month", "interval_count": 1},
     "product": {"id": "prod_basic", "object": "product", "active": true, "name": "Basic", "description": "One visit"}},
    {"id": "price_legacy", "object": "price", "active": true, "currency": "usd", "unit_amount": 1000, "type": "one_time",
     "product": {"id": "prod_legacy", "object": "product", "active": false, "name": "Legacy"}}
  ]
}`

func TestListPlans(t *testing.T) {
	b := newTestBilling(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/prices", r.URL.Path)
		assert.Equal(t, "acct_clinic", r.Header.Get("Stripe-Account"))
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pricesPage))
	})

	plans, err := b.ListPlans(context.Background(), "acct_clinic")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "price_basic", plans[0].ID)
	assert.Equal(t, "$29.00", plans[0].Price)
	assert.Equal(t, "One visit", plans[0].Description)
	assert.Equal(t, "price_premium", plans[1].ID)
}

func TestListPlansEmptyIsNotNil(t *testing.T) {
	b := newTestBilling(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","url":"/v1/prices","has_more":false,"data":[]}`))
	})

	plans, err := b.ListPlans(context.Background(), "acct_clinic")
	require.NoError(t, err)
	assert.NotNil(t, plans)
	assert.Empty(t, plans)
}

func TestListPlansStripeError(t *testing.T) {
	b := newTestBilling(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such account"}}`))
	})

	_, err := b.ListPlans(context.Background(), "acct_missing")
	assert.Error(t, err)
}

func TestListPlansRequiresAccount(t *testing.T) {
	b := NewBilling("sk_test_123")
	_, err := b.ListPlans(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingAccount)
}

func TestCreateCheckoutSession(t *testing.T) {
	b := newTestBilling(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acct_clinic", r.Header.Get("Stripe-Account"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/prices/price_basic":
			_, _ = w.Write([]byte(`{"id":"price_basic","object":"price","type":"recurring","currency":"usd","unit_amount":2900,"recurring":{"interval":"month","interval_count":1}}`))
		case "/v1/checkout/sessions":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "subscription", r.PostForm.Get("mode"))
			assert.Equal(t, "price_basic", r.PostForm.Get("line_items[0][price]"))
			assert.Equal(t, "https://clinic.example/success", r.PostForm.Get("success_url"))
			assert.Equal(t, "https://clinic.example/", r.PostForm.Get("cancel_url"))
			_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	session, err := b.CreateCheckoutSession(context.Background(), CheckoutParams{
		PlanID:     "price_basic",
		AccountID:  "acct_clinic",
		SuccessURL: "https://clinic.example/success",
		CancelURL:  "https://clinic.example/",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", session.URL)
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	b := NewBilling("sk_test_123")
	valid := CheckoutParams{
		PlanID:     "price_basic",
		AccountID:  "acct_clinic",
		SuccessURL: "https://clinic.example/success",
		CancelURL:  "https://clinic.example/",
	}

	tests := []struct {
		name   string
		mutate func(p *CheckoutParams)
		want   error
	}{
		{"missing plan", func(p *CheckoutParams) { p.PlanID = "" }, ErrMissingPlan},
		{"missing account", func(p *CheckoutParams) { p.AccountID = "" }, ErrMissingAccount},
		{"relative success", func(p *CheckoutParams) { p.SuccessURL = "/success" }, ErrInvalidRedirect},
		{"javascript cancel", func(p *CheckoutParams) { p.CancelURL = "javascript:alert(1)" }, ErrInvalidRedirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := b.CreateCheckoutSession(context.Background(), p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckoutMode(t *testing.T) {
	assert.Equal(t, stripe.CheckoutSessionModePayment, checkoutMode(&stripe.Price{Type: stripe.PriceTypeOneTime}))
	assert.Equal(t, stripe.CheckoutSessionModeSubscription, checkoutMode(&stripe.Price{Type: stripe.PriceTypeRecurring}))
}

func TestVerifyWebhookSignature(t *testing.T) {
	const secret = "whsec_test"
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":"checkout.session.completed","account":"acct_clinic","api_version":%q,"data":{"object":{"id":"cs_test_1"}}}`, stripe.APIVersion))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})

	b := NewBilling("sk_test_123", WithWebhookSecret(secret))

	event, err := b.VerifyWebhookSignature(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, stripe.EventType("checkout.session.completed"), event.Type)
	assert.Equal(t, "acct_clinic", event.Account)

	_, err = b.VerifyWebhookSignature(payload, "t=1,v1=bogus")
	assert.Error(t, err)

	_, err = NewBilling("sk_test_123").VerifyWebhookSignature(signed.Payload, signed.Header)
	assert.ErrorIs(t, err, ErrWebhookDisabled)
}
