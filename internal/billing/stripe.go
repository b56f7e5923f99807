package billing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/blagoySimandov/clinicbook/internal/models"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

var (
	ErrInvalidRedirect = errors.New("invalid redirect url")
	ErrMissingPlan     = errors.New("plan id is required")
	ErrMissingAccount  = errors.New("account id is required")
	ErrNoCheckoutURL   = errors.New("stripe returned no checkout url")
	ErrWebhookDisabled = errors.New("webhook secret not configured")
)

// Billing talks to Stripe on behalf of connected accounts. Every call carries the
// Stripe-Account header of the clinic whose plans are being sold.
type Billing struct {
	sc            *stripe.Client
	webhookSecret string
}

type Option func(*Billing)

func WithWebhookSecret(secret string) Option {
	return func(b *Billing) {
		b.webhookSecret = secret
	}
}

func NewBilling(secretKey string, opts ...Option) *Billing {
	return NewBillingWithClient(stripe.NewClient(secretKey), opts...)
}

func NewBillingWithClient(sc *stripe.Client, opts ...Option) *Billing {
	b := &Billing{sc: sc}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type CheckoutParams struct {
	PlanID     string
	AccountID  string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// ListPlans returns the active prices of the connected account as plans, cheapest first.
func (b *Billing) ListPlans(ctx context.Context, accountID string) ([]models.Plan, error) {
	if accountID == "" {
		return nil, ErrMissingAccount
	}

	params := &stripe.PriceListParams{Active: stripe.Bool(true)}
	params.AddExpand("data.product")
	params.SetStripeAccount(accountID)

	var prices []*stripe.Price
	for p, err := range b.sc.V1Prices.List(ctx, params) {
		if err != nil {
			return nil, fmt.Errorf("failed to list prices for account %s: %w", accountID, err)
		}
		if p.Product != nil && !p.Product.Active {
			continue
		}
		prices = append(prices, p)
	}

	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].UnitAmount < prices[j].UnitAmount
	})

	plans := make([]models.Plan, 0, len(prices))
	for _, p := range prices {
		plans = append(plans, PlanFromPrice(p))
	}
	return plans, nil
}

func (b *Billing) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (*CheckoutSession, error) {
	if in.PlanID == "" {
		return nil, ErrMissingPlan
	}
	if in.AccountID == "" {
		return nil, ErrMissingAccount
	}
	if err := ValidateRedirect(in.SuccessURL); err != nil {
		return nil, fmt.Errorf("success url: %w", err)
	}
	if err := ValidateRedirect(in.CancelURL); err != nil {
		return nil, fmt.Errorf("cancel url: %w", err)
	}

	priceParams := &stripe.PriceRetrieveParams{}
	priceParams.SetStripeAccount(in.AccountID)
	price, err := b.sc.V1Prices.Retrieve(ctx, in.PlanID, priceParams)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve price %s: %w", in.PlanID, err)
	}

	params := &stripe.CheckoutSessionCreateParams{
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(price.ID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(checkoutMode(price))),
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		Metadata: map[string]string{
			"plan_id": price.ID,
		},
	}
	params.SetStripeAccount(in.AccountID)

	session, err := b.sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	if session.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func checkoutMode(price *stripe.Price) stripe.CheckoutSessionMode {
	if price.Type == stripe.PriceTypeRecurring || price.Recurring != nil {
		return stripe.CheckoutSessionModeSubscription
	}
	return stripe.CheckoutSessionModePayment
}

func (b *Billing) VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error) {
	if b.webhookSecret == "" {
		return nil, ErrWebhookDisabled
	}
	event, err := webhook.ConstructEvent(payload, signature, b.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return &event, nil
}

// ValidateRedirect accepts only absolute http(s) URLs.
func ValidateRedirect(raw string) error {
	if raw == "" {
		return ErrInvalidRedirect
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRedirect, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidRedirect, raw)
	}
	return nil
}
