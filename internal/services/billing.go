package services

import (
	"context"

	"github.com/blagoySimandov/clinicbook/internal/billing"
	"github.com/blagoySimandov/clinicbook/internal/models"
	"github.com/stripe/stripe-go/v84"
)

type PlanLister interface {
	ListPlans(ctx context.Context, accountID string) ([]models.Plan, error)
}

type BillingService interface {
	PlanLister
	CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error)
	VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error)
}
