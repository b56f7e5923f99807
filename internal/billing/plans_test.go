package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v84"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		want     string
	}{
		{4900, "usd", "$49.00"},
		{4950, "USD", "$49.50"},
		{5, "eur", "€0.05"},
		{1500, "jpy", "¥1500"},
		{12000, "chf", "120.00 CHF"},
		{0, "gbp", "£0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(tt.amount, tt.currency))
		})
	}
}

func TestIntervalLabel(t *testing.T) {
	assert.Equal(t, IntervalOneTime, IntervalLabel(&stripe.Price{}))
	assert.Equal(t, "month", IntervalLabel(&stripe.Price{
		Recurring: &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth, IntervalCount: 1},
	}))
	assert.Equal(t, "3 months", IntervalLabel(&stripe.Price{
		Recurring: &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth, IntervalCount: 3},
	}))
}

func TestPlanFromPrice(t *testing.T) {
	price := &stripe.Price{
		ID:         "price_family",
		Currency:   stripe.CurrencyUSD,
		UnitAmount: 9900,
		Recurring:  &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalYear, IntervalCount: 1},
		Product: &stripe.Product{
			Name:        "Family Care",
			Description: "Checkups for the whole family",
			Active:      true,
			MarketingFeatures: []*stripe.ProductMarketingFeature{
				{Name: "4 consultations"},
				{Name: "  "},
				{Name: "Priority booking"},
			},
		},
	}

	plan := PlanFromPrice(price)

	assert.Equal(t, "price_family", plan.ID)
	assert.Equal(t, "Family Care", plan.Name)
	assert.Equal(t, "$99.00", plan.Price)
	assert.Equal(t, "year", plan.Interval)
	assert.Equal(t, "Checkups for the whole family", plan.Description)
	assert.Equal(t, []string{"4 consultations", "Priority booking"}, plan.Features)
}

func TestPlanFromPriceMetadataFeaturesAndNickname(t *testing.T) {
	price := &stripe.Price{
		ID:         "price_basic",
		Nickname:   "Basic visit",
		Currency:   stripe.CurrencyEUR,
		UnitAmount: 2500,
		Product: &stripe.Product{
			Metadata: map[string]string{"features": "Consultation, Prescription ,"},
		},
	}

	plan := PlanFromPrice(price)

	assert.Equal(t, "Basic visit", plan.Name)
	assert.Equal(t, IntervalOneTime, plan.Interval)
	assert.Equal(t, []string{"Consultation", "Prescription"}, plan.Features)
}

func TestPlanFromPriceWithoutProduct(t *testing.T) {
	plan := PlanFromPrice(&stripe.Price{ID: "price_x", Currency: stripe.CurrencyUSD, UnitAmount: 100})
	assert.Equal(t, "price_x", plan.Name)
	assert.Nil(t, plan.Features)
}
