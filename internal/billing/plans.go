package billing

import (
	"fmt"
	"strings"

	"github.com/blagoySimandov/clinicbook/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
)

const (
	IntervalOneTime = "one-time"

	// product metadata key holding comma-separated features when marketing features are not set
	featuresMetadataKey = "features"
)

var currencySymbols = map[string]string{
	"usd": "$",
	"cad": "CA$",
	"aud": "A$",
	"eur": "€",
	"gbp": "£",
	"jpy": "¥",
	"inr": "₹",
}

// https://docs.stripe.com/currencies#zero-decimal
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

func PlanFromPrice(p *stripe.Price) models.Plan {
	plan := models.Plan{
		ID:       p.ID,
		Name:     p.Nickname,
		Price:    FormatPrice(p.UnitAmount, string(p.Currency)),
		Interval: IntervalLabel(p),
	}

	if prod := p.Product; prod != nil {
		if prod.Name != "" {
			plan.Name = prod.Name
		}
		plan.Description = prod.Description
		plan.Features = productFeatures(prod)
	}
	if plan.Name == "" {
		plan.Name = p.ID
	}
	return plan
}

// FormatPrice renders an amount in minor units, e.g. 4900 usd -> "$49.00".
func FormatPrice(amount int64, currency string) string {
	currency = strings.ToLower(currency)
	places := int32(2)
	if zeroDecimalCurrencies[currency] {
		places = 0
	}
	value := decimal.New(amount, -places).StringFixed(places)

	if symbol, ok := currencySymbols[currency]; ok {
		return symbol + value
	}
	return fmt.Sprintf("%s %s", value, strings.ToUpper(currency))
}

func IntervalLabel(p *stripe.Price) string {
	if p.Recurring == nil {
		return IntervalOneTime
	}
	interval := string(p.Recurring.Interval)
	if p.Recurring.IntervalCount > 1 {
		return fmt.Sprintf("%d %ss", p.Recurring.IntervalCount, interval)
	}
	return interval
}

func productFeatures(prod *stripe.Product) []string {
	var features []string
	for _, f := range prod.MarketingFeatures {
		if f != nil && strings.TrimSpace(f.Name) != "" {
			features = append(features, strings.TrimSpace(f.Name))
		}
	}
	if len(features) > 0 {
		return features
	}
	for _, f := range strings.Split(prod.Metadata[featuresMetadataKey], ",") {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	return features
}
