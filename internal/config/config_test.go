package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEFAULT_STRIPE_ACCOUNT_ID", "")
	t.Setenv("PLAN_CACHE_TTL", "")
	t.Setenv("DASHBOARD_BILLING_URL", "")

	cfg := Load()

	assert.Empty(t, cfg.DefaultStripeAccountID)
	assert.Equal(t, 5*time.Minute, cfg.PlanCacheTTL)
	assert.Equal(t, "/dashboard/billing", cfg.DashboardBillingURL)
	assert.Equal(t, "/success", cfg.SuccessPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DEFAULT_STRIPE_ACCOUNT_ID", "acct_default")
	t.Setenv("PLAN_CACHE_TTL", "30s")
	t.Setenv("PLAN_CACHE_SIZE", "not-a-number")
	t.Setenv("COOKIE_SECURE", "true")

	cfg := Load()

	assert.Equal(t, "acct_default", cfg.DefaultStripeAccountID)
	assert.Equal(t, 30*time.Second, cfg.PlanCacheTTL)
	assert.Equal(t, 256, cfg.PlanCacheSize)
	assert.True(t, cfg.CookieSecure)
}
