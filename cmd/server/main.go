package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blagoySimandov/clinicbook/internal/account"
	"github.com/blagoySimandov/clinicbook/internal/api"
	"github.com/blagoySimandov/clinicbook/internal/auth"
	"github.com/blagoySimandov/clinicbook/internal/billing"
	"github.com/blagoySimandov/clinicbook/internal/cache"
	"github.com/blagoySimandov/clinicbook/internal/config"
	"github.com/blagoySimandov/clinicbook/internal/db"
	"github.com/blagoySimandov/clinicbook/internal/logger"
	"github.com/blagoySimandov/clinicbook/internal/metrics"
	"github.com/blagoySimandov/clinicbook/internal/pricing"
	"github.com/blagoySimandov/clinicbook/internal/services"
	"github.com/blagoySimandov/clinicbook/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.GetConfig()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	bunDB, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer bunDB.Close()
	accounts := account.NewAccountRepository(bunDB)

	if cfg.DefaultStripeAccountID == "" {
		log.Warn().Msg("DEFAULT_STRIPE_ACCOUNT_ID is not set; visitors without a linked account will see the error state")
	}

	stripeBilling := billing.NewBilling(cfg.StripeSecretKey, billing.WithWebhookSecret(cfg.StripeWebhookSecret))
	planLister := services.NewCachedPlanLister(stripeBilling, newPlanCache(ctx, cfg))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	var verifier auth.TokenVerifier
	var sessionHandlers *auth.Handlers
	if cfg.WorkOSClientID != "" {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.WorkOSClientID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create JWT verifier")
		}
		defer jwtVerifier.Close()
		verifier = jwtVerifier

		auth.Configure(cfg.WorkOSApiKey)
		sessionHandlers = auth.NewHandlers(auth.WorkOSProvider(), cfg.WorkOSClientID, cfg.WorkOSRedirectURL, cfg.CookieSecure)
	} else {
		log.Warn().Msg("WORKOS_CLIENT_ID is not set; all visitors are anonymous")
	}

	identity := auth.NewMiddleware(verifier)
	if sessionHandlers != nil {
		identity.WithRefresher(sessionHandlers)
	}

	router := api.SetupRoutes(api.RouterDeps{
		Auth:          api.NewAuthHandler(accounts),
		Accounts:      api.NewAccountHandler(accounts),
		Checkout:      api.NewCheckoutHandler(planLister, stripeBilling, m),
		Session:       sessionHandlers,
		Identity:      identity,
		Metrics:       m,
		AllowedOrigin: cfg.FE_BASE_URL,
	})

	billingClient := pricing.NewClient(cfg.BillingAPIBaseURL, nil)
	flow := pricing.NewFlow(billingClient, pricing.Config{
		DefaultAccountID: cfg.DefaultStripeAccountID,
		DashboardURL:     cfg.DashboardBillingURL,
		SuccessPath:      cfg.SuccessPath,
		Observer:         m,
	})
	webHandlers, err := web.NewHandlers(flow, billingClient, web.Config{
		PublicBaseURL: cfg.PublicBaseURL,
		SecureCookie:  cfg.CookieSecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create web handlers")
	}
	webHandlers.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", cfg.ServerAddr).Msg("Server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed to start")
	}

	log.Info().Msg("Server stopped")
}

// newPlanCache prefers Redis so replicas share listings, and falls back to an
// in-process LRU when Redis is not configured or unreachable. A zero TTL disables caching.
func newPlanCache(ctx context.Context, cfg *config.Config) cache.PlanCache {
	if cfg.PlanCacheTTL <= 0 {
		return cache.Nop{}
	}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis plan cache")
			return cache.NewRedisPlanCache(client, cfg.PlanCacheTTL)
		}
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory plan cache")
	}
	return cache.NewInMemoryPlanCache(cfg.PlanCacheSize, cfg.PlanCacheTTL)
}
