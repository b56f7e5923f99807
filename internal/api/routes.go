package api

import (
	"net/http"

	"github.com/blagoySimandov/clinicbook/internal/auth"
	"github.com/blagoySimandov/clinicbook/internal/metrics"
	"github.com/gorilla/mux"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Accounts      *AccountHandler
	Checkout      *CheckoutHandler
	Session       *auth.Handlers
	Identity      *auth.Middleware
	Metrics       *metrics.Metrics
	AllowedOrigin string
}

func SetupRoutes(deps RouterDeps) *mux.Router {
	r := mux.NewRouter()

	r.Use(LoggingMiddleware(deps.Metrics))
	r.Use(RecoveryMiddleware)
	r.Use(CORSMiddleware(deps.AllowedOrigin))
	r.Use(deps.Identity.Identify)

	r.HandleFunc("/healthz", Health).Methods(http.MethodGet)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/user", deps.Auth.SessionUser).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/Stripe/get-account", deps.Accounts.GetAccount).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/Stripe/account", deps.Identity.RequireAuth(http.HandlerFunc(deps.Accounts.LinkAccount))).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/Stripe/list_plans", deps.Checkout.ListPlans).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/Stripe/create-checkout-session", deps.Checkout.CreateCheckoutSession).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/Stripe/webhook", deps.Checkout.HandleWebhook).Methods(http.MethodPost)

	if deps.Session != nil {
		r.HandleFunc("/auth/login", deps.Session.Login).Methods(http.MethodGet)
		r.HandleFunc("/auth/callback", deps.Session.Callback).Methods(http.MethodGet)
		r.HandleFunc("/auth/logout", deps.Session.Logout).Methods(http.MethodPost)
	}

	return r
}
