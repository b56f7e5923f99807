package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/blagoySimandov/clinicbook/internal/billing"
	"github.com/blagoySimandov/clinicbook/internal/logging"
	"github.com/blagoySimandov/clinicbook/internal/metrics"
	"github.com/blagoySimandov/clinicbook/internal/models"
	"github.com/blagoySimandov/clinicbook/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v84"
)

type CheckoutHandler struct {
	plans   services.PlanLister
	billing services.BillingService
	metrics *metrics.Metrics
}

// NewCheckoutHandler serves listings from plans (usually a cached lister in front of
// billing) and checkout sessions from billing.
func NewCheckoutHandler(plans services.PlanLister, billing services.BillingService, m *metrics.Metrics) *CheckoutHandler {
	return &CheckoutHandler{plans: plans, billing: billing, metrics: m}
}

func (h *CheckoutHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	var req models.ListPlansRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ListPlansResponse{Plans: []models.Plan{}, Error: "Invalid request body"})
		return
	}
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, models.ListPlansResponse{Plans: []models.Plan{}, Error: "accountId is required"})
		return
	}
	logging.EnrichAccount(r.Context(), accountID, "")

	plans, err := h.plans.ListPlans(r.Context(), accountID)
	if err != nil {
		log.Error().Err(err).Str("accountId", accountID).Msg("Failed to list plans")
		logging.EnrichError(r.Context(), err, "list_plans")
		writeJSON(w, http.StatusBadGateway, models.ListPlansResponse{Plans: []models.Plan{}, Error: "Failed to load plans from Stripe"})
		return
	}
	if plans == nil {
		plans = []models.Plan{}
	}

	writeJSON(w, http.StatusOK, models.ListPlansResponse{Plans: plans})
}

func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCheckoutSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	logging.EnrichAccount(r.Context(), req.AccountID, "")
	logging.EnrichCheckout(r.Context(), req.PlanID, "")

	session, err := h.billing.CreateCheckoutSession(r.Context(), billing.CheckoutParams{
		PlanID:     strings.TrimSpace(req.PlanID),
		AccountID:  strings.TrimSpace(req.AccountID),
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		logging.EnrichError(r.Context(), err, "create_checkout_session")
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Str("planId", req.PlanID).Str("accountId", req.AccountID).Msg("Failed to create checkout session")
		writeError(w, http.StatusBadGateway, "Failed to create checkout session")
		return
	}

	logging.EnrichCheckout(r.Context(), req.PlanID, session.ID)
	writeJSON(w, http.StatusOK, models.CreateCheckoutSessionResponse{
		URL:       session.URL,
		SessionID: session.ID,
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, billing.ErrMissingPlan) ||
		errors.Is(err, billing.ErrMissingAccount) ||
		errors.Is(err, billing.ErrInvalidRedirect)
}

// HandleWebhook receives Connect events for completed checkouts.
func (h *CheckoutHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read webhook body")
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	event, err := h.billing.VerifyWebhookSignature(payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, billing.ErrWebhookDisabled) {
		writeError(w, http.StatusNotFound, "Webhooks are not enabled")
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("Webhook signature verification failed")
		logging.EnrichError(r.Context(), err, "webhook_signature")
		writeError(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		if err := h.handleCheckoutCompleted(r, event); err != nil {
			logging.EnrichError(r.Context(), err, "webhook_checkout_completed")
			writeError(w, http.StatusBadRequest, "Malformed event")
			return
		}
	default:
		log.Debug().Str("type", string(event.Type)).Msg("Ignoring webhook event")
	}

	w.WriteHeader(http.StatusOK)
}

type checkoutSessionEvent struct {
	ID            string            `json:"id"`
	Mode          string            `json:"mode"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

func (h *CheckoutHandler) handleCheckoutCompleted(r *http.Request, event *stripe.Event) error {
	var session checkoutSessionEvent
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}

	planID := session.Metadata["plan_id"]
	logging.EnrichAccount(r.Context(), event.Account, "")
	logging.EnrichCheckout(r.Context(), planID, session.ID)
	if h.metrics != nil {
		h.metrics.ObserveCheckout(metrics.OutcomeCompleted)
	}

	log.Info().
		Str("accountId", event.Account).
		Str("sessionId", session.ID).
		Str("planId", planID).
		Str("mode", session.Mode).
		Str("paymentStatus", session.PaymentStatus).
		Msg("Checkout completed")
	return nil
}
