package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/blagoySimandov/clinicbook/internal/account"
	"github.com/blagoySimandov/clinicbook/internal/auth"
	"github.com/blagoySimandov/clinicbook/internal/logging"
	"github.com/blagoySimandov/clinicbook/internal/models"
	"github.com/rs/zerolog/log"
)

const connectedAccountPrefix = "acct_"

type AccountHandler struct {
	accounts account.Repository
}

func NewAccountHandler(accounts account.Repository) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// GetAccount answers POST /api/Stripe/get-account. An empty userId means the session user.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	var req models.GetAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		if user, ok := auth.GetUserFromContext(r.Context()); ok {
			userID = user.ID
		}
	}
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	acct, err := h.accounts.GetByUserID(r.Context(), userID)
	if errors.Is(err, account.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, models.GetAccountResponse{Error: "No account linked to this user"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("Failed to look up account")
		logging.EnrichError(r.Context(), err, "get_account")
		writeError(w, http.StatusInternalServerError, "Failed to look up account")
		return
	}

	logging.EnrichAccount(r.Context(), acct.StripeAccountID, string(account.SourceLookup))
	writeJSON(w, http.StatusOK, models.GetAccountResponse{AccountID: acct.StripeAccountID})
}

// LinkAccount answers PUT /api/Stripe/account for the signed-in user.
func (h *AccountHandler) LinkAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, notSignedInMessage)
		return
	}

	var req models.LinkAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	accountID := strings.TrimSpace(req.AccountID)
	if !strings.HasPrefix(accountID, connectedAccountPrefix) {
		writeError(w, http.StatusBadRequest, "accountId must be a Stripe connected account id")
		return
	}

	if err := h.accounts.Link(r.Context(), user.ID, accountID); err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("Failed to link account")
		logging.EnrichError(r.Context(), err, "link_account")
		writeError(w, http.StatusInternalServerError, "Failed to link account")
		return
	}

	log.Info().Str("userId", user.ID).Str("accountId", accountID).Msg("Linked Stripe account")
	logging.EnrichAccount(r.Context(), accountID, string(account.SourceSession))
	writeJSON(w, http.StatusOK, models.GetAccountResponse{AccountID: accountID})
}
