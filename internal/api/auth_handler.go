package api

import (
	"errors"
	"net/http"

	"github.com/blagoySimandov/clinicbook/internal/account"
	"github.com/blagoySimandov/clinicbook/internal/auth"
	"github.com/blagoySimandov/clinicbook/internal/logging"
	"github.com/blagoySimandov/clinicbook/internal/models"
	"github.com/rs/zerolog/log"
)

const notSignedInMessage = "Not signed in"

type AuthHandler struct {
	accounts account.Repository
}

func NewAuthHandler(accounts account.Repository) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// SessionUser answers GET /api/auth/user. The linked Stripe account is included when the
// registry has one; a registry failure degrades to a user without an account.
func (h *AuthHandler) SessionUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, notSignedInMessage)
		return
	}

	resp := models.SessionUserResponse{ID: user.ID, Email: user.Email}

	acct, err := h.accounts.GetByUserID(r.Context(), user.ID)
	switch {
	case err == nil:
		resp.StripeAccountID = acct.StripeAccountID
		logging.EnrichAccount(r.Context(), acct.StripeAccountID, string(account.SourceSession))
	case errors.Is(err, account.ErrNotFound):
	default:
		log.Warn().Err(err).Str("userId", user.ID).Msg("Failed to load linked account")
		logging.EnrichError(r.Context(), err, "session_account")
	}

	writeJSON(w, http.StatusOK, resp)
}
