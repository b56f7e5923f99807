package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/workos/workos-go/v4/pkg/usermanagement"
)

// SessionProvider is the slice of WorkOS user management the handlers need.
type SessionProvider interface {
	GetAuthorizationURL(opts usermanagement.GetAuthorizationURLOpts) (string, error)
	AuthenticateWithCode(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error)
	AuthenticateWithRefreshToken(ctx context.Context, opts usermanagement.AuthenticateWithRefreshTokenOpts) (usermanagement.RefreshAuthenticationResponse, error)
}

type workosProvider struct{}

func (workosProvider) GetAuthorizationURL(opts usermanagement.GetAuthorizationURLOpts) (string, error) {
	u, err := usermanagement.GetAuthorizationURL(opts)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (workosProvider) AuthenticateWithCode(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
	return usermanagement.AuthenticateWithCode(ctx, opts)
}

func (workosProvider) AuthenticateWithRefreshToken(ctx context.Context, opts usermanagement.AuthenticateWithRefreshTokenOpts) (usermanagement.RefreshAuthenticationResponse, error) {
	return usermanagement.AuthenticateWithRefreshToken(ctx, opts)
}

// WorkOSProvider returns the live WorkOS user management API. Configure must be called first.
func WorkOSProvider() SessionProvider {
	return workosProvider{}
}

func Configure(apiKey string) {
	usermanagement.SetAPIKey(apiKey)
}

type Handlers struct {
	provider     SessionProvider
	clientID     string
	redirectURI  string
	secureCookie bool
}

func NewHandlers(provider SessionProvider, clientID, redirectURI string, secureCookie bool) *Handlers {
	return &Handlers{
		provider:     provider,
		clientID:     clientID,
		redirectURI:  redirectURI,
		secureCookie: secureCookie,
	}
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	authorizationURL, err := h.provider.GetAuthorizationURL(
		usermanagement.GetAuthorizationURLOpts{
			ClientID:    h.clientID,
			Provider:    "authkit",
			RedirectURI: h.redirectURI,
		},
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build authorization URL")
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authorizationURL, http.StatusSeeOther)
}

func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSONError(w, http.StatusBadRequest, "missing_code", "Missing authorization code")
		return
	}

	resp, err := h.provider.AuthenticateWithCode(r.Context(), usermanagement.AuthenticateWithCodeOpts{
		ClientID: h.clientID,
		Code:     code,
	})
	if err != nil {
		log.Warn().Err(err).Msg("WorkOS code exchange failed")
		writeJSONError(w, http.StatusUnauthorized, "authentication_failed", "Authentication failed")
		return
	}

	h.setCookie(w, ACCESS_TOKEN_COOKIE_NAME, resp.AccessToken, 0)
	h.setCookie(w, REFRESH_TOKEN_COOKIE_NAME, resp.RefreshToken, 0)

	log.Info().Str("user_id", resp.User.ID).Msg("Logged in")
	http.Redirect(w, r, DefaultRedirectAfterLogin, http.StatusSeeOther)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, ACCESS_TOKEN_COOKIE_NAME, "", -1)
	h.setCookie(w, REFRESH_TOKEN_COOKIE_NAME, "", -1)
	http.Redirect(w, r, DefaultRedirectAfterLogin, http.StatusSeeOther)
}

// Refresh trades a refresh token for a new session and rotates both cookies.
func (h *Handlers) Refresh(ctx context.Context, w http.ResponseWriter, refreshToken string) (string, error) {
	resp, err := h.provider.AuthenticateWithRefreshToken(ctx, usermanagement.AuthenticateWithRefreshTokenOpts{
		ClientID:     h.clientID,
		RefreshToken: refreshToken,
	})
	if err != nil {
		return "", err
	}

	h.setCookie(w, ACCESS_TOKEN_COOKIE_NAME, resp.AccessToken, 0)
	h.setCookie(w, REFRESH_TOKEN_COOKIE_NAME, resp.RefreshToken, 0)
	return resp.AccessToken, nil
}

func (h *Handlers) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
