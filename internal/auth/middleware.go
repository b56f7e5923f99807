package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/blagoySimandov/clinicbook/internal/logging"
	"github.com/rs/zerolog/log"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	unauthorizedMessage = "Unauthorized"
)

// Refresher renews an expired session from its refresh token cookie.
type Refresher interface {
	Refresh(ctx context.Context, w http.ResponseWriter, refreshToken string) (string, error)
}

type Middleware struct {
	verifier  TokenVerifier
	refresher Refresher
}

func NewMiddleware(verifier TokenVerifier) *Middleware {
	return &Middleware{
		verifier: verifier,
	}
}

func (m *Middleware) WithRefresher(r Refresher) *Middleware {
	m.refresher = r
	return m
}

// Identify attaches the session user to the request when a valid token is present.
// Anonymous requests pass through unchanged.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserFromContext(r.Context()); ok || m.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}

		var user *User
		var err error
		if tokenString := tokenFromRequest(r); tokenString != "" {
			user, err = m.verifier.VerifyToken(tokenString)
		}
		if user == nil {
			user, err = m.refresh(w, r)
		}
		if err != nil || user == nil {
			next.ServeHTTP(w, r)
			return
		}

		logging.EnrichUser(r.Context(), user.ID, user.Email)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// refresh only applies to cookie sessions; bearer callers manage their own tokens.
func (m *Middleware) refresh(w http.ResponseWriter, r *http.Request) (*User, error) {
	if m.refresher == nil || r.Header.Get(authorizationHeader) != "" {
		return nil, nil
	}
	cookie, err := r.Cookie(REFRESH_TOKEN_COOKIE_NAME)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	accessToken, err := m.refresher.Refresh(r.Context(), w, cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("Session refresh failed")
		return nil, err
	}
	return m.verifier.VerifyToken(accessToken)
}

func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return m.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserFromContext(r.Context()); !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get(authorizationHeader); strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}
	if cookie, err := r.Cookie(ACCESS_TOKEN_COOKIE_NAME); err == nil {
		return cookie.Value
	}
	return ""
}

func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func GetUserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(UserContextKey).(*User)
	return user, ok
}
