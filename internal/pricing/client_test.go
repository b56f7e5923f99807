package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blagoySimandov/clinicbook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", server.Client())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSessionAccountIDForwardsCookies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/auth/user", r.URL.Path)
		cookie, err := r.Cookie("accessToken")
		if assert.NoError(t, err) {
			assert.Equal(t, "tok", cookie.Value)
		}
		writeJSON(w, http.StatusOK, models.SessionUserResponse{ID: "user_1", StripeAccountID: "acct_1"})
	})

	id, err := c.WithCookies([]*http.Cookie{{Name: "accessToken", Value: "tok"}}).SessionAccountID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acct_1", id)
}

func TestSessionAccountIDUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "not signed in"})
	})

	_, err := c.SessionAccountID(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "not signed in", apiErr.Message)
}

func TestLookupAccountID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Stripe/get-account", r.URL.Path)
		var req models.GetAccountRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user_9", req.UserID)
		writeJSON(w, http.StatusOK, models.GetAccountResponse{AccountID: "acct_9"})
	})

	id, err := c.LookupAccountID(context.Background(), "user_9")
	require.NoError(t, err)
	assert.Equal(t, "acct_9", id)
}

func TestListPlans(t *testing.T) {
	t.Run("plans", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var req models.ListPlansRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "acct_1", req.AccountID)
			writeJSON(w, http.StatusOK, models.ListPlansResponse{Plans: threePlans})
		})
		plans, err := c.ListPlans(context.Background(), "acct_1")
		require.NoError(t, err)
		assert.Equal(t, threePlans, plans)
	})

	t.Run("missing plans field is empty", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		})
		plans, err := c.ListPlans(context.Background(), "acct_1")
		require.NoError(t, err)
		assert.NotNil(t, plans)
		assert.Empty(t, plans)
	})

	t.Run("error field", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"error": "account disabled"})
		})
		_, err := c.ListPlans(context.Background(), "acct_1")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "account disabled", apiErr.Message)
	})

	t.Run("non-success status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := c.ListPlans(context.Background(), "acct_1")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	})
}

func TestCreateCheckoutSession(t *testing.T) {
	req := models.CreateCheckoutSessionRequest{
		PlanID:     "price_1",
		AccountID:  "acct_1",
		SuccessURL: "https://clinic.example/success",
		CancelURL:  "https://clinic.example/",
	}

	t.Run("url", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var got models.CreateCheckoutSessionRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, req, got)
			writeJSON(w, http.StatusOK, models.CreateCheckoutSessionResponse{URL: "https://checkout.stripe.com/x"})
		})
		u, err := c.CreateCheckoutSession(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.stripe.com/x", u)
	})

	t.Run("missing url", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{})
		})
		_, err := c.CreateCheckoutSession(context.Background(), req)
		assert.ErrorIs(t, err, ErrNoCheckoutURL)
	})

	t.Run("error field", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"error": "No such price", "url": "https://ignored"})
		})
		_, err := c.CreateCheckoutSession(context.Background(), req)
		assert.Error(t, err)
	})
}
