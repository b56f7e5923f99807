package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/blagoySimandov/clinicbook/internal/models"
)

const (
	sessionUserPath     = "/api/auth/user"
	getAccountPath      = "/api/Stripe/get-account"
	listPlansPath       = "/api/Stripe/list_plans"
	checkoutSessionPath = "/api/Stripe/create-checkout-session"
)

var ErrNoCheckoutURL = errors.New("no checkout URL received")

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("billing api error (%d)", e.Status)
	}
	return fmt.Sprintf("billing api error (%d): %s", e.Status, e.Message)
}

// Client calls the billing API on behalf of one browser visitor.
type Client struct {
	baseURL string
	http    *http.Client
	cookies []*http.Cookie
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// WithCookies returns a copy of the client that forwards the visitor's cookies,
// so the session endpoint sees the same user the browser is signed in as.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	cp := *c
	cp.cookies = cookies
	return &cp
}

func (c *Client) SessionAccountID(ctx context.Context) (string, error) {
	var resp models.SessionUserResponse
	if err := c.doRequest(ctx, http.MethodGet, sessionUserPath, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to read session user: %w", err)
	}
	return resp.StripeAccountID, nil
}

func (c *Client) LookupAccountID(ctx context.Context, userID string) (string, error) {
	var resp models.GetAccountResponse
	if err := c.doRequest(ctx, http.MethodPost, getAccountPath, models.GetAccountRequest{UserID: userID}, &resp); err != nil {
		return "", fmt.Errorf("failed to look up account: %w", err)
	}
	return resp.AccountID, nil
}

func (c *Client) ListPlans(ctx context.Context, accountID string) ([]models.Plan, error) {
	var resp models.ListPlansResponse
	if err := c.doRequest(ctx, http.MethodPost, listPlansPath, models.ListPlansRequest{AccountID: accountID}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch plans: %w", err)
	}
	if resp.Error != "" {
		return nil, &APIError{Status: http.StatusOK, Message: resp.Error}
	}
	if resp.Plans == nil {
		return []models.Plan{}, nil
	}
	return resp.Plans, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req models.CreateCheckoutSessionRequest) (string, error) {
	var resp models.CreateCheckoutSessionResponse
	if err := c.doRequest(ctx, http.MethodPost, checkoutSessionPath, req, &resp); err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	if resp.Error != "" {
		return "", &APIError{Status: http.StatusOK, Message: resp.Error}
	}
	if resp.URL == "" {
		return "", ErrNoCheckoutURL
	}
	return resp.URL, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload models.ErrorResponse
		if bodyBytes, err := io.ReadAll(resp.Body); err == nil && json.Unmarshal(bodyBytes, &payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
