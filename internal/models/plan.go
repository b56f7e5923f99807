package models

// Plan is a purchasable pricing plan as shown on the pricing section.
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	Interval    string   `json:"interval"`
	Features    []string `json:"features,omitempty"`
}

type ListPlansRequest struct {
	AccountID string `json:"accountId"`
}

type ListPlansResponse struct {
	Plans []Plan `json:"plans"`
	Error string `json:"error,omitempty"`
}

type GetAccountRequest struct {
	UserID string `json:"userId"`
}

type GetAccountResponse struct {
	AccountID string `json:"accountId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type LinkAccountRequest struct {
	AccountID string `json:"accountId"`
}

type SessionUserResponse struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	StripeAccountID string `json:"stripeAccountId,omitempty"`
}

type CreateCheckoutSessionRequest struct {
	PlanID     string `json:"planId"`
	AccountID  string `json:"accountId"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type CreateCheckoutSessionResponse struct {
	URL       string `json:"url,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
