package auth

// User is the signed-in clinic staff member behind a request.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id,omitempty"`
}

type contextKey string

const UserContextKey contextKey = "user"
