package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Account links an authenticated user to the Stripe connected account whose plans they sell.
type Account struct {
	UserID          string    `json:"user_id"`
	StripeAccountID string    `json:"stripe_account_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AccountDB struct {
	bun.BaseModel `bun:"table:stripe_accounts,alias:sa"`

	UserID          string    `bun:"user_id,pk"`
	StripeAccountID string    `bun:"stripe_account_id,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func (a *AccountDB) ToAccount() *Account {
	return &Account{
		UserID:          a.UserID,
		StripeAccountID: a.StripeAccountID,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func AccountFromDomain(a *Account) *AccountDB {
	return &AccountDB{
		UserID:          a.UserID,
		StripeAccountID: a.StripeAccountID,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
