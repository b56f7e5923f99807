package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blagoySimandov/clinicbook/internal/models"
	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("account not found")

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Account, error)
	Link(ctx context.Context, userID, stripeAccountID string) error
}

type AccountRepository struct {
	db *bun.DB
}

func NewAccountRepository(db *bun.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	accountDB := new(models.AccountDB)
	err := r.db.NewSelect().
		Model(accountDB).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account for user %s: %w", userID, err)
	}
	return accountDB.ToAccount(), nil
}

func (r *AccountRepository) Link(ctx context.Context, userID, stripeAccountID string) error {
	now := time.Now()
	accountDB := models.AccountFromDomain(&models.Account{
		UserID:          userID,
		StripeAccountID: stripeAccountID,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	_, err := r.db.NewInsert().
		Model(accountDB).
		On("CONFLICT (user_id) DO UPDATE").
		Set("stripe_account_id = EXCLUDED.stripe_account_id").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to link account for user %s: %w", userID, err)
	}
	return nil
}
