package account

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newMockRepo(t *testing.T) (*AccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { db.Close() })
	return NewAccountRepository(db), mock
}

func TestGetByUserID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"user_id", "stripe_account_id", "created_at", "updated_at"}).
		AddRow("user_1", "acct_123", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "stripe_accounts" AS "sa" WHERE (user_id = 'user_1')`)).
		WillReturnRows(rows)

	acc, err := repo.GetByUserID(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "acct_123", acc.StripeAccountID)
	assert.Equal(t, "user_1", acc.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUserIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "stripe_accounts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "stripe_account_id", "created_at", "updated_at"}))

	_, err := repo.GetByUserID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByUserIDQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "stripe_accounts"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByUserID(context.Background(), "user_1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLinkUpserts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "stripe_accounts"`) + `.*` + regexp.QuoteMeta(`ON CONFLICT (user_id) DO UPDATE`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Link(context.Background(), "user_1", "acct_123"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
