package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/testutil"
)

func TestAccount_UpsertNeverRewritesLineage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	accounts := NewAccountRepository(db)

	sponsor := int64(200)
	require.NoError(t, accounts.Upsert(ctx, &domain.Account{
		TelegramID: 100,
		SponsorL1:  &sponsor,
		Balance:    decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}))

	// A second /start with a different referrer must not change anything.
	other := int64(999)
	require.NoError(t, accounts.Upsert(ctx, &domain.Account{
		TelegramID: 100,
		SponsorL1:  &other,
		Balance:    decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}))

	got, err := accounts.Get(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, got.SponsorL1)
	assert.Equal(t, int64(200), *got.SponsorL1)
}

func TestAccount_GetMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	accounts := NewAccountRepository(db)

	_, err := accounts.Get(context.Background(), 424242)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAccount_ActivateWinsOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	accounts := NewAccountRepository(db)
	testutil.SeedAccount(t, db, 100, nil, nil, decimal.Zero, false)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	won, err := accounts.Activate(ctx, tx, 100)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.True(t, won)

	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	won, err = accounts.Activate(ctx, tx, 100)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.False(t, won, "second activation must lose the conditional update")
}

func TestAccount_DebitInsufficient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	accounts := NewAccountRepository(db)
	testutil.SeedAccount(t, db, 100, nil, nil, decimal.RequireFromString("10.00"), true)

	err := accounts.DebitBalance(ctx, 100, decimal.RequireFromString("10.01"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientBalance))

	require.NoError(t, accounts.DebitBalance(ctx, 100, decimal.RequireFromString("10.00")))
	assert.True(t, testutil.GetBalance(t, db, 100).IsZero())
}

func TestAccount_CountDownline(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	accounts := NewAccountRepository(db)

	testutil.SeedAccount(t, db, 300, nil, nil, decimal.Zero, true)
	testutil.SeedAccount(t, db, 200, testutil.Int64Ptr(300), nil, decimal.Zero, true)
	testutil.SeedAccount(t, db, 101, testutil.Int64Ptr(200), testutil.Int64Ptr(300), decimal.Zero, false)
	testutil.SeedAccount(t, db, 102, testutil.Int64Ptr(200), testutil.Int64Ptr(300), decimal.Zero, false)

	l1, l2, err := accounts.CountDownline(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, 2, l1)
	assert.Equal(t, 0, l2)

	l1, l2, err = accounts.CountDownline(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, 1, l1)
	assert.Equal(t, 2, l2)
}
