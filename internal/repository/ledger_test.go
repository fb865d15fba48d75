package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/testutil"
)

func TestLedger_RecordResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	ledger := NewLedgerRepository(db)

	require.NoError(t, ledger.Record(ctx, "tx-1", 555123))

	accountID, err := ledger.Resolve(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, int64(555123), accountID)

	entry, err := ledger.Get(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LedgerStatusPending, entry.Status)
}

func TestLedger_DuplicateRecordNeverOverwrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	ledger := NewLedgerRepository(db)

	require.NoError(t, ledger.Record(ctx, "tx-1", 555123))

	err := ledger.Record(ctx, "tx-1", 999999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateTransaction))

	// The original mapping survives.
	accountID, err := ledger.Resolve(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, int64(555123), accountID)
}

func TestLedger_ResolveUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ledger := NewLedgerRepository(db)

	_, err := ledger.Resolve(context.Background(), "tx-nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownTransaction))
}

func TestLedger_MarkConfirmedIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	ledger := NewLedgerRepository(db)

	require.NoError(t, ledger.Record(ctx, "tx-1", 555123))

	require.NoError(t, ledger.MarkConfirmed(ctx, "tx-1"))
	require.NoError(t, ledger.MarkConfirmed(ctx, "tx-1"))

	entry, err := ledger.Get(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LedgerStatusConfirmed, entry.Status)

	// Confirming an id nobody recorded is also a no-op.
	require.NoError(t, ledger.MarkConfirmed(ctx, "tx-nowhere"))
}
