package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/balbiss/pix-automatico/internal/domain"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Record inserts the transaction-to-account mapping before the buyer ever
// sees a payment code. A colliding id is surfaced as ErrDuplicateTransaction
// rather than overwritten: overwriting would misattribute a future payment.
func (r *LedgerRepository) Record(ctx context.Context, transactionID string, accountID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_entries (transaction_id, account_id, status, created_at)
		VALUES ($1, $2, $3, $4)`,
		transactionID, accountID, domain.LedgerStatusPending, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Record: %w", domain.ErrDuplicateTransaction)
		}
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Resolve(ctx context.Context, transactionID string) (int64, error) {
	var accountID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT account_id FROM ledger_entries WHERE transaction_id = $1`, transactionID,
	).Scan(&accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("Resolve: %w", domain.ErrUnknownTransaction)
		}
		return 0, fmt.Errorf("Resolve: %w", err)
	}
	return accountID, nil
}

// MarkConfirmed is idempotent; confirming an already-confirmed entry is a
// no-op, not an error.
func (r *LedgerRepository) MarkConfirmed(ctx context.Context, transactionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ledger_entries SET status = $2 WHERE transaction_id = $1`,
		transactionID, domain.LedgerStatusConfirmed,
	)
	if err != nil {
		return fmt.Errorf("MarkConfirmed: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Get(ctx context.Context, transactionID string) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := r.db.QueryRowContext(ctx,
		`SELECT transaction_id, account_id, status, created_at
		FROM ledger_entries WHERE transaction_id = $1`, transactionID,
	).Scan(&e.TransactionID, &e.AccountID, &e.Status, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrUnknownTransaction)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
