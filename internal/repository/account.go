package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/balbiss/pix-automatico/internal/domain"
)

const accountColumns = `telegram_id, sponsor_l1, sponsor_l2, balance,
	activated, commissions_paid, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Get(ctx context.Context, telegramID int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE telegram_id = $1`, telegramID,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

// Upsert inserts the account on first contact; a repeated /start is a no-op
// and never rewrites the sponsor lineage.
func (r *AccountRepository) Upsert(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (telegram_id, sponsor_l1, sponsor_l2, balance, activated, commissions_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (telegram_id) DO NOTHING`,
		account.TelegramID, account.SponsorL1, account.SponsorL2,
		account.Balance, account.Activated, account.CommissionsPaid, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// Activate performs the one-time false->true transition. The returned bool
// reports whether this caller won the race; a loser must skip all
// activation side effects.
func (r *AccountRepository) Activate(ctx context.Context, tx *sql.Tx, telegramID int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET activated = TRUE WHERE telegram_id = $1 AND NOT activated`,
		telegramID,
	)
	if err != nil {
		return false, fmt.Errorf("Activate: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Activate: rows affected: %w", err)
	}
	return rows == 1, nil
}

// ClaimCommissions flips the fan-out-done flag, tracked independently of
// activation so a crash between the two is recoverable by replay.
func (r *AccountRepository) ClaimCommissions(ctx context.Context, tx *sql.Tx, telegramID int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET commissions_paid = TRUE WHERE telegram_id = $1 AND NOT commissions_paid`,
		telegramID,
	)
	if err != nil {
		return false, fmt.Errorf("ClaimCommissions: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ClaimCommissions: rows affected: %w", err)
	}
	return rows == 1, nil
}

// CreditBalance is an atomic add at the store; concurrent credits to the
// same sponsor must not lose updates, so application code never does
// read-modify-write on balances.
func (r *AccountRepository) CreditBalance(ctx context.Context, tx *sql.Tx, telegramID int64, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $2 WHERE telegram_id = $1`,
		telegramID, amount,
	)
	if err != nil {
		return fmt.Errorf("CreditBalance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("CreditBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("CreditBalance: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *AccountRepository) DebitBalance(ctx context.Context, telegramID int64, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $2 WHERE telegram_id = $1 AND balance >= $2`,
		telegramID, amount,
	)
	if err != nil {
		return fmt.Errorf("DebitBalance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DebitBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("DebitBalance: %w", domain.ErrInsufficientBalance)
	}
	return nil
}

// CountDownline returns the number of direct (L1) and second-level (L2)
// referrals pointing at this account.
func (r *AccountRepository) CountDownline(ctx context.Context, telegramID int64) (l1 int, l2 int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE sponsor_l1 = $1),
			COUNT(*) FILTER (WHERE sponsor_l2 = $1)
		FROM accounts`,
		telegramID,
	).Scan(&l1, &l2)
	if err != nil {
		return 0, 0, fmt.Errorf("CountDownline: %w", err)
	}
	return l1, l2, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.TelegramID, &a.SponsorL1, &a.SponsorL2,
		&a.Balance, &a.Activated, &a.CommissionsPaid, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
