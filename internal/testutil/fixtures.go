package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balbiss/pix-automatico/internal/domain"
)

func SeedAccount(t *testing.T, db *sql.DB, telegramID int64, sponsorL1, sponsorL2 *int64, balance decimal.Decimal, activated bool) *domain.Account {
	t.Helper()

	a := &domain.Account{
		TelegramID: telegramID,
		SponsorL1:  sponsorL1,
		SponsorL2:  sponsorL2,
		Balance:    balance,
		Activated:  activated,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO accounts (telegram_id, sponsor_l1, sponsor_l2, balance, activated, commissions_paid, created_at)
		 VALUES ($1, $2, $3, $4, $5, $5, $6)`,
		a.TelegramID, a.SponsorL1, a.SponsorL2, a.Balance, a.Activated, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account %d: %v", telegramID, err)
	}
	return a
}

// SetCommissionsPaid adjusts the fan-out flag independently of activation,
// reproducing the crash gap between the two transitions.
func SetCommissionsPaid(t *testing.T, db *sql.DB, telegramID int64, paid bool) {
	t.Helper()
	if _, err := db.Exec(
		`UPDATE accounts SET commissions_paid = $2 WHERE telegram_id = $1`, telegramID, paid,
	); err != nil {
		t.Fatalf("set commissions_paid %d: %v", telegramID, err)
	}
}

func GetBalance(t *testing.T, db *sql.DB, telegramID int64) decimal.Decimal {
	t.Helper()
	var balance decimal.Decimal
	if err := db.QueryRow(`SELECT balance FROM accounts WHERE telegram_id = $1`, telegramID).Scan(&balance); err != nil {
		t.Fatalf("get balance %d: %v", telegramID, err)
	}
	return balance
}

func GetActivation(t *testing.T, db *sql.DB, telegramID int64) (activated, commissionsPaid bool) {
	t.Helper()
	err := db.QueryRow(
		`SELECT activated, commissions_paid FROM accounts WHERE telegram_id = $1`, telegramID,
	).Scan(&activated, &commissionsPaid)
	if err != nil {
		t.Fatalf("get activation %d: %v", telegramID, err)
	}
	return activated, commissionsPaid
}

func Int64Ptr(v int64) *int64 { return &v }
