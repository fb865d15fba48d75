package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/balbiss/pix-automatico/internal/config"
	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/logging"
)

type payoutGateway interface {
	CreatePayout(ctx context.Context, pixKey string, amount decimal.Decimal, description string) (string, error)
}

type withdrawAccounts interface {
	Get(ctx context.Context, telegramID int64) (*domain.Account, error)
	DebitBalance(ctx context.Context, telegramID int64, amount decimal.Decimal) error
}

type WithdrawService struct {
	gateway  payoutGateway
	accounts withdrawAccounts
	pricing  *config.PricingStore
}

func NewWithdrawService(gw payoutGateway, accounts withdrawAccounts, pricing *config.PricingStore) *WithdrawService {
	return &WithdrawService{gateway: gw, accounts: accounts, pricing: pricing}
}

type WithdrawResult struct {
	ReferenceID string
	Paid        decimal.Decimal
}

// Withdraw pays out the full balance minus the flat fee to the given pix
// key. The balance is settled only after the gateway hands back a reference
// id, and by the amount read, so a commission arriving mid-payout is kept.
func (s *WithdrawService) Withdraw(ctx context.Context, accountID int64, rawKey string) (*WithdrawResult, error) {
	log := logging.FromContext(ctx)

	pixKey := digitsOnly(rawKey)
	if len(pixKey) != 11 {
		return nil, fmt.Errorf("Withdraw: %w", domain.ErrInvalidPixKey)
	}

	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	pricing := s.pricing.Snapshot()
	if account.Balance.LessThan(pricing.WithdrawMin) {
		return nil, fmt.Errorf("Withdraw: balance %s below %s: %w",
			account.Balance, pricing.WithdrawMin, domain.ErrBelowMinimum)
	}

	paid := account.Balance.Sub(pricing.WithdrawFee)
	description := fmt.Sprintf("Saque - User %d", accountID)

	ref, err := s.gateway.CreatePayout(ctx, pixKey, paid, description)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	if err := s.accounts.DebitBalance(ctx, accountID, account.Balance); err != nil {
		// Money left the gateway but the local balance did not settle;
		// this needs an operator, not a retry.
		log.Error("payout sent but balance debit failed",
			"account_id", accountID,
			"reference_id", ref,
			"amount", account.Balance,
			"error", err,
		)
		return nil, fmt.Errorf("Withdraw: settle after payout %s: %w", ref, err)
	}

	log.Info("withdrawal completed",
		"account_id", accountID,
		"reference_id", ref,
		"paid", paid,
	)
	return &WithdrawResult{ReferenceID: ref, Paid: paid}, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
