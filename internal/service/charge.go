package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balbiss/pix-automatico/internal/config"
	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/gateway"
	"github.com/balbiss/pix-automatico/internal/logging"
	"github.com/balbiss/pix-automatico/internal/metrics"
)

type chargeGateway interface {
	CreateCharge(ctx context.Context, correlationID string, amount decimal.Decimal, description string) (*gateway.Charge, error)
}

type chargeLedger interface {
	Record(ctx context.Context, transactionID string, accountID int64) error
}

type ChargeService struct {
	gateway chargeGateway
	ledger  chargeLedger
	pricing *config.PricingStore
}

func NewChargeService(gw chargeGateway, ledger chargeLedger, pricing *config.PricingStore) *ChargeService {
	return &ChargeService{gateway: gw, ledger: ledger, pricing: pricing}
}

// ChargeResult carries the payable code for the buyer. LedgerDegraded marks
// a charge whose ledger row could not be written: reconciliation for it will
// fall back to correlation-token parsing.
type ChargeResult struct {
	TransactionID  string
	PixCode        string
	Amount         decimal.Decimal
	LedgerDegraded bool
}

// InitiateCharge creates a cash-in for the current price and records the
// transaction mapping before the payment code is handed to the buyer.
// Calling it twice creates two independent charges; the chat layer owns
// retries.
func (s *ChargeService) InitiateCharge(ctx context.Context, accountID int64) (*ChargeResult, error) {
	log := logging.FromContext(ctx)
	price := s.pricing.Snapshot().Price

	correlationID := fmt.Sprintf("TX_%d_%d", accountID, time.Now().UnixMilli())
	description := fmt.Sprintf("Compra E-book - User %d", accountID)

	charge, err := s.gateway.CreateCharge(ctx, correlationID, price, description)
	if err != nil {
		return nil, fmt.Errorf("InitiateCharge: %w", err)
	}

	result := &ChargeResult{
		TransactionID: charge.TransactionID,
		PixCode:       charge.PixCode,
		Amount:        price,
	}

	// A missing ledger row degrades reconciliation to the token fallbacks;
	// it must never block checkout.
	if err := s.ledger.Record(ctx, charge.TransactionID, accountID); err != nil {
		if errors.Is(err, domain.ErrDuplicateTransaction) {
			log.Warn("ledger collision on gateway transaction id",
				"transaction_id", charge.TransactionID,
				"account_id", accountID,
			)
		} else {
			log.Error("ledger record failed, charge continues degraded",
				"transaction_id", charge.TransactionID,
				"account_id", accountID,
				"error", err,
			)
		}
		metrics.ChargesDegraded.Inc()
		result.LedgerDegraded = true
	}

	log.Info("charge initiated",
		"account_id", accountID,
		"transaction_id", charge.TransactionID,
		"amount", price,
		"ledger_degraded", result.LedgerDegraded,
	)
	return result, nil
}
