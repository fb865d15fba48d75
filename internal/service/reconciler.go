package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/balbiss/pix-automatico/internal/config"
	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/logging"
	"github.com/balbiss/pix-automatico/internal/metrics"
)

type reconcilerLedger interface {
	Resolve(ctx context.Context, transactionID string) (int64, error)
	MarkConfirmed(ctx context.Context, transactionID string) error
}

type reconcilerAccounts interface {
	Get(ctx context.Context, telegramID int64) (*domain.Account, error)
	Activate(ctx context.Context, tx *sql.Tx, telegramID int64) (bool, error)
	ClaimCommissions(ctx context.Context, tx *sql.Tx, telegramID int64) (bool, error)
	CreditBalance(ctx context.Context, tx *sql.Tx, telegramID int64, amount decimal.Decimal) error
}

type deliveryNotifier interface {
	NotifyAndDeliver(ctx context.Context, accountID int64) error
}

// Outcome reports what a logically-handled payment event actually did.
type Outcome string

const (
	// OutcomeIgnored: status outside the success set, no action taken.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeActivated: this event won the activation transition.
	OutcomeActivated Outcome = "activated"
	// OutcomeAlreadyProcessed: duplicate of a fully-handled event.
	OutcomeAlreadyProcessed Outcome = "already_processed"
	// OutcomeCommissionsToppedUp: account was already activated but its
	// commission fan-out had never completed; this replay repaired it.
	OutcomeCommissionsToppedUp Outcome = "commissions_topped_up"
)

// successStatuses is the recognized terminal-success set across gateway
// versions; everything else is an intermediate state to acknowledge and drop.
var successStatuses = map[string]struct{}{
	"PAID":      {},
	"completed": {},
	"success":   {},
	"PAID_OUT":  {},
}

// Reconciler maps an inbound payment event to exactly-once side effects:
// activation, two-level commission fan-out, and a one-time delivery. It is
// safe under concurrent and duplicate invocation; the store's conditional
// updates are the only synchronization points.
type Reconciler struct {
	ledger    reconcilerLedger
	accounts  reconcilerAccounts
	notifier  deliveryNotifier
	db        *sql.DB
	pricing   *config.PricingStore
	resolvers []resolverFunc
}

func NewReconciler(
	ledger reconcilerLedger,
	accounts reconcilerAccounts,
	notifier deliveryNotifier,
	db *sql.DB,
	pricing *config.PricingStore,
) *Reconciler {
	r := &Reconciler{
		ledger:   ledger,
		accounts: accounts,
		notifier: notifier,
		db:       db,
		pricing:  pricing,
	}
	r.resolvers = []resolverFunc{
		r.ledgerResolver,
		compositeTokenResolver,
		bareTokenResolver,
	}
	return r
}

func (r *Reconciler) Process(ctx context.Context, event domain.PaymentEvent) (Outcome, error) {
	log := logging.FromContext(ctx)

	if _, ok := successStatuses[event.Status]; !ok {
		log.Debug("non-success payment event ignored",
			"transaction_id", event.TransactionID,
			"status", event.Status,
		)
		return OutcomeIgnored, nil
	}

	accountID, ok := r.resolve(ctx, event)
	if !ok {
		metrics.PaymentsUnresolved.Inc()
		return "", fmt.Errorf("Process: transaction %q correlation %q: %w",
			event.TransactionID, event.Correlation, domain.ErrUnresolvedPayment)
	}
	log = log.With("transaction_id", event.TransactionID, "account_id", accountID)

	account, err := r.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("Process: account %d: %w", accountID, domain.ErrUnknownAccount)
		}
		return "", fmt.Errorf("Process: %w", err)
	}

	if account.Activated && account.CommissionsPaid {
		metrics.PaymentsAlreadyProcessed.Inc()
		log.Info("payment already processed, no-op")
		return OutcomeAlreadyProcessed, nil
	}

	won, claimed, err := r.settle(ctx, account)
	if err != nil {
		return "", fmt.Errorf("Process: %w", err)
	}

	if !won && !claimed {
		// Lost both races to a concurrent duplicate.
		metrics.PaymentsAlreadyProcessed.Inc()
		log.Info("payment already processed, no-op")
		return OutcomeAlreadyProcessed, nil
	}

	if event.TransactionID != "" {
		if err := r.ledger.MarkConfirmed(ctx, event.TransactionID); err != nil {
			log.Warn("failed to mark ledger entry confirmed", "error", err)
		}
	}

	if !won {
		log.Info("commissions topped up for previously activated account")
		return OutcomeCommissionsToppedUp, nil
	}

	metrics.PaymentsConfirmed.Inc()
	log.Info("account activated")

	// Delivery failure never unwinds activation or commissions; an operator
	// can re-run delivery alone.
	if err := r.notifier.NotifyAndDeliver(ctx, account.TelegramID); err != nil {
		metrics.DeliveriesFailed.Inc()
		log.Error("delivery failed after activation", "error", err)
	}

	return OutcomeActivated, nil
}

func (r *Reconciler) resolve(ctx context.Context, event domain.PaymentEvent) (int64, bool) {
	for _, resolve := range r.resolvers {
		if accountID, ok := resolve(ctx, event); ok {
			return accountID, true
		}
	}
	return 0, false
}

// settle runs activation, the commission claim, and the balance credits in
// one transaction so a crash cannot strand an activated account with
// commissions half-paid. The conditional updates decide the winners; losers
// skip everything.
func (r *Reconciler) settle(ctx context.Context, account *domain.Account) (won, claimed bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("settle: begin tx: %w", err)
	}
	defer tx.Rollback()

	won, err = r.accounts.Activate(ctx, tx, account.TelegramID)
	if err != nil {
		return false, false, fmt.Errorf("settle: %w", err)
	}

	claimed, err = r.accounts.ClaimCommissions(ctx, tx, account.TelegramID)
	if err != nil {
		return false, false, fmt.Errorf("settle: %w", err)
	}

	if claimed {
		if err := r.creditSponsors(ctx, tx, account); err != nil {
			return false, false, fmt.Errorf("settle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, false, fmt.Errorf("settle: commit: %w", err)
	}
	return won, claimed, nil
}

// creditSponsors pays the flat commissions configured at this moment, not a
// share of what the buyer actually paid. L2 comes from the reference frozen
// on this account at creation, never re-derived from the live tree.
func (r *Reconciler) creditSponsors(ctx context.Context, tx *sql.Tx, account *domain.Account) error {
	if account.SponsorL1 == nil {
		return nil
	}
	pricing := r.pricing.Snapshot()

	if err := r.accounts.CreditBalance(ctx, tx, *account.SponsorL1, pricing.CommissionL1); err != nil {
		return fmt.Errorf("creditSponsors: L1: %w", err)
	}
	metrics.CommissionsCredited.WithLabelValues("1").Inc()

	if account.SponsorL2 != nil {
		if err := r.accounts.CreditBalance(ctx, tx, *account.SponsorL2, pricing.CommissionL2); err != nil {
			return fmt.Errorf("creditSponsors: L2: %w", err)
		}
		metrics.CommissionsCredited.WithLabelValues("2").Inc()
	}
	return nil
}
