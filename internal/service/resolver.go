package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/balbiss/pix-automatico/internal/domain"
)

// Identity resolution tries an ordered list of strategies and stops at the
// first hit. The ledger is authoritative; the token parsers exist only for
// events created before the ledger was introduced, and are easy to retire
// without touching the reconciliation algorithm.
type resolverFunc func(ctx context.Context, event domain.PaymentEvent) (int64, bool)

func (r *Reconciler) ledgerResolver(ctx context.Context, event domain.PaymentEvent) (int64, bool) {
	if event.TransactionID == "" {
		return 0, false
	}
	accountID, err := r.ledger.Resolve(ctx, event.TransactionID)
	if err != nil {
		return 0, false
	}
	return accountID, true
}

func compositeTokenResolver(_ context.Context, event domain.PaymentEvent) (int64, bool) {
	return parseCompositeToken(event.Correlation)
}

func bareTokenResolver(_ context.Context, event domain.PaymentEvent) (int64, bool) {
	return parseBareToken(event.Correlation)
}

// parseCompositeToken extracts the account id from a <prefix>_<accountID>_<epochMillis>
// token. A truncated token with only <prefix>_<accountID> still resolves.
func parseCompositeToken(token string) (int64, bool) {
	parts := strings.Split(token, "_")
	if len(parts) < 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseBareToken treats the whole correlation field as the account id, the
// oldest correlation scheme.
func parseBareToken(token string) (int64, bool) {
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
