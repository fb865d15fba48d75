package domain

import "time"

type LedgerStatus string

const (
	LedgerStatusPending   LedgerStatus = "pending"
	LedgerStatusConfirmed LedgerStatus = "confirmed"
)

// LedgerEntry maps a gateway-issued transaction id to the account that
// initiated the charge. Status is local bookkeeping only; the gateway stays
// the source of truth for payment state.
type LedgerEntry struct {
	TransactionID string
	AccountID     int64
	Status        LedgerStatus
	CreatedAt     time.Time
}
