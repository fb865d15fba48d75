package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is one chat-platform end user. Sponsor references are captured
// once at creation: SponsorL2 is the sponsor's own SponsorL1 at that moment
// and is never recomputed from the live tree.
type Account struct {
	TelegramID      int64
	SponsorL1       *int64
	SponsorL2       *int64
	Balance         decimal.Decimal
	Activated       bool
	CommissionsPaid bool
	CreatedAt       time.Time
}
