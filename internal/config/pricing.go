package config

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Pricing is the runtime-mutable money configuration. Services read a
// Snapshot at the moment of each operation; commissions are flat amounts,
// not a share of the price actually paid.
type Pricing struct {
	Price        decimal.Decimal
	CommissionL1 decimal.Decimal
	CommissionL2 decimal.Decimal
	WithdrawMin  decimal.Decimal
	WithdrawFee  decimal.Decimal
}

func (c *Config) InitialPricing() (Pricing, error) {
	var (
		p   Pricing
		err error
	)
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"PRODUCT_PRICE", c.ProductPrice, &p.Price},
		{"COMMISSION_L1", c.CommissionL1, &p.CommissionL1},
		{"COMMISSION_L2", c.CommissionL2, &p.CommissionL2},
		{"WITHDRAW_MIN", c.WithdrawMin, &p.WithdrawMin},
		{"WITHDRAW_FEE", c.WithdrawFee, &p.WithdrawFee},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return Pricing{}, fmt.Errorf("InitialPricing: %s: %w", f.name, err)
		}
	}
	return p, nil
}

// PricingStore hands out consistent snapshots while operator commands
// mutate price and commissions at runtime.
type PricingStore struct {
	mu      sync.RWMutex
	current Pricing
}

func NewPricingStore(p Pricing) *PricingStore {
	return &PricingStore{current: p}
}

func (s *PricingStore) Snapshot() Pricing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *PricingStore) SetPrice(price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Price = price
}

func (s *PricingStore) SetCommissions(l1, l2 decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.CommissionL1 = l1
	s.current.CommissionL2 = l2
}
