package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pix_payments_confirmed_total",
		Help: "Payment events that won the activation transition",
	})

	PaymentsAlreadyProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pix_payments_already_processed_total",
		Help: "Duplicate payment events skipped by the idempotency guard",
	})

	PaymentsUnresolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pix_payments_unresolved_total",
		Help: "Payment events that resolved to no account (operator attention)",
	})

	CommissionsCredited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pix_commissions_credited_total",
		Help: "Referral commissions credited, by sponsor level",
	}, []string{"level"})

	DeliveriesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pix_deliveries_failed_total",
		Help: "Asset deliveries that failed after activation",
	})

	ChargesDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pix_charges_ledger_degraded_total",
		Help: "Charges surfaced to the buyer without a ledger row",
	})
)
