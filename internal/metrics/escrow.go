package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameEscrowHeld            = "escrow_held"
	NameTotalFeesCollected    = "total_fees_collected"
	NameTotalPaymentsReleased = "total_payments_released"
	NameTotalEscrowedAmount   = "total_escrowed_amount"
	NameTotalRefundedAmount   = "total_refunded_amount"
)

var EscrowHeld = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name:      NameEscrowHeld,
		Help:      "Current escrow balance held by the registry",
		Namespace: Namespace,
	},
)

var TotalFeesCollected = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameTotalFeesCollected,
		Help:      "Total platform fees collected",
		Namespace: Namespace,
	},
)

var TotalPaymentsReleased = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameTotalPaymentsReleased,
		Help:      "Total amount released to freelancers",
		Namespace: Namespace,
	},
)

var TotalEscrowedAmount = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameTotalEscrowedAmount,
		Help:      "Total amount ever escrowed",
		Namespace: Namespace,
	},
)

var TotalRefundedAmount = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameTotalRefundedAmount,
		Help:      "Total amount refunded to clients",
		Namespace: Namespace,
	},
)
