package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IssuanceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_backend_issuance_total",
			Help: "Issuance requests by outcome status",
		},
		[]string{"status"},
	)

	TicketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_backend_tickets_issued_total",
			Help: "Tickets issued and delivered",
		},
	)

	LedgerFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_backend_ledger_fallback_total",
			Help: "Times an unreadable ledger was treated as empty",
		},
	)

	VerificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_backend_verification_attempts_total",
			Help: "Gateway verification calls by outcome",
		},
		[]string{"outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_backend_http_request_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "code"},
	)
)
