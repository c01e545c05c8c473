package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Payment metrics
	PaymentsCreated  prometheus.Counter
	PaymentDuration  prometheus.Histogram
	PaymentAmount    prometheus.Histogram
	PaymentErrors    *prometheus.CounterVec
	PayPlansSplit    prometheus.Counter
	TransactionsPaid prometheus.Counter

	// Ledger metrics
	LedgersCreated           prometheus.Counter
	LedgerTransitions        *prometheus.CounterVec
	LedgerTransitionDuration prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBErrors  *prometheus.CounterVec
	DBRetries prometheus.Counter

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates the metrics on reg
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Payment metrics
		PaymentsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "accountledger_payments_created_total",
			Help: "Total number of payments saved",
		}),
		PaymentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "accountledger_payment_duration_seconds",
			Help:    "Duration of payment operations",
			Buckets: prometheus.DefBuckets,
		}),
		PaymentAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "accountledger_payment_amount",
			Help:    "Payment amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		PaymentErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountledger_payment_errors_total",
				Help: "Total number of rejected payments by reason",
			},
			[]string{"reason"},
		),
		PayPlansSplit: f.NewCounter(prometheus.CounterOpts{
			Name: "accountledger_pay_plans_split_total",
			Help: "Total number of installments split by a partial payment",
		}),
		TransactionsPaid: f.NewCounter(prometheus.CounterOpts{
			Name: "accountledger_transactions_paid_total",
			Help: "Total number of transactions fully paid",
		}),

		// Ledger metrics
		LedgersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "accountledger_ledgers_created_total",
			Help: "Total number of ledger entries created",
		}),
		LedgerTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountledger_ledger_transitions_total",
				Help: "Total ledger lifecycle transitions by target state and outcome",
			},
			[]string{"state", "outcome"},
		),
		LedgerTransitionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "accountledger_ledger_transition_duration_seconds",
			Help:    "Duration of conciliate and null operations",
			Buckets: prometheus.DefBuckets,
		}),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accountledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
		DBRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "accountledger_db_retries_total",
			Help: "Total retried serialization failures and deadlocks",
		}),

		// Redis metrics
		RedisOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Authentication metrics
		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Outbox metrics
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountledger_events_published_total",
				Help: "Total outbox events published by type",
			},
			[]string{"event_type"},
		),
	}
}
