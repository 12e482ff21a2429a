package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Movement metrics
	Movements         *prometheus.CounterVec
	MovementDuration  *prometheus.HistogramVec
	MovementAmount    *prometheus.HistogramVec
	MovementErrors    *prometheus.CounterVec
	UnitOfWorkRetries prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter

	// Ledger metrics
	LedgerConsistent prometheus.Gauge
	EntryCache       *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all Prometheus metrics and registers them with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Movement metrics
		Movements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_movements_total",
				Help: "Total number of completed fund movements by kind",
			},
			[]string{"kind"},
		),
		MovementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_movement_duration_seconds",
				Help:    "Duration of fund movements including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		MovementAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_movement_amount",
				Help:    "Fund movement amounts",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"kind"},
		),
		MovementErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_movement_errors_total",
				Help: "Total number of failed fund movements by kind and error kind",
			},
			[]string{"kind", "error_kind"},
		),
		UnitOfWorkRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_unit_of_work_retries_total",
			Help: "Total number of unit of work retries after store conflicts",
		}),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		// Ledger metrics
		LedgerConsistent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bankledger_ledger_consistent",
			Help: "1 if the last ledger audit found no violations, 0 otherwise",
		}),
		EntryCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_entry_cache_total",
				Help: "Entry cache lookups by result",
			},
			[]string{"result"},
		),

		// Outbox metrics
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_outbox_published_total",
			Help: "Total number of outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_outbox_errors_total",
			Help: "Total number of outbox publish failures",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bankledger_db_connections",
			Help: "Current number of database connections",
		}),

		// Authentication metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}

// RecordMovement records a completed movement. Safe on a nil receiver.
func (m *Metrics) RecordMovement(kind string, amount decimal.Decimal, duration time.Duration) {
	if m == nil {
		return
	}

	m.Movements.WithLabelValues(kind).Inc()
	m.MovementDuration.WithLabelValues(kind).Observe(duration.Seconds())
	m.MovementAmount.WithLabelValues(kind).Observe(amount.InexactFloat64())
}

// RecordMovementError records a failed movement. Safe on a nil receiver.
func (m *Metrics) RecordMovementError(kind, errKind string) {
	if m == nil {
		return
	}

	m.MovementErrors.WithLabelValues(kind, errKind).Inc()
}

// RecordRetry counts one unit of work retry. Safe on a nil receiver.
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}

	m.UnitOfWorkRetries.Inc()
}

// RecordAccountCreated counts a registered account. Safe on a nil receiver.
func (m *Metrics) RecordAccountCreated() {
	if m == nil {
		return
	}

	m.AccountsCreated.Inc()
}

// RecordCacheLookup counts an entry cache hit or miss. Safe on a nil receiver.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	m.EntryCache.WithLabelValues(result).Inc()
}

// RecordConsistency stores the outcome of the last ledger audit. Safe on a nil receiver.
func (m *Metrics) RecordConsistency(consistent bool) {
	if m == nil {
		return
	}

	if consistent {
		m.LedgerConsistent.Set(1)
		return
	}

	m.LedgerConsistent.Set(0)
}
