package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpay_orders_total",
			Help: "Orders that reached a status, by status",
		},
		[]string{"status"},
	)

	OrderAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskpay_order_attempts",
			Help:    "Provider attempts spent per fulfillment run",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	ProviderAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpay_provider_attempts_total",
			Help: "Provider fulfillment attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpay_provider_attempt_duration_seconds",
			Help:    "Provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	LedgerPostingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpay_ledger_postings_total",
			Help: "Wallet ledger postings by transaction type and outcome",
		},
		[]string{"type", "outcome"},
	)

	RefundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpay_refunds_total",
			Help: "Order refunds by result",
		},
		[]string{"result"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpay_events_published_total",
			Help: "Order lifecycle events published",
		},
		[]string{"event", "status"},
	)

	IdempotentReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskpay_idempotent_replays_total",
			Help: "Purchase requests answered from a stored idempotent response",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordOrder(status string) {
	OrdersTotal.WithLabelValues(status).Inc()
}

func RecordOrderAttempts(attempts int) {
	OrderAttempts.Observe(float64(attempts))
}

func RecordProviderAttempt(provider, outcome string, duration float64) {
	ProviderAttemptsTotal.WithLabelValues(provider, outcome).Inc()
	ProviderAttemptDuration.WithLabelValues(provider).Observe(duration)
}

func RecordLedgerPosting(txType, outcome string) {
	LedgerPostingsTotal.WithLabelValues(txType, outcome).Inc()
}

func RecordRefund(result string) {
	RefundsTotal.WithLabelValues(result).Inc()
}

func RecordEvent(event, status string) {
	EventsPublishedTotal.WithLabelValues(event, status).Inc()
}

func RecordIdempotentReplay() {
	IdempotentReplaysTotal.Inc()
}
