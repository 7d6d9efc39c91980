package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route, method and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// Order placement outcomes: success, not_found, insufficient_stock, error
	OrderPlacements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_placements_total",
		Help: "Order placement attempts by outcome",
	}, []string{"outcome"})

	OrderPlacementDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_duration_seconds",
		Help:    "Duration of the order placement transaction",
		Buckets: prometheus.DefBuckets,
	})

	TxRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "db_transaction_retries_total",
		Help: "Transactions retried after serialization or deadlock failures",
	})

	AuditDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_records_dropped_total",
		Help: "Audit records dropped because the queue was full",
	})

	ReportExecutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_executions_total",
		Help: "Report executions by format and status",
	}, []string{"format", "status"})
)

func Init() {
	prometheus.MustRegister(
		HTTPRequestDuration,
		HTTPRequestsTotal,
		OrderPlacements,
		OrderPlacementDuration,
		TxRetries,
		AuditDropped,
		ReportExecutions,
	)
}
