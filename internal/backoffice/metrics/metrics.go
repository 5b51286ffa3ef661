package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoffice_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	WithdrawalsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_withdrawals_created_total",
			Help: "Total number of withdrawal requests created",
		},
		[]string{"family"},
	)

	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_decisions_total",
			Help: "Total number of review decisions",
		},
		[]string{"family", "action", "outcome"},
	)

	NotificationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_notification_events_total",
			Help: "Total number of notification events by delivery status",
		},
		[]string{"status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordWithdrawalCreated(family string) {
	WithdrawalsCreatedTotal.WithLabelValues(family).Inc()
}

func RecordDecision(family, action, outcome string) {
	DecisionsTotal.WithLabelValues(family, action, outcome).Inc()
}

func RecordNotification(status string) {
	NotificationEventsTotal.WithLabelValues(status).Inc()
}
