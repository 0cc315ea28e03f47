// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by route, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// NotificationsTotal counts delivery attempts per channel (push/sms/email).
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_notifications_total",
			Help: "Total number of notification deliveries by channel and outcome.",
		},
		[]string{"channel", "status"},
	)

	// JobTransitionsTotal counts lifecycle transitions by resulting status.
	JobTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_job_transitions_total",
			Help: "Total number of job lifecycle transitions.",
		},
		[]string{"status"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter.",
		},
		[]string{"path"},
	)
)

// RecordNotification increments NotificationsTotal for a delivery attempt.
func RecordNotification(channel string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	NotificationsTotal.WithLabelValues(channel, status).Inc()
}
