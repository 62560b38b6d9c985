package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Webhook deliveries by gateway and final outcome",
		},
		[]string{"gateway", "outcome"},
	)

	OrderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Order status transitions applied by the reconciler",
		},
		[]string{"from", "to"},
	)

	WebhookProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_processing_duration_seconds",
			Help:    "Time spent handling one webhook delivery",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"gateway"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(WebhookDeliveriesTotal)
	prometheus.MustRegister(OrderTransitionsTotal)
	prometheus.MustRegister(WebhookProcessingDuration)
	prometheus.MustRegister(HTTPRequestsTotal)
}
