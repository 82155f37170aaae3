// Package metrics provides Prometheus metrics for monitoring the planning service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// HTTP and subscription metrics
var (
	// httpRequestsTotal records the total number of HTTP requests handled.
	// Labels:
	//   - method: HTTP method (e.g., "GET", "PUT")
	//   - route: Route template (e.g., "/api/plans/:week")
	//   - status: HTTP status code (e.g., "200", "404")
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// httpRequestDuration records the duration of HTTP request handling.
	// Labels:
	//   - method: HTTP method (e.g., "GET", "PUT")
	//   - route: Route template (e.g., "/api/plans/:week")
	// Buckets: 5ms, 25ms, 100ms, 250ms, 500ms, 1s, 5s
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 5},
		},
		[]string{"method", "route"},
	)

	// activeSubscriptions tracks the number of live plan subscriptions.
	// Labels:
	//   - scope: Subscription scope (e.g., "week", "user_week")
	activeSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "plan_active_subscriptions",
			Help: "Number of live plan change subscriptions",
		},
		[]string{"scope"},
	)

	// planWritesTotal records the total number of weekly plan writes.
	// Labels:
	//   - mode: Plan mode (e.g., "daily", "summary")
	//   - status: Write status (e.g., "success", "failed")
	planWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_writes_total",
			Help: "Total number of weekly plan writes",
		},
		[]string{"mode", "status"},
	)
)

func init() {
	// Register all HTTP-related metrics with Prometheus
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(activeSubscriptions)
	prometheus.MustRegister(planWritesTotal)
}

// RecordHTTPRequest records a handled HTTP request.
func RecordHTTPRequest(method, route, status string) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordHTTPDuration records the handling duration of an HTTP request.
func RecordHTTPDuration(method, route string, durationSeconds float64) {
	httpRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// SubscriptionOpened increments the live subscription gauge for a scope.
func SubscriptionOpened(scope string) {
	activeSubscriptions.WithLabelValues(scope).Inc()
}

// SubscriptionClosed decrements the live subscription gauge for a scope.
func SubscriptionClosed(scope string) {
	activeSubscriptions.WithLabelValues(scope).Dec()
}

// RecordPlanWrite records a weekly plan write attempt.
func RecordPlanWrite(mode, status string) {
	planWritesTotal.WithLabelValues(mode, status).Inc()
}
