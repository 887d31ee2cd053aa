package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "path", "status"},
	)

	cloudRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloud_requests_total",
			Help: "Total signed calls against the device cloud",
		},
		[]string{"operation", "outcome"},
	)

	tokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloud_token_refresh_total",
			Help: "Total access-token acquisition attempts",
		},
		[]string{"outcome"},
	)

	deviceSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "device_sync_total",
			Help: "Total device reconciliation cycles",
		},
		[]string{"outcome"},
	)

	energySamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "energy_samples_total",
			Help: "Total energy samples written to hourly buckets",
		},
	)

	energyCycleFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "energy_cycle_failures_total",
			Help: "Total failed energy aggregation cycles",
		},
	)

	authRateLimitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rate_limit_total",
			Help: "Total auth rate limit blocks",
		},
		[]string{"path"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		cloudRequestsTotal,
		tokenRefreshTotal,
		deviceSyncTotal,
		energySamplesTotal,
		energyCycleFailuresTotal,
		authRateLimitTotal,
	)
}

func ObserveHTTP(method, path, status string) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
}

func ObserveHTTPDuration(method, path, status string, seconds float64) {
	httpRequestDurationSeconds.WithLabelValues(method, path, status).Observe(seconds)
}

func CloudRequest(operation, outcome string) {
	cloudRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

func TokenRefresh(outcome string) {
	tokenRefreshTotal.WithLabelValues(outcome).Inc()
}

func DeviceSync(outcome string) {
	deviceSyncTotal.WithLabelValues(outcome).Inc()
}

func EnergySampled() {
	energySamplesTotal.Inc()
}

func EnergyCycleFailed() {
	energyCycleFailuresTotal.Inc()
}

func AuthRateLimited(path string) {
	authRateLimitTotal.WithLabelValues(path).Inc()
}
