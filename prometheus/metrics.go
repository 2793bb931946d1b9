package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Resolution outcomes by strategy
	ResolutionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_resolution_total",
			Help: "Total number of tenant resolution attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"}, // outcome: "resolved", "unresolved", "schema_missing", "directory_unavailable"
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // operation can be "create", "suspend", "delete", "retry_provision", etc.
	)

	// Provisioning outcomes
	ProvisioningCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_provisioning_total",
			Help: "Total number of tenant provisioning runs by outcome",
		},
		[]string{"outcome"}, // "success" or "failure"
	)

	// Schemas left behind by failed drops during deletion
	OrphanedSchemaCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_orphaned_schemas_total",
			Help: "Total number of schemas orphaned by failed drops during tenant deletion",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenant_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenant_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Schema DDL duration
	SchemaOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenant_schema_operation_duration_seconds",
			Help:    "Duration of schema DDL operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "create", "drop", "migrate"
	)
)

// Gauge metrics
var (
	// Active tenants
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenant_active_tenants",
			Help: "Number of currently active tenants",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tenant_service_info",
			Help: "Information about the tenant service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(ResolutionCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(ProvisioningCounter)
	prometheus.MustRegister(OrphanedSchemaCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(SchemaOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTenantsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordResolution counts one resolution attempt
func RecordResolution(strategy, outcome string) {
	ResolutionCounter.With(prometheus.Labels{"strategy": strategy, "outcome": outcome}).Inc()
}

// RecordTenantOperation counts one tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordProvisioning counts one provisioning run
func RecordProvisioning(outcome string) {
	ProvisioningCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordOrphanedSchema counts a schema left behind by a failed drop
func RecordOrphanedSchema() {
	OrphanedSchemaCounter.Inc()
}

// RecordAuthError counts one authentication error
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// TrackSchemaOperation measures schema DDL durations
func TrackSchemaOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		SchemaOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}
