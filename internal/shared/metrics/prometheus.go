package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	complaintsFiled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaints_filed_total",
			Help: "Total number of complaints filed",
		},
		[]string{"category", "priority", "department"},
	)

	complaintStatusChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_status_changed_total",
			Help: "Total number of complaint status changes",
		},
		[]string{"from_status", "to_status"},
	)

	routingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_routing_failures_total",
			Help: "Total number of complaints rejected because no department matched",
		},
		[]string{"category"},
	)

	feedbackRatings = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "complaint_feedback_rating",
			Help:    "Distribution of citizen feedback ratings",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
		[]string{"department"},
	)

	notificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notification dispatch attempts",
		},
		[]string{"channel", "status"},
	)

	attachmentsUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachments_uploaded_total",
			Help: "Total number of attachment uploads",
		},
		[]string{"content_type", "outcome"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath caps path cardinality for metrics labels
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordComplaintFiled records a complaint creation
func RecordComplaintFiled(category, priority, department string) {
	complaintsFiled.WithLabelValues(category, priority, department).Inc()
}

// RecordStatusChange records a complaint status change
func RecordStatusChange(fromStatus, toStatus string) {
	complaintStatusChanged.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordRoutingFailure records a complaint rejected during routing
func RecordRoutingFailure(category string) {
	routingFailures.WithLabelValues(category).Inc()
}

// RecordFeedback records a citizen feedback rating
func RecordFeedback(department string, rating int) {
	feedbackRatings.WithLabelValues(department).Observe(float64(rating))
}

// RecordNotification records a notification dispatch outcome
func RecordNotification(channel, status string) {
	notificationsDispatched.WithLabelValues(channel, status).Inc()
}

// RecordAttachmentUpload records an attachment upload attempt
func RecordAttachmentUpload(contentType, outcome string) {
	attachmentsUploaded.WithLabelValues(contentType, outcome).Inc()
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
