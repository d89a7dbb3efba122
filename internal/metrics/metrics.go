package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dailyreport_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dailyreport_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dailyreport_submissions_total",
			Help: "Daily report submissions",
		},
		[]string{"kind"}, // first, resubmit
	)

	reviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dailyreport_reviews_total",
			Help: "Supervisor review actions by outcome",
		},
		[]string{"outcome"}, // approved, conflict, rejected
	)

	commentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dailyreport_comments_total",
			Help: "Plain comments posted on reports",
		},
	)

	aiEnhancementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dailyreport_ai_enhancements_total",
			Help: "AI enhancement attempts per project aggregate",
		},
		[]string{"result"}, // ok, error
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		submissionsTotal,
		reviewsTotal,
		commentsTotal,
		aiEnhancementsTotal,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest uses the route template, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func RecordSubmission(resubmit bool) {
	kind := "first"
	if resubmit {
		kind = "resubmit"
	}
	submissionsTotal.WithLabelValues(kind).Inc()
}

func RecordReview(outcome string) {
	reviewsTotal.WithLabelValues(outcome).Inc()
}

func RecordComment() {
	commentsTotal.Inc()
}

func RecordAIEnhancement(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	aiEnhancementsTotal.WithLabelValues(result).Inc()
}
