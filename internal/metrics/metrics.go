// Package metrics exposes Prometheus collectors for the audit service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for audit and report counters.
const (
	OutcomeCreated     = "created"
	OutcomeInvalid     = "invalid_url"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeError       = "error"
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
)

var (
	auditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webaudit_audits_total",
			Help: "Total number of audit submissions, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	reportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webaudit_reports_total",
			Help: "Total number of report lookups, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webaudit_fetches_total",
			Help: "Total number of document fetches, labeled by site and status.",
		},
		[]string{"site", "status"},
	)

	fetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webaudit_fetch_bytes_total",
			Help: "Total number of document bytes fetched, labeled by site.",
		},
		[]string{"site"},
	)

	fetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webaudit_fetch_duration_seconds",
			Help:    "Histogram of document fetch latencies, labeled by status.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"status"},
	)

	rateLimitDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webaudit_rate_limit_delay_seconds",
			Help:    "Histogram of per-host rate limit waits before a fetch.",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"site"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
		},
		[]string{"method", "route"},
	)
)

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAudit increments the audit counter for outcome.
func ObserveAudit(outcome string) {
	auditsTotal.WithLabelValues(outcome).Inc()
}

// ObserveReport increments the report counter for outcome.
func ObserveReport(outcome string) {
	reportsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records a single document fetch against rawURL's host.
func ObserveFetch(rawURL string, duration time.Duration, bytesFetched int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	site := SanitizeSite(rawURL)
	fetchesTotal.WithLabelValues(site, status).Inc()
	fetchDurationSeconds.WithLabelValues(status).Observe(duration.Seconds())
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
}

// ObserveRateLimitDelay records the time a fetch spent waiting for its host's token.
func ObserveRateLimitDelay(site string, duration time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(site).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
