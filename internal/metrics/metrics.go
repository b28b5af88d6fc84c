// Package metrics exposes Prometheus collectors for assessment sessions and HTTP traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the server records.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsFinished  *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
	AnswersRejected   *prometheus.CounterVec
	Scores            prometheus.Histogram
	Categories        *prometheus.CounterVec
	SessionDuration   prometheus.Histogram
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	PersistenceErrors *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "solace_sessions_started_total",
			Help: "Assessment sessions started",
		}),
		SessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solace_sessions_finished_total",
			Help: "Assessment sessions that left the in-progress state",
		}, []string{"state"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "solace_sessions_active",
			Help: "Assessment sessions currently in progress",
		}),
		AnswersRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solace_answers_rejected_total",
			Help: "Answers absorbed by validation without changing the stored value",
		}, []string{"type"}),
		Scores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "solace_score",
			Help:    "Composite Solace scores of completed assessments",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		Categories: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solace_score_category_total",
			Help: "Completed assessments by category",
		}, []string{"category"}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "solace_session_duration_seconds",
			Help:    "Time from start to completion of an assessment",
			Buckets: prometheus.ExponentialBuckets(15, 2, 8),
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solace_http_requests_total",
			Help: "HTTP requests by route and status class",
		}, []string{"route", "method", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solace_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		PersistenceErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solace_persistence_errors_total",
			Help: "Failed store writes",
		}, []string{"op"}),
	}
}

// NewRegistry returns a fresh registry with the metrics registered on it.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	return reg, New(reg)
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
