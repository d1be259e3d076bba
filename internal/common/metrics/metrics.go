// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_http_requests_total",
			Help: "HTTP requests by endpoint and status code",
		},
		[]string{"endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "complaint_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_provider_calls_total",
			Help: "Calls to remote text generation providers by outcome",
		},
		[]string{"provider", "purpose", "outcome"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "complaint_provider_call_duration_seconds",
			Help:    "Latency of remote provider calls",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "purpose"},
	)

	FallbackTierTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_fallback_tier_total",
			Help: "Which tier produced the analysis or reply",
		},
		[]string{"stage", "tier"},
	)

	TokenFillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_token_fills_total",
			Help: "Access token cache fills by origin",
		},
		[]string{"origin"},
	)

	AlertsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_alerts_published_total",
			Help: "Critical complaint alerts by outcome",
		},
		[]string{"outcome"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// ObserveProvider records one provider call.
func ObserveProvider(provider, purpose string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ProviderCallsTotal.WithLabelValues(provider, purpose, outcome).Inc()
	ProviderCallDuration.WithLabelValues(provider, purpose).Observe(time.Since(started).Seconds())
}
