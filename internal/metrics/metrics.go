package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrollcast_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrollcast_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrollcast_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrollcast_jobs_total",
			Help: "Total number of render jobs by terminal state",
		},
		[]string{"state"},
	)

	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrollcast_jobs_active",
			Help: "Number of render jobs currently in flight",
		},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scrollcast_job_duration_seconds",
			Help:    "Total render job duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	CleanupFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrollcast_job_cleanup_failures_total",
			Help: "Total number of job cleanup operations that reported errors",
		},
	)
)

// Pipeline metrics
var (
	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrollcast_pipeline_phase_duration_seconds",
			Help:    "Duration of individual pipeline phases in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"phase"},
	)

	FramesRenderedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrollcast_frames_rendered_total",
			Help: "Total number of animation frames composited",
		},
	)

	EncodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scrollcast_encode_duration_seconds",
			Help:    "Duration of ffmpeg encode invocations in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	EncodeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrollcast_encode_failures_total",
			Help: "Total number of failed ffmpeg invocations",
		},
	)
)

// InitializeMetrics pre-populates label combinations so every metric is
// exported from the first Prometheus scrape. Call once at startup.
func InitializeMetrics() {
	for _, state := range []string{"delivered", "failed", "canceled"} {
		JobsTotal.WithLabelValues(state)
	}
	for _, phase := range []string{"detect", "resize", "synthesize", "encode"} {
		PhaseDuration.WithLabelValues(phase)
	}
}
