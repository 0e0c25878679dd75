// Package metrics provides Prometheus instrumentation for every Mobasher
// component: the capture supervisor, segment detector, queue/dedupe,
// schedulers, workers, the read API, and retention jobs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Capture
	CaptureRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mobasher_capture_running",
			Help: "1 if the capture supervisor's leg is running, else 0",
		},
		[]string{"channel_id", "leg"},
	)

	CaptureRestartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_capture_restarts_total",
			Help: "Total restarts of a capture leg",
		},
		[]string{"channel_id", "leg"},
	)

	CaptureHeartbeatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_capture_heartbeats_total",
			Help: "Total heartbeat ticks observed by the capture supervisor",
		},
		[]string{"channel_id"},
	)

	CaptureLastHeartbeatSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mobasher_capture_last_heartbeat_seconds",
			Help: "Unix timestamp of the last heartbeat for a channel",
		},
		[]string{"channel_id"},
	)

	// Segment detector
	SegmentsDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_segments_detected_total",
			Help: "Total segments admitted by the full-segment gate",
		},
		[]string{"channel_id", "media"},
	)

	SegmentsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_segments_rejected_total",
			Help: "Total files rejected as partial by the full-segment gate",
		},
		[]string{"channel_id", "media"},
	)

	// Persistence
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mobasher_store_query_duration_seconds",
			Help:    "Duration of persistence-layer operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_store_query_errors_total",
			Help: "Total persistence-layer operation errors",
		},
		[]string{"operation", "error_type"},
	)

	// Queue
	QueueEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_queue_enqueued_total",
			Help: "Total tasks enqueued",
		},
		[]string{"task"},
	)

	QueueDedupedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_queue_deduped_total",
			Help: "Total enqueue attempts suppressed by the dedupe gate",
		},
		[]string{"task"},
	)

	QueueConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_queue_consumed_total",
			Help: "Total task deliveries handled by a consumer",
		},
		[]string{"task", "outcome"},
	)

	QueueUnavailableTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_queue_unavailable_total",
			Help: "Total broker-unavailable errors observed by producers/consumers",
		},
		[]string{"task"},
	)

	// Scheduler
	SchedulerCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_scheduler_cycles_total",
			Help: "Total scheduler loop iterations",
		},
		[]string{"stage", "outcome"},
	)

	SchedulerCandidatesFound = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mobasher_scheduler_candidates_found",
			Help:    "Candidates found missing an artifact per scheduler cycle",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
		[]string{"stage"},
	)

	SchedulerIntervalSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mobasher_scheduler_interval_seconds",
			Help: "Current sleep interval for a scheduler, after backoff/reset",
		},
		[]string{"stage"},
	)

	// Workers
	WorkerAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_worker_attempts_total",
			Help: "Total worker invocation attempts",
		},
		[]string{"stage", "channel_id"},
	)

	WorkerOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_worker_outcomes_total",
			Help: "Total worker outcomes (success|retry|error)",
		},
		[]string{"stage", "channel_id", "outcome"},
	)

	WorkerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mobasher_worker_duration_seconds",
			Help:    "Worker processing duration, engine time only",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		},
		[]string{"stage"},
	)

	// Read API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mobasher_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mobasher_api_active_requests",
			Help: "In-flight API requests",
		},
	)

	// Retention
	RetentionDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobasher_retention_deleted_total",
			Help: "Total rows/files deleted by a retention pass",
		},
		[]string{"table"},
	)

	RetentionLastRunSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mobasher_retention_last_run_seconds",
			Help: "Unix timestamp of the last retention pass",
		},
	)
)

// RecordStoreQuery observes a persistence-layer call's duration and, on
// error, increments the error counter.
func RecordStoreQuery(operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrorsTotal.WithLabelValues(operation, "error").Inc()
	}
}

// RecordAPIRequest increments the request counter and observes latency.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	APIRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight API gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordWorkerOutcome increments the attempts/outcomes counters and, for
// successful runs, observes the engine-only duration.
func RecordWorkerOutcome(stage, channelID, outcome string, engineElapsed time.Duration) {
	WorkerAttemptsTotal.WithLabelValues(stage, channelID).Inc()
	WorkerOutcomesTotal.WithLabelValues(stage, channelID, outcome).Inc()
	if outcome == "success" {
		WorkerDuration.WithLabelValues(stage).Observe(engineElapsed.Seconds())
	}
}
