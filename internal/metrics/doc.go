// Metrics are exposed at /metrics in Prometheus text format. See
// metrics.go for the full collector list; the ones most useful for
// dashboards are mobasher_capture_running, mobasher_worker_outcomes_total,
// and mobasher_api_request_duration_seconds.
package metrics
