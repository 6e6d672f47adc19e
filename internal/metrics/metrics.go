// Package metrics provides Prometheus metrics for dupehound.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scan metrics
	filesScannedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupehound_files_scanned_total",
			Help: "Total number of filesystem entries seen by the walker",
		},
	)

	filesHashedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupehound_files_hashed_total",
			Help: "Total number of hash attempts by outcome",
		},
		[]string{"status"},
	)

	hashedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupehound_hashed_bytes_total",
			Help: "Total bytes read by the hasher",
		},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dupehound_scan_duration_seconds",
			Help:    "Duration of completed scans in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		},
	)

	duplicateGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupehound_duplicate_groups",
			Help: "Number of duplicate groups found by the last scan",
		},
	)

	wastedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dupehound_wasted_bytes",
			Help: "Reclaimable bytes found by the last scan",
		},
	)

	// Action metrics
	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupehound_actions_total",
			Help: "Total file actions by kind and result",
		},
		[]string{"action", "result"},
	)

	freedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupehound_freed_bytes_total",
			Help: "Total bytes released by delete and symlink actions",
		},
	)

	// Archive metrics
	archiveOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupehound_archive_operations_total",
			Help: "Total session archive operations",
		},
		[]string{"backend", "operation", "status"},
	)
)

// Hash outcome labels
const (
	HashOK         = "ok"
	HashUnreadable = "unreadable"
	HashTimeout    = "timeout"
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile writes every registered metric to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// RecordEntries records walked entries.
func RecordEntries(n int) {
	filesScannedTotal.Add(float64(n))
}

// RecordHash records one hash attempt.
func RecordHash(status string, bytes int64) {
	filesHashedTotal.WithLabelValues(status).Inc()
	if bytes > 0 {
		hashedBytesTotal.Add(float64(bytes))
	}
}

// RecordScan records a completed scan.
func RecordScan(duration time.Duration, groups int, wasted int64) {
	scanDuration.Observe(duration.Seconds())
	duplicateGroups.Set(float64(groups))
	wastedBytes.Set(float64(wasted))
}

// RecordAction records one per-file delete or symlink outcome.
func RecordAction(action string, success bool, freed int64) {
	result := "success"
	if !success {
		result = "error"
	}
	actionsTotal.WithLabelValues(action, result).Inc()
	if success && freed > 0 {
		freedBytesTotal.Add(float64(freed))
	}
}

// RecordArchiveOperation records a session read or write.
func RecordArchiveOperation(backend, operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	archiveOperationsTotal.WithLabelValues(backend, operation, status).Inc()
}
