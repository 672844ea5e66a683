// Package metrics holds the Prometheus collectors exported by the viewer.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ArchiveRequests counts archive calls by operation (search, download) and outcome.
	ArchiveRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mmsviewer_archive_requests_total",
		Help: "Total number of archive requests by operation and outcome",
	}, []string{"op", "outcome"})

	DownloadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mmsviewer_archive_download_bytes_total",
		Help: "Total bytes of science files downloaded from the archive",
	})

	// CacheLookups counts local cache checks by result (hit, miss).
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mmsviewer_cache_lookups_total",
		Help: "Total number of local cache lookups by result",
	}, []string{"result"})

	LoadedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mmsviewer_loaded_rows_total",
		Help: "Total number of measurement rows loaded from science files",
	})

	DecimatedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mmsviewer_decimated_rows_total",
		Help: "Total number of rows dropped by plot decimation",
	})

	EventBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mmsviewer_event_build_duration_seconds",
		Help:    "Duration of building one dashboard event in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	registerOnce sync.Once
)

// InitMetrics registers all collectors with the default registry.
// Collectors count from process start either way; registration only exposes them.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ArchiveRequests,
			DownloadBytes,
			CacheLookups,
			LoadedRows,
			DecimatedRows,
			EventBuildSeconds,
		)
	})
}

// Handler returns the exposition handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
