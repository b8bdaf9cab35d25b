package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	importFiles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "librarr",
		Name:      "import_files_total",
		Help:      "Total number of import results by outcome",
	}, []string{"result"})
	importFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "librarr",
		Name:      "import_failures_total",
		Help:      "Total number of file import failures by kind",
	}, []string{"kind"})
	bulkInsertDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "librarr",
		Name:      "import_bulk_insert_duration_seconds",
		Help:      "Histogram of book file bulk insert durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(importFiles, importFailures, bulkInsertDuration)
	})
}

func IncImportResult(result string) { importFiles.WithLabelValues(result).Inc() }
func IncImportFailure(kind string)  { importFailures.WithLabelValues(kind).Inc() }
func ObserveBulkInsert(d time.Duration) {
	bulkInsertDuration.Observe(d.Seconds())
}
