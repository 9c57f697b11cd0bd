package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spark_select"

// ReadMetrics counts the work done by dataset reads. All methods accept a
// nil receiver.
type ReadMetrics struct {
	selectRequests   *prometheus.CounterVec
	bytesScanned     prometheus.Counter
	bytesProcessed   prometheus.Counter
	bytesReturned    prometheus.Counter
	rowsReturned     prometheus.Counter
	rowGroupsRead    prometheus.Counter
	rowGroupsSkipped prometheus.Counter
	localFilters     prometheus.Counter
	objectsOpened    prometheus.Counter
}

// NewReadMetrics registers the read metrics with reg. A nil reg keeps them
// unregistered.
func NewReadMetrics(reg prometheus.Registerer) *ReadMetrics {
	return &ReadMetrics{
		selectRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "select_requests_total",
			Help:      "Total number of Select API requests by input format and outcome.",
		}, []string{"format", "outcome"}),
		bytesScanned: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "select_bytes_scanned_total",
			Help:      "Bytes scanned by the object store while serving Select requests.",
		}),
		bytesProcessed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "select_bytes_processed_total",
			Help:      "Bytes processed by the object store while serving Select requests.",
		}),
		bytesReturned: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "select_bytes_returned_total",
			Help:      "Bytes returned by the object store for Select requests.",
		}),
		rowsReturned: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_returned_total",
			Help:      "Rows returned to callers after local filter evaluation.",
		}),
		rowGroupsRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parquet_row_groups_read_total",
			Help:      "Parquet row groups read by local scans.",
		}),
		rowGroupsSkipped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parquet_row_groups_skipped_total",
			Help:      "Parquet row groups skipped by column statistics.",
		}),
		localFilters: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_only_filters_total",
			Help:      "Filters that could not be pushed down and were evaluated locally only.",
		}),
		objectsOpened: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_opened_total",
			Help:      "Objects whose footer or header was fetched by Open.",
		}),
	}
}

func (m *ReadMetrics) SelectRequest(format string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.selectRequests.WithLabelValues(format, outcome).Inc()
}

func (m *ReadMetrics) SelectStats(scanned, processed, returned int64) {
	if m == nil {
		return
	}
	m.bytesScanned.Add(float64(scanned))
	m.bytesProcessed.Add(float64(processed))
	m.bytesReturned.Add(float64(returned))
}

func (m *ReadMetrics) RowsReturned(n int64) {
	if m == nil {
		return
	}
	m.rowsReturned.Add(float64(n))
}

func (m *ReadMetrics) RowGroups(read, skipped int) {
	if m == nil {
		return
	}
	m.rowGroupsRead.Add(float64(read))
	m.rowGroupsSkipped.Add(float64(skipped))
}

func (m *ReadMetrics) LocalOnlyFilters(n int) {
	if m == nil {
		return
	}
	m.localFilters.Add(float64(n))
}

func (m *ReadMetrics) ObjectsOpened(n int) {
	if m == nil {
		return
	}
	m.objectsOpened.Add(float64(n))
}
