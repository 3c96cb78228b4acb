// Package metrics exposes Prometheus instrumentation for the revision store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the temporal store counters.
type Metrics struct {
	RevisionsAppended *prometheus.CounterVec
	OverlapConflicts  prometheus.Counter
	CascadeFanout     prometheus.Histogram
}

// New creates and registers the temporal metrics.
func New() *Metrics {
	return &Metrics{
		RevisionsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cadastre_revisions_appended_total",
			Help: "Revisions appended to the record store, by operation.",
		}, []string{"operation"}),
		OverlapConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cadastre_revision_overlap_conflicts_total",
			Help: "Inserts rejected because an open revision already covers the valid interval.",
		}),
		CascadeFanout: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cadastre_cascade_retire_fanout",
			Help:    "Entities retired per cascade-retire call.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// ObserveAppend records one appended revision for an operation label.
func (m *Metrics) ObserveAppend(operation string) {
	if m == nil {
		return
	}
	m.RevisionsAppended.WithLabelValues(operation).Inc()
}

// ObserveConflict records one rejected overlapping insert.
func (m *Metrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.OverlapConflicts.Inc()
}

// ObserveCascade records the fanout of one cascade-retire traversal.
func (m *Metrics) ObserveCascade(entities int) {
	if m == nil {
		return
	}
	m.CascadeFanout.Observe(float64(entities))
}
