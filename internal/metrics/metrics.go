package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cbrates"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// SyncMetrics holds the collectors of the synchronization engine and the lookup path.
type SyncMetrics struct {
	SyncRunsTotal     *prometheus.CounterVec
	SyncDuration      *prometheus.HistogramVec
	SyncRecordsTotal  *prometheus.CounterVec
	VanishedCodes     prometheus.Gauge
	LastSuccessfulRun prometheus.Gauge
	LookupsTotal      *prometheus.CounterVec
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)
	return &SyncMetrics{
		SyncRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_runs_total",
				Help:      "Synchronization runs by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		SyncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Duration of synchronization runs",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		SyncRecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_records_total",
				Help:      "Stored rate writes by operation and action",
			},
			[]string{"operation", "action"},
		),
		VanishedCodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sync_vanished_codes",
				Help:      "Stored codes missing from the last fetched feed",
			},
		),
		LastSuccessfulRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sync_last_success_timestamp_seconds",
				Help:      "Unix time of the last successful synchronization",
			},
		),
		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Rate lookups by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *SyncMetrics) ObserveRun(operation string, started time.Time, err error) {
	m.SyncDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if err != nil {
		m.SyncRunsTotal.WithLabelValues(operation, OutcomeFailure).Inc()
		return
	}
	m.SyncRunsTotal.WithLabelValues(operation, OutcomeSuccess).Inc()
	m.LastSuccessfulRun.SetToCurrentTime()
}

func (m *SyncMetrics) ObserveSkipped(operation string) {
	m.SyncRunsTotal.WithLabelValues(operation, OutcomeSkipped).Inc()
}

func (m *SyncMetrics) AddRecords(operation, action string, n int) {
	if n > 0 {
		m.SyncRecordsTotal.WithLabelValues(operation, action).Add(float64(n))
	}
}
