package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "upload_lab"

// Metrics groups the counters exported on /metrics. A nil *Metrics records nothing.
type Metrics struct {
	ChunksReceived  prometheus.Counter
	ChunksRejected  *prometheus.CounterVec
	BytesStaged     prometheus.Counter
	Merges          *prometheus.CounterVec
	MergeDuration   prometheus.Histogram
	SessionsPurged  prometheus.Counter
	FreeBytes       prometheus.Gauge
	WorkerRestarted *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChunksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_received_total",
			Help:      "Chunks staged successfully",
		}),
		ChunksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_rejected_total",
			Help:      "Chunks refused, by HTTP status",
		}, []string{"code"}),
		BytesStaged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_staged_total",
			Help:      "Payload bytes written to staging",
		}),
		Merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Merge requests by outcome",
		}, []string{"outcome"}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Time spent concatenating chunks",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		SessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_purged_total",
			Help:      "Stale staging areas removed by the janitor",
		}),
		FreeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storage_free_bytes",
			Help:      "Free bytes on the storage volume",
		}),
		WorkerRestarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_restarts_total",
			Help:      "Supervised worker restarts after a failure",
		}, []string{"worker"}),
	}
	reg.MustRegister(
		m.ChunksReceived,
		m.ChunksRejected,
		m.BytesStaged,
		m.Merges,
		m.MergeDuration,
		m.SessionsPurged,
		m.FreeBytes,
		m.WorkerRestarted,
	)
	return m
}

func (m *Metrics) ChunkStaged(size int64) {
	if m == nil {
		return
	}
	m.ChunksReceived.Inc()
	m.BytesStaged.Add(float64(size))
}

func (m *Metrics) ChunkRejected(code string) {
	if m == nil {
		return
	}
	m.ChunksRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) MergeDone(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Merges.WithLabelValues(outcome).Inc()
	if outcome == OutcomeMerged {
		m.MergeDuration.Observe(seconds)
	}
}

func (m *Metrics) SessionPurged() {
	if m == nil {
		return
	}
	m.SessionsPurged.Inc()
}

func (m *Metrics) StorageFree(bytes uint64) {
	if m == nil {
		return
	}
	m.FreeBytes.Set(float64(bytes))
}

func (m *Metrics) WorkerRestart(worker string) {
	if m == nil {
		return
	}
	m.WorkerRestarted.WithLabelValues(worker).Inc()
}

// Merge outcomes
const (
	OutcomeMerged   = "merged"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)
