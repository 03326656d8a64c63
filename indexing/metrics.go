package indexing

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "docindex"

// metrics holds the indexer's Prometheus collectors.
// A nil *metrics records nothing.
type metrics struct {
	jobs     *prometheus.CounterVec
	batches  *prometheus.CounterVec
	chunks   prometheus.Counter
	inFlight prometheus.Gauge
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_total",
			Help:      "Indexing jobs finished, by outcome.",
		}, []string{"status"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Batches submitted to the vector store, by outcome.",
		}, []string{"status"}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chunks_total",
			Help:      "Chunks produced by indexing jobs.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_in_flight",
			Help:      "Indexing jobs currently running.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of indexing jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}

	var err error
	if m.jobs, err = register(reg, m.jobs); err != nil {
		return nil, err
	}
	if m.batches, err = register(reg, m.batches); err != nil {
		return nil, err
	}
	if m.chunks, err = register(reg, m.chunks); err != nil {
		return nil, err
	}
	if m.inFlight, err = register(reg, m.inFlight); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg. If an identical collector is already registered,
// the existing one is returned so several indexers can share a registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) jobStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *metrics) jobRejected() {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues("rejected").Inc()
}

func (m *metrics) batchDone(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.batches.WithLabelValues("ok").Inc()
	} else {
		m.batches.WithLabelValues("failed").Inc()
	}
}

func (m *metrics) jobDone(report JobReport, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.jobs.WithLabelValues(report.status()).Inc()
	m.chunks.Add(float64(report.Chunks))
	m.duration.Observe(elapsed.Seconds())
}
