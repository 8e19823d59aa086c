package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports batcher activity as Prometheus metrics, labeled
// by batcher name. It satisfies batcher.Recorder.
type PrometheusRecorder struct {
	enqueued       *prometheus.CounterVec
	dispatched     *prometheus.CounterVec
	batches        *prometheus.CounterVec
	batchSize      *prometheus.HistogramVec
	consumeSeconds *prometheus.HistogramVec
	failures       *prometheus.CounterVec
	discarded      *prometheus.CounterVec
	inboxDepth     *prometheus.GaugeVec
}

// NewPrometheusRecorder creates a recorder and registers its collectors with
// reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusRecorder(namespace string, reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := []string{"batcher"}

	r := &PrometheusRecorder{
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batcher_items_enqueued_total",
			Help:      "Total number of items added to the inbox.",
		}, labels),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batcher_items_dispatched_total",
			Help:      "Total number of items handed to the consumer.",
		}, labels),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batcher_batches_total",
			Help:      "Total number of consumer invocations.",
		}, labels),
		batchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batcher_batch_size",
			Help:      "Number of items per dispatched batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, labels),
		consumeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batcher_consume_duration_seconds",
			Help:      "Time spent in the consumer per batch.",
			Buckets:   prometheus.DefBuckets,
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batcher_consumer_failures_total",
			Help:      "Total number of consumer errors and panics.",
		}, labels),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batcher_items_discarded_total",
			Help:      "Total number of items dropped by Clear.",
		}, labels),
		inboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batcher_inbox_depth",
			Help:      "Number of items waiting in the inbox.",
		}, labels),
	}

	for _, c := range []prometheus.Collector{
		r.enqueued,
		r.dispatched,
		r.batches,
		r.batchSize,
		r.consumeSeconds,
		r.failures,
		r.discarded,
		r.inboxDepth,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Enqueued implements batcher.Recorder.
func (r *PrometheusRecorder) Enqueued(name string, n int) {
	r.enqueued.WithLabelValues(name).Add(float64(n))
}

// InboxDepth implements batcher.Recorder.
func (r *PrometheusRecorder) InboxDepth(name string, depth int) {
	r.inboxDepth.WithLabelValues(name).Set(float64(depth))
}

// Dispatched implements batcher.Recorder.
func (r *PrometheusRecorder) Dispatched(name string, size int, took time.Duration) {
	r.dispatched.WithLabelValues(name).Add(float64(size))
	r.batches.WithLabelValues(name).Inc()
	r.batchSize.WithLabelValues(name).Observe(float64(size))
	r.consumeSeconds.WithLabelValues(name).Observe(took.Seconds())
}

// ConsumerFailed implements batcher.Recorder.
func (r *PrometheusRecorder) ConsumerFailed(name string) {
	r.failures.WithLabelValues(name).Inc()
}

// Discarded implements batcher.Recorder.
func (r *PrometheusRecorder) Discarded(name string, n int) {
	r.discarded.WithLabelValues(name).Add(float64(n))
}
