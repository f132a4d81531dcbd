package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	barsLoaded  *prometheus.CounterVec
	cohortDays  *prometheus.HistogramVec
	cohortsDone *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// New returns the process-wide recorder registered on the default registry.
func New(namespace string) *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewWithRegistry(prometheus.DefaultRegisterer, namespace)
	})
	return defaultRecorder
}

// NewWithRegistry registers a fresh set of collectors on reg.
func NewWithRegistry(reg prometheus.Registerer, namespace string) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		barsLoaded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bars_loaded_total",
				Help:      "Bars read from the input, by timeframe",
			},
			[]string{"timeframe"},
		),
		cohortsDone: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cohorts_total",
				Help:      "Cohorts aggregated, by kind",
			},
			[]string{"kind"},
		),
		cohortDays: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cohort_days",
				Help:      "Days per cohort",
				Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
			},
			[]string{"kind"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordBarsLoaded counts bars read for a timeframe.
func (r *Recorder) RecordBarsLoaded(timeframe string, n int) {
	r.barsLoaded.WithLabelValues(timeframe).Add(float64(n))
}

// RecordCohort records one aggregated cohort and its size.
func (r *Recorder) RecordCohort(kind string, days int) {
	r.cohortsDone.WithLabelValues(kind).Inc()
	r.cohortDays.WithLabelValues(kind).Observe(float64(days))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordBarsLoaded(string, int)  {}
func (Nop) RecordCohort(string, int)      {}
func (Nop) RecordError(string)            {}
func (Nop) RecordLatency(string, float64) {}
