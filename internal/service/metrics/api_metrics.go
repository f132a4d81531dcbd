package metrics

import (
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    APILatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "sessionedge",
            Subsystem: "api",
            Name:      "latency_seconds",
            Help:      "Latency of read API endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    APIErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "sessionedge",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "Errors by read API endpoint",
        },
        []string{"endpoint"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(APILatency, APIErrors)
    })
}

// Observe records the latency of one call and counts it as an error when failed is set.
func Observe(endpoint string, start time.Time, failed bool) {
    APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
    if failed {
        APIErrors.WithLabelValues(endpoint).Inc()
    }
}
