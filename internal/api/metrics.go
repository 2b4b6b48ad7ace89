package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the collectors exposed on /metrics. Each Server owns its own
// registry so tests can build servers side by side.
type metrics struct {
	// snapshots counts snapshot writes.
	// Labels: kind (root, child), outcome (created, rejected, failed)
	snapshots *prometheus.CounterVec

	// snapshotFiles tracks how many file records each successful snapshot carried.
	snapshotFiles prometheus.Histogram

	// requestDuration measures request latency.
	// Labels: method, route (chi pattern), code
	requestDuration *prometheus.HistogramVec
}

func newMetrics(reg *prometheus.Registry) *metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &metrics{
		snapshots: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snapstore",
			Subsystem: "snapshot",
			Name:      "writes_total",
			Help:      "Snapshot write attempts by kind and outcome",
		}, []string{"kind", "outcome"}),

		snapshotFiles: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "snapstore",
			Subsystem: "snapshot",
			Name:      "files",
			Help:      "Number of file records per created snapshot",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "snapstore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
}

// outcome buckets an error from a snapshot write for the writes_total counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case statusFor(err) < 500:
		return "rejected"
	default:
		return "failed"
	}
}
