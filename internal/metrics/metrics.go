// Package metrics holds the Prometheus collectors for waits and status
// fetches. They register on the default registry, which `recops serve`
// exposes at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WaitsTotal counts finished waits by resource kind and outcome.
	WaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recops",
		Name:      "waits_total",
		Help:      "Finished waits by resource kind and outcome.",
	}, []string{"kind", "outcome"})

	// FetchesTotal counts status fetches by resource kind and result (ok, error).
	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recops",
		Name:      "status_fetches_total",
		Help:      "Remote status fetches by resource kind and result.",
	}, []string{"kind", "result"})

	// WaitDuration observes how long finished waits took.
	WaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recops",
		Name:      "wait_duration_seconds",
		Help:      "Wall-clock duration of finished waits.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
	}, []string{"kind"})

	// WaitsInFlight tracks waits currently polling.
	WaitsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "recops",
		Name:      "waits_in_flight",
		Help:      "Waits currently polling.",
	})
)
