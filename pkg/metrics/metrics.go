// Package metrics provides performance tracking and observability for
// spawnpool using Prometheus metrics. It exposes counters, gauges, and
// histograms for spawn traffic, pool occupancy, eviction pressure, and
// backend latency.
//
// # Basic Usage
//
//	// Count a reuse-path spawn
//	metrics.SpawnsTotal.WithLabelValues("enemy", "reuse").Inc()
//
//	// Track instantiate latency
//	start := time.Now()
//	inst, err := backend.Instantiate(ctx, key)
//	metrics.InstantiateLatency.WithLabelValues("memory").
//	    Observe(time.Since(start).Seconds())
//
//	// Keep queue depth current after a sweep
//	metrics.QueueDepth.WithLabelValues("enemy").Set(float64(n))
//
// All metrics are registered automatically through promauto and are safe
// for concurrent use.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Spawn source label values.
const (
	// SourceReuse marks a spawn satisfied from a pooled instance.
	SourceReuse = "reuse"
	// SourceNew marks a spawn that had to instantiate through the resolver.
	SourceNew = "new"
)

// Eviction reason label values.
const (
	// ReasonCapacity marks an eviction caused by exceeding MaxCount.
	ReasonCapacity = "capacity"
	// ReasonLifetime marks an eviction caused by exceeding MaxLifetime.
	ReasonLifetime = "lifetime"
	// ReasonClear marks a release caused by ClearPool/ClearAll.
	ReasonClear = "clear"
)

var (
	// SpawnsTotal counts instances handed out by the pool.
	// Labels: key (pool key), source (reuse/new)
	SpawnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spawnpool_spawns_total",
			Help: "Total number of instances handed out by the pool",
		},
		[]string{"key", "source"},
	)

	// SpawnFailures counts spawns that produced no instance.
	// Labels: key
	SpawnFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spawnpool_spawn_failures_total",
			Help: "Total number of spawns that failed to produce an instance",
		},
		[]string{"key"},
	)

	// DespawnsTotal counts instances returned to the pool.
	// Labels: key
	DespawnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spawnpool_despawns_total",
			Help: "Total number of instances returned to the pool",
		},
		[]string{"key"},
	)

	// EvictionsTotal counts instances released back to the resolver.
	// Labels: key, reason (capacity/lifetime/clear)
	EvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spawnpool_evictions_total",
			Help: "Total number of pooled instances evicted and released",
		},
		[]string{"key", "reason"},
	)

	// QueueDepth tracks the number of inactive instances queued per key.
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spawnpool_queue_depth",
			Help: "Number of inactive instances currently queued",
		},
		[]string{"key"},
	)

	// InstantiateLatency tracks backend instantiate latency in seconds.
	// Labels: backend (backend name)
	InstantiateLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spawnpool_instantiate_latency_seconds",
			Help:    "Asset backend instantiate latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"backend"},
	)

	// AssetCacheSize tracks loaded assets held by the resolver cache.
	AssetCacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spawnpool_asset_cache_size",
			Help: "Number of reference-counted assets held by the resolver",
		},
		[]string{"backend"},
	)
)

// Timer measures the duration of a single operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since the timer started.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveInstantiate records one backend instantiate duration.
func ObserveInstantiate(backend string, d time.Duration) {
	InstantiateLatency.WithLabelValues(backend).Observe(d.Seconds())
}
