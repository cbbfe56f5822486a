package graph

// metrics.go is a thin interface over Prometheus so the graph can be used
// with or without a registry, with a no-op sink paid for on the hot path
// when metrics are disabled.
//
// Metric names follow Prometheus conventions, suffixed with "_total" for
// counters. All metrics are process-wide for the graph instance; there is
// no per-shard breakdown since the cache layer itself is not sharded.

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsSinkIface is the internal interface Graph and its caches talk to. Not
// exposed outside the package.
type metricsSinkIface interface {
	incBlockHit()
	incBlockMiss()
	incEviction()
	incSerializerRead()
	setResident(n int)
}

type noopMetrics struct{}

func (noopMetrics) incBlockHit() {}
func (noopMetrics) incBlockMiss() {}
func (noopMetrics) incEviction() {}
func (noopMetrics) incSerializerRead() {}
func (noopMetrics) setResident(int) {}

type promMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	reads     prometheus.Counter
	resident  prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	pm := &promMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockgraph",
			Name:      "cache_hits_total",
			Help:      "Number of edge-block cache hits.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockgraph",
			Name:      "cache_misses_total",
			Help:      "Number of edge-block cache misses.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockgraph",
			Name:      "cache_evictions_total",
			Help:      "Number of edge blocks evicted by the clock hand.",
		}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockgraph",
			Name:      "serializer_reads_total",
			Help:      "Number of physical block reads issued to the serializer (none and simple cache modes only).",
		}),
		resident: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockgraph",
			Name:      "cache_resident_blocks",
			Help:      "Number of edge blocks currently resident in cache.",
		}),
	}
	reg.MustRegister(pm.hits, pm.misses, pm.evictions, pm.reads, pm.resident)
	return pm
}

func (m *promMetrics) incBlockHit() { m.hits.Inc() }
func (m *promMetrics) incBlockMiss() { m.misses.Inc() }
func (m *promMetrics) incEviction() { m.evictions.Inc() }
func (m *promMetrics) incSerializerRead() { m.reads.Inc() }
func (m *promMetrics) setResident(n int) { m.resident.Set(float64(n)) }

// metrics is the concrete sink stored on Graph; it satisfies
// metricsSinkIface via embedding so Graph.metrics can be nil-checked once at
// construction and then called unconditionally.
type metrics struct {
	metricsSinkIface
}

func newMetrics(reg *prometheus.Registry) *metrics {
	if reg == nil {
		return &metrics{noopMetrics{}}
	}
	return &metrics{newPromMetrics(reg)}
}
