// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus export of pool accounting.

package control

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-stream/pool"
)

// PoolCollector exports pool.Stats as Prometheus metrics. Values are read at
// scrape time.
type PoolCollector struct {
	pool *pool.Pool

	items     *prometheus.Desc
	bytes     *prometheus.Desc
	watermark *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	drops     *prometheus.Desc
}

// NewPoolCollector creates a collector for p under namespace.
func NewPoolCollector(namespace string, p *pool.Pool) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, nil, nil)
	}
	return &PoolCollector{
		pool:      p,
		items:     desc("idle_segments", "Number of idle pooled segments"),
		bytes:     desc("idle_bytes", "Total capacity of idle pooled segments"),
		watermark: desc("largest_segment_bytes", "Upper bound on the largest idle segment"),
		hits:      desc("hits_total", "Obtain calls served from the pool"),
		misses:    desc("misses_total", "Obtain calls that allocated"),
		evictions: desc("evictions_total", "Idle segments evicted or discarded"),
		drops:     desc("drops_total", "Reclaimed segments dropped because the pool was full"),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.items, c.bytes, c.watermark, c.hits, c.misses, c.evictions, c.drops} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(st.Items))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(st.TotalBytes))
	ch <- prometheus.MustNewConstMetric(c.watermark, prometheus.GaugeValue, float64(st.Watermark))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(st.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(st.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(st.Evictions))
	ch <- prometheus.MustNewConstMetric(c.drops, prometheus.CounterValue, float64(st.Drops))
}

var _ prometheus.Collector = (*PoolCollector)(nil)
