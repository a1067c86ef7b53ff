// Package prommetrics exports locator metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	loc, _ := geomsearch.New(m, 1, 2,
//	    geomsearch.WithMetricsCollector(prommetrics.New(reg)),
//	)
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/geomsearch"
)

// Namespace prefixes every metric name.
const Namespace = "geomsearch"

// Collector implements geomsearch.MetricsCollector on top of
// client_golang metrics.
type Collector struct {
	latency       *prometheus.HistogramVec
	ops           *prometheus.CounterVec
	ghosts        prometheus.Counter
	droppedSlaves *prometheus.CounterVec
	matched       prometheus.Gauge
	patchRatio    prometheus.Gauge
}

var _ geomsearch.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of neighborhood builds and nearest-node refreshes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total builds and refreshes",
		}, []string{"op", "status"}),
		ghosts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ghost_elements_requested_total",
			Help:      "Total elements requested for ghosting",
		}),
		droppedSlaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "dropped_slave_nodes_total",
			Help:      "Slave nodes dropped during neighborhood builds",
		}, []string{"reason"}),
		matched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "matched_slave_nodes",
			Help:      "Slave nodes in the last result set",
		}),
		patchRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "max_patch_ratio",
			Help:      "Largest candidates/patch-size ratio of the last refresh",
		}),
	}

	reg.MustRegister(c.latency, c.ops, c.ghosts, c.droppedSlaves, c.matched, c.patchRatio)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBuild implements geomsearch.MetricsCollector.
func (c *Collector) RecordBuild(d time.Duration, stats geomsearch.BuildStats, err error) {
	s := status(err)
	c.latency.WithLabelValues("build", s).Observe(d.Seconds())
	c.ops.WithLabelValues("build", s).Inc()
	if err != nil {
		return
	}
	c.ghosts.Add(float64(stats.Ghosts))
	c.droppedSlaves.WithLabelValues("empty").Add(float64(stats.Empty))
	c.droppedSlaves.WithLabelValues("remote").Add(float64(stats.Remote))
}

// RecordRefresh implements geomsearch.MetricsCollector.
func (c *Collector) RecordRefresh(d time.Duration, matched int, maxPatchRatio float64, err error) {
	s := status(err)
	c.latency.WithLabelValues("refresh", s).Observe(d.Seconds())
	c.ops.WithLabelValues("refresh", s).Inc()
	if err != nil {
		return
	}
	c.matched.Set(float64(matched))
	c.patchRatio.Set(maxPatchRatio)
}
