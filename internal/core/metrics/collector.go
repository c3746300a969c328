package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-locator/internal/core/registry"
	"github.com/dep2p/go-locator/pkg/types"
)

// 确保 Collector 实现 Reporter 接口
var _ Reporter = (*Collector)(nil)

// Collector 基于 Prometheus 的 Reporter
//
// 每个 Collector 拥有独立的 prometheus.Registry，同一进程内可以并存多个实例。
type Collector struct {
	reg *prometheus.Registry

	lookups        *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	replies        *prometheus.CounterVec
	repliesDropped prometheus.Counter
	sendFailures   prometheus.Counter
	outstanding    prometheus.Gauge
	served         *prometheus.CounterVec
}

// NewCollector 创建 Collector
func NewCollector(namespace string) *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Completed discovery lookups by query kind and outcome.",
		}, []string{"kind", "outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Discovery lookup latency.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .3, .6, 1, 2},
		}, []string{"kind"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Accepted replies by reply kind.",
		}, []string{"kind"}),
		repliesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_dropped_total",
			Help:      "Replies that matched no outstanding lookup or did not qualify.",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Per-interface multicast send failures.",
		}),
		outstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outstanding_requests",
			Help:      "Lookups currently waiting for replies.",
		}),
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_served_total",
			Help:      "Requests handled by the responder by query kind and result.",
		}, []string{"kind", "result"}),
	}

	c.reg.MustRegister(
		c.lookups,
		c.lookupDuration,
		c.replies,
		c.repliesDropped,
		c.sendFailures,
		c.outstanding,
		c.served,
		collectors.NewGoCollector(),
	)
	return c
}

// LookupCompleted 实现 Reporter
func (c *Collector) LookupCompleted(kind types.QueryKind, outcome Outcome, d time.Duration) {
	c.lookups.WithLabelValues(kind.String(), string(outcome)).Inc()
	c.lookupDuration.WithLabelValues(kind.String()).Observe(d.Seconds())
}

// ReplyReceived 实现 Reporter
func (c *Collector) ReplyReceived(kind types.ReplyKind) {
	c.replies.WithLabelValues(kind.String()).Inc()
}

// ReplyDropped 实现 Reporter
func (c *Collector) ReplyDropped() {
	c.repliesDropped.Inc()
}

// SendFailed 实现 Reporter
func (c *Collector) SendFailed() {
	c.sendFailures.Inc()
}

// OutstandingAdd 实现 Reporter
func (c *Collector) OutstandingAdd(delta int) {
	c.outstanding.Add(float64(delta))
}

// RequestServed 实现 Reporter
func (c *Collector) RequestServed(kind types.QueryKind, answered bool) {
	result := "ignored"
	if answered {
		result = "answered"
	}
	c.served.WithLabelValues(kind.String(), result).Inc()
}

// WatchRegistry 导出目录大小
func (c *Collector) WatchRegistry(namespace string, r *registry.Registry) {
	gauge := func(name, help string, get func(registry.Stats) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(get(r.Stats()))
		})
	}
	c.reg.MustRegister(
		gauge("registry_adapters", "Active adapters in the local registry.",
			func(s registry.Stats) int { return s.Adapters }),
		gauge("registry_replica_groups", "Non-empty replica groups in the local registry.",
			func(s registry.Stats) int { return s.ReplicaGroups }),
		gauge("registry_objects", "Well-known objects in the local registry.",
			func(s registry.Stats) int { return s.Objects }),
	)
}

// Registry 返回底层 prometheus.Registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// Handler 返回 /metrics 处理器
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
