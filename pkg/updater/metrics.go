package updater

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// MetricsConfig configures the render cycle metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vpatch").
	Namespace string

	// Subsystem is the metrics subsystem (default: "updater").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for cycle duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the render cycle metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vpatch",
		Subsystem: "updater",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for render cycles. One Metrics
// may be shared by any number of Updaters.
type Metrics struct {
	cycles    *prometheus.CounterVec
	duration  prometheus.Histogram
	patches   *prometheus.CounterVec
	liveNodes prometheus.Gauge
}

// Cycle results recorded in the cycles_total counter.
const (
	resultOK       = "ok"
	resultNoop     = "noop"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// NewMetrics creates and registers the render cycle collectors:
//
//   - vpatch_updater_cycles_total: cycles by result (ok, noop, rejected, failed)
//   - vpatch_updater_cycle_duration_seconds: diff plus apply time
//   - vpatch_updater_patches_total: emitted patches by op
//   - vpatch_updater_live_nodes: node count of the last applied snapshot
//
// Registering twice on the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycles_total",
			Help:        "Total number of render cycles by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycle_duration_seconds",
			Help:        "Render cycle duration (diff and apply) in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		patches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patches emitted by op",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		liveNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_nodes",
			Help:        "Number of nodes in the most recently applied snapshot",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) recordCycle(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
	if result == resultOK || result == resultNoop {
		m.duration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) recordPatches(patches []vdom.Patch) {
	if m == nil {
		return
	}
	for _, p := range patches {
		m.patches.WithLabelValues(p.Op.String()).Inc()
	}
}

func (m *Metrics) recordTree(node *vdom.VNode) {
	if m == nil {
		return
	}
	m.liveNodes.Set(float64(vdom.Count(node)))
}
