package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus hydration metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "dumbstore").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for payload size in bytes.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the payload size histogram buckets.
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
		Namespace: "dumbstore",
		Buckets:   []float64{64, 256, 1024, 4096, 16384, 65536, 262144}, // 64B to 256KB
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records hydration outcomes. It implements hydrate.Recorder.
type Metrics struct {
	hydrations   *prometheus.CounterVec
	payloadBytes prometheus.Histogram
	keys         prometheus.Histogram
}

// NewMetrics registers the hydration metrics. Like promauto, it panics if the
// metrics are already registered with the chosen registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		hydrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hydrations_total",
			Help:        "Total number of store hydrations by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		payloadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hydration_payload_bytes",
			Help:        "Size of emitted hydration script elements in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		keys: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hydration_keys",
			Help:        "Number of top-level store keys per hydration",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.LinearBuckets(0, 4, 8),
		}),
	}
}

// ObserveHydration records one serialization.
func (m *Metrics) ObserveHydration(keys, bytes int, err error) {
	if err != nil {
		m.hydrations.WithLabelValues("error").Inc()
		return
	}
	m.hydrations.WithLabelValues("ok").Inc()
	m.payloadBytes.Observe(float64(bytes))
	m.keys.Observe(float64(keys))
}
