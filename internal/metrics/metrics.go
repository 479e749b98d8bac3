// Package metrics exposes Prometheus metrics for the tracking pipeline and gesture events.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "mudra"

// Collector owns a private registry. All Record methods are safe on a nil *Collector,
// so components can run without metrics.
type Collector struct {
	logger   zerolog.Logger
	registry *prometheus.Registry

	// Tracking stream
	framesTotal       prometheus.Counter
	framesDropped     *prometheus.CounterVec
	deliveryDuration  prometheus.Histogram
	subscribers       prometheus.Gauge
	streamActive      prometheus.Gauge
	streamStarts      prometheus.Counter
	streamStops       *prometheus.CounterVec
	streamStartErrors prometheus.Counter

	// Gesture events
	eventsTotal    *prometheus.CounterVec
	publishErrors  *prometheus.CounterVec
	pluginRuns     *prometheus.CounterVec
	pluginDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with all metrics registered.
func NewCollector(logger zerolog.Logger, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		logger:   logger.With().Str("component", "metrics").Logger(),
		registry: prometheus.NewRegistry(),
	}

	c.initTrackingMetrics(namespace)
	c.initEventMetrics(namespace)

	c.registry.MustRegister(
		c.framesTotal,
		c.framesDropped,
		c.deliveryDuration,
		c.subscribers,
		c.streamActive,
		c.streamStarts,
		c.streamStops,
		c.streamStartErrors,
		c.eventsTotal,
		c.publishErrors,
		c.pluginRuns,
		c.pluginDuration,
	)

	c.logger.Debug().Str("namespace", namespace).Msg("Metrics collector initialized")
	return c
}

func (c *Collector) initTrackingMetrics(namespace string) {
	c.framesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tracking",
		Name:      "frames_total",
		Help:      "Hand frames delivered to registered gestures",
	})
	c.framesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tracking",
		Name:      "frames_dropped_total",
		Help:      "Tracking messages that were not delivered",
	}, []string{"reason"})
	c.deliveryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tracking",
		Name:      "delivery_duration_seconds",
		Help:      "Time spent feeding one frame to every registered gesture",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})
	c.subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "tracking",
		Name:      "subscribers",
		Help:      "Gestures currently registered with the dispatcher",
	})
	c.streamActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "tracking",
		Name:      "stream_active",
		Help:      "1 while the tracking stream is running",
	})
	c.streamStarts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tracking",
		Name:      "stream_starts_total",
		Help:      "Tracking stream starts",
	})
	c.streamStops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tracking",
		Name:      "stream_stops_total",
		Help:      "Tracking stream stops by reason",
	}, []string{"reason"})
	c.streamStartErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tracking",
		Name:      "stream_start_errors_total",
		Help:      "Tracking stream starts that failed",
	})
}

func (c *Collector) initEventMetrics(namespace string) {
	c.eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gesture",
		Name:      "events_total",
		Help:      "Gesture events emitted",
	}, []string{"gesture", "kind"})
	c.publishErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gesture",
		Name:      "publish_errors_total",
		Help:      "Gesture events a publisher failed to deliver",
	}, []string{"publisher"})
	c.pluginRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "plugin",
		Name:      "runs_total",
		Help:      "Plugin executions by outcome",
	}, []string{"plugin", "status"})
	c.pluginDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "plugin",
		Name:      "run_duration_seconds",
		Help:      "Plugin execution time",
		Buckets:   prometheus.DefBuckets,
	}, []string{"plugin"})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordFrame records one delivered frame.
func (c *Collector) RecordFrame(d time.Duration) {
	if c == nil {
		return
	}
	c.framesTotal.Inc()
	c.deliveryDuration.Observe(d.Seconds())
}

// RecordDroppedFrame records a message that was not delivered.
func (c *Collector) RecordDroppedFrame(reason string) {
	if c == nil {
		return
	}
	c.framesDropped.WithLabelValues(reason).Inc()
}

// SetSubscribers records the number of registered gestures.
func (c *Collector) SetSubscribers(n int) {
	if c == nil {
		return
	}
	c.subscribers.Set(float64(n))
}

// RecordStreamStart records a successful stream start.
func (c *Collector) RecordStreamStart() {
	if c == nil {
		return
	}
	c.streamStarts.Inc()
	c.streamActive.Set(1)
}

// RecordStreamStartError records a failed stream start.
func (c *Collector) RecordStreamStartError() {
	if c == nil {
		return
	}
	c.streamStartErrors.Inc()
}

// RecordStreamStop records a stream stop.
func (c *Collector) RecordStreamStop(reason string) {
	if c == nil {
		return
	}
	c.streamStops.WithLabelValues(reason).Inc()
	c.streamActive.Set(0)
}

// RecordEvent records an emitted gesture event.
func (c *Collector) RecordEvent(gesture, kind string) {
	if c == nil {
		return
	}
	c.eventsTotal.WithLabelValues(gesture, kind).Inc()
}

// RecordPublishError records a failed publish.
func (c *Collector) RecordPublishError(publisher string) {
	if c == nil {
		return
	}
	c.publishErrors.WithLabelValues(publisher).Inc()
}

// RecordPluginRun records one plugin execution.
func (c *Collector) RecordPluginRun(plugin string, success bool, d time.Duration) {
	if c == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	c.pluginRuns.WithLabelValues(plugin, status).Inc()
	c.pluginDuration.WithLabelValues(plugin).Observe(d.Seconds())
}
