// Package metrics provides the bridge's Prometheus instrumentation.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/types"
)

// Namespace prefixes every instrument.
const Namespace = "agentbridge"

// Collector owns the bridge's instruments. A nil *Collector is valid and
// records nothing, so instrumentation stays optional for embedders.
type Collector struct {
	probesTotal    *prometheus.CounterVec
	probeDuration  *prometheus.HistogramVec
	evictions      prometheus.Counter
	registryAgents *prometheus.GaugeVec

	decisionsTotal       *prometheus.CounterVec
	decisionDuration     prometheus.Histogram
	validationRejections prometheus.Counter
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter

	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector registers the instruments on the default registerer.
func NewCollector(logger *zap.Logger) *Collector {
	return NewCollectorWith(prometheus.DefaultRegisterer, logger)
}

// NewCollectorWith registers the instruments on an explicit registerer.
// Tests use this to avoid duplicate-registration panics.
func NewCollectorWith(reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	c := &Collector{logger: logger.With(zap.String("component", "metrics"))}

	c.probesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "discovery_probes_total",
			Help:      "Total discovery probes by protocol and outcome",
		},
		[]string{"protocol", "outcome"},
	)
	c.probeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "discovery_probe_duration_seconds",
			Help:      "Discovery probe duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"protocol"},
	)
	c.evictions = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "discovery_evictions_total",
			Help:      "Total agents evicted from the registry",
		},
	)
	c.registryAgents = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "registry_agents",
			Help:      "Registered agents by health status",
		},
		[]string{"status"},
	)

	c.decisionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "routing_decisions_total",
			Help:      "Total routing decisions by method",
		},
		[]string{"method"},
	)
	c.decisionDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "routing_decision_duration_seconds",
			Help:      "Routing decision duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)
	c.validationRejections = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "routing_validation_rejections_total",
			Help:      "Total reasoner proposals rejected by the validation gate",
		},
	)
	c.cacheHits = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "routing_cache_hits_total",
			Help:      "Total decision cache hits",
		},
	)
	c.cacheMisses = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "routing_cache_misses_total",
			Help:      "Total decision cache misses",
		},
	)

	c.executionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "executions_total",
			Help:      "Total agent executions by protocol and outcome",
		},
		[]string{"protocol", "outcome"},
	)
	c.executionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "execution_duration_seconds",
			Help:      "Agent execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"protocol"},
	)

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	return c
}

// RecordProbe records one probe attempt's outcome.
func (c *Collector) RecordProbe(protocol types.Protocol, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.probesTotal.WithLabelValues(string(protocol), outcome).Inc()
	c.probeDuration.WithLabelValues(string(protocol)).Observe(duration.Seconds())
}

// RecordEviction records one registry eviction.
func (c *Collector) RecordEviction() {
	if c == nil {
		return
	}
	c.evictions.Inc()
}

// SetRegistryAgents publishes the per-status registry size.
func (c *Collector) SetRegistryAgents(counts map[types.HealthState]int) {
	if c == nil {
		return
	}
	for _, status := range []types.HealthState{
		types.HealthDiscovered, types.HealthHealthy, types.HealthDegraded, types.HealthUnhealthy,
	} {
		c.registryAgents.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

// RecordDecision records one routing decision.
func (c *Collector) RecordDecision(method types.RouteMethod, duration time.Duration) {
	if c == nil {
		return
	}
	c.decisionsTotal.WithLabelValues(string(method)).Inc()
	c.decisionDuration.Observe(duration.Seconds())
}

// RecordValidationRejection records one rejected reasoner proposal.
func (c *Collector) RecordValidationRejection() {
	if c == nil {
		return
	}
	c.validationRejections.Inc()
}

// RecordCacheHit records one decision cache hit.
func (c *Collector) RecordCacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

// RecordCacheMiss records one decision cache miss.
func (c *Collector) RecordCacheMiss() {
	if c == nil {
		return
	}
	c.cacheMisses.Inc()
}

// RecordExecution records one gateway execution.
func (c *Collector) RecordExecution(protocol types.Protocol, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.executionsTotal.WithLabelValues(string(protocol), outcome).Inc()
	c.executionDuration.WithLabelValues(string(protocol)).Observe(duration.Seconds())
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
