package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/cadence/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Play results used as the result label of plays_total.
const (
	ResultPlayed   = "played"
	ResultNotFound = "not_found"
	ResultBlocked  = "blocked"
	ResultFailed   = "load_failed"
	ResultInvalid  = "invalid"
)

// otherClip replaces clip labels once the cardinality limit is reached.
const otherClip = "other"

// Collector is the main orchestrator for all Prometheus metrics in Cadence.
// It manages metric registration and provides a unified interface for
// recording metrics across the engine, the channel pool, the catalog and the
// loaders.
//
// A nil *Collector and a collector whose config is disabled are both valid
// and record nothing, so components can hold one unconditionally.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Play pipeline metrics
	playMetrics *PlayMetrics

	// Channel pool metrics
	poolMetrics *PoolMetrics

	// Catalog and loader metrics
	catalogMetrics *CatalogMetrics

	// Cardinality tracking for clip labels
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "cadence",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = append([]float64(nil), config.DefaultLatencyBuckets...)
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000), // Max 1K distinct clip labels
	}

	// Initialize metric subsystems
	c.playMetrics = NewPlayMetrics(cfg, registry)
	c.poolMetrics = NewPoolMetrics(cfg, registry)
	c.catalogMetrics = NewCatalogMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// clipLabel folds clip names beyond the cardinality limit into "other".
func (c *Collector) clipLabel(clip string) string {
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("clip:%s", clip)) {
		return otherClip
	}
	return clip
}

// RecordPlay records the outcome of one play request.
//
// Parameters:
//   - clip: Requested clip or event name
//   - result: One of the Result constants
//   - latency: Time spent in the play pipeline
//
// Example:
//
//	collector.RecordPlay("footstep", metrics.ResultPlayed, 40*time.Microsecond)
func (c *Collector) RecordPlay(clip, result string, latency time.Duration) {
	if !c.enabled() {
		return
	}

	c.playMetrics.RecordPlay(c.clipLabel(clip), result, latency)
}

// RecordConditionDenied records a play denied by a clip's conditions.
func (c *Collector) RecordConditionDenied(clip string) {
	if !c.enabled() {
		return
	}

	c.playMetrics.conditionDenials.WithLabelValues(c.clipLabel(clip)).Inc()
}

// SetActiveInstances updates the number of live playback instances.
func (c *Collector) SetActiveInstances(n int) {
	if !c.enabled() {
		return
	}

	c.playMetrics.activeInstances.Set(float64(n))
}

// RecordInstanceStopped records an instance leaving the engine.
//
// Parameters:
//   - reason: Why it stopped ("completed", "stopped", "recycled", "conflict")
func (c *Collector) RecordInstanceStopped(reason string) {
	if !c.enabled() {
		return
	}

	c.playMetrics.instancesStopped.WithLabelValues(reason).Inc()
}

// UpdatePoolVoices updates the idle and lent voice gauges.
func (c *Collector) UpdatePoolVoices(idle, lent int) {
	if !c.enabled() {
		return
	}

	c.poolMetrics.UpdateVoices(idle, lent)
}

// RecordPoolRecycle records a lent voice taken back by force.
func (c *Collector) RecordPoolRecycle() {
	if !c.enabled() {
		return
	}

	c.poolMetrics.recyclesTotal.Inc()
}

// RecordPoolOverflow records a voice created beyond the pool capacity.
func (c *Collector) RecordPoolOverflow() {
	if !c.enabled() {
		return
	}

	c.poolMetrics.overflowTotal.Inc()
}

// RecordInvalidRelease records a release of a voice the pool did not lend.
func (c *Collector) RecordInvalidRelease() {
	if !c.enabled() {
		return
	}

	c.poolMetrics.invalidReleasesTotal.Inc()
}

// SetBanks updates the number of registered banks.
func (c *Collector) SetBanks(n int) {
	if !c.enabled() {
		return
	}

	c.catalogMetrics.banks.Set(float64(n))
}

// RecordCollision records a catalog index entry overwritten by a later
// registration.
//
// Parameters:
//   - kind: Index that collided ("clip", "event")
func (c *Collector) RecordCollision(kind string) {
	if !c.enabled() {
		return
	}

	c.catalogMetrics.collisionsTotal.WithLabelValues(kind).Inc()
}

// RecordLoad records an asset load.
//
// Parameters:
//   - mode: "sync" or "async"
//   - success: Whether the asset decoded
//   - duration: Time spent loading
func (c *Collector) RecordLoad(mode string, success bool, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.catalogMetrics.RecordLoad(mode, success, duration)
}

// RecordStaleLoad records an async completion discarded because its entry
// was unregistered while loading.
func (c *Collector) RecordStaleLoad() {
	if !c.enabled() {
		return
	}

	c.catalogMetrics.staleLoadsTotal.Inc()
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
