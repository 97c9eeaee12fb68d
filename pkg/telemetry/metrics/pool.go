package metrics

import (
	"mercator-hq/cadence/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics tracks the channel pool.
//
// Metrics:
//   - cadence_pool_voices: Voices by state ("idle", "lent")
//   - cadence_pool_recycles_total: Lent voices taken back by force
//   - cadence_pool_overflow_total: Voices created beyond capacity
//   - cadence_pool_invalid_releases_total: Releases of voices that were not lent
type PoolMetrics struct {
	voices               *prometheus.GaugeVec
	recyclesTotal        prometheus.Counter
	overflowTotal        prometheus.Counter
	invalidReleasesTotal prometheus.Counter
}

// NewPoolMetrics creates and registers pool metrics with the provided registry.
func NewPoolMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PoolMetrics {
	pm := &PoolMetrics{
		voices: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "pool",
				Name:      "voices",
				Help:      "Current number of voices by state",
			},
			[]string{"state"},
		),

		recyclesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "pool",
				Name:      "recycles_total",
				Help:      "Total number of lent voices recycled for a new play",
			},
		),

		overflowTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "pool",
				Name:      "overflow_total",
				Help:      "Total number of voices created beyond the pool capacity",
			},
		),

		invalidReleasesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "pool",
				Name:      "invalid_releases_total",
				Help:      "Total number of releases of voices that were not lent",
			},
		),
	}

	registry.MustRegister(
		pm.voices,
		pm.recyclesTotal,
		pm.overflowTotal,
		pm.invalidReleasesTotal,
	)

	return pm
}

// UpdateVoices sets the idle and lent gauges.
func (pm *PoolMetrics) UpdateVoices(idle, lent int) {
	pm.voices.WithLabelValues("idle").Set(float64(idle))
	pm.voices.WithLabelValues("lent").Set(float64(lent))
}
