package metrics

import (
	"time"

	"mercator-hq/cadence/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics tracks bank registration and asset loading.
//
// Metrics:
//   - cadence_catalog_banks: Registered banks
//   - cadence_catalog_collisions_total: Index entries overwritten by a later bank
//   - cadence_loader_loads_total: Asset loads by mode and result
//   - cadence_loader_load_duration_seconds: Asset load duration
//   - cadence_loader_stale_loads_total: Async loads discarded after unregistration
type CatalogMetrics struct {
	banks           prometheus.Gauge
	collisionsTotal *prometheus.CounterVec
	loadsTotal      *prometheus.CounterVec
	loadDuration    *prometheus.HistogramVec
	staleLoadsTotal prometheus.Counter
}

// NewCatalogMetrics creates and registers catalog metrics with the provided registry.
func NewCatalogMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CatalogMetrics {
	cm := &CatalogMetrics{
		banks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "catalog",
				Name:      "banks",
				Help:      "Current number of registered banks",
			},
		),

		collisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "catalog",
				Name:      "collisions_total",
				Help:      "Total number of index entries overwritten by a later registration",
			},
			[]string{"kind"},
		),

		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "loader",
				Name:      "loads_total",
				Help:      "Total number of asset loads",
			},
			[]string{"mode", "result"},
		),

		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "loader",
				Name:      "load_duration_seconds",
				Help:      "Duration of asset loads in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
			},
			[]string{"mode"},
		),

		staleLoadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "loader",
				Name:      "stale_loads_total",
				Help:      "Total number of async loads discarded because their entry was unregistered",
			},
		),
	}

	registry.MustRegister(
		cm.banks,
		cm.collisionsTotal,
		cm.loadsTotal,
		cm.loadDuration,
		cm.staleLoadsTotal,
	)

	return cm
}

// RecordLoad records one asset load.
func (cm *CatalogMetrics) RecordLoad(mode string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	cm.loadsTotal.WithLabelValues(mode, result).Inc()
	cm.loadDuration.WithLabelValues(mode).Observe(duration.Seconds())
}
