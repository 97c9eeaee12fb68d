package metrics

import (
	"time"

	"mercator-hq/cadence/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PlayMetrics tracks the play pipeline.
//
// Metrics:
//   - cadence_engine_plays_total: Play requests by clip and result
//   - cadence_engine_play_latency_seconds: Time spent resolving and starting a play
//   - cadence_engine_condition_denials_total: Plays denied by conditions
//   - cadence_engine_active_instances: Live playback instances
//   - cadence_engine_instances_stopped_total: Instances removed by reason
type PlayMetrics struct {
	playsTotal       *prometheus.CounterVec
	playLatency      *prometheus.HistogramVec
	conditionDenials *prometheus.CounterVec
	activeInstances  prometheus.Gauge
	instancesStopped *prometheus.CounterVec
}

// NewPlayMetrics creates and registers play metrics with the provided registry.
func NewPlayMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PlayMetrics {
	pm := &PlayMetrics{
		playsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "plays_total",
				Help:      "Total number of play requests",
			},
			[]string{"clip", "result"},
		),

		playLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "play_latency_seconds",
				Help:      "Time spent handling a play request in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"result"},
		),

		conditionDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "condition_denials_total",
				Help:      "Total number of plays denied by clip conditions",
			},
			[]string{"clip"},
		),

		activeInstances: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "active_instances",
				Help:      "Current number of live playback instances",
			},
		),

		instancesStopped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "instances_stopped_total",
				Help:      "Total number of playback instances removed",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		pm.playsTotal,
		pm.playLatency,
		pm.conditionDenials,
		pm.activeInstances,
		pm.instancesStopped,
	)

	return pm
}

// RecordPlay records one play request.
func (pm *PlayMetrics) RecordPlay(clip, result string, latency time.Duration) {
	pm.playsTotal.WithLabelValues(clip, result).Inc()
	pm.playLatency.WithLabelValues(result).Observe(latency.Seconds())
}
