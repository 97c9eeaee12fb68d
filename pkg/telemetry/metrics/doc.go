// Package metrics provides Prometheus metrics collection for Cadence.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring the play
// pipeline, the channel pool, bank registration and asset loading. Every
// engine component receives the same *Collector; a nil collector records
// nothing.
//
// # Metrics Categories
//
//   - Play Metrics: Play requests by result, pipeline latency, condition
//     denials, live instances and instance removals
//   - Pool Metrics: Idle and lent voices, forced recycles, capacity overflow
//     and invalid releases
//   - Catalog Metrics: Registered banks, index collisions, asset loads and
//     stale async completions
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Record a play
//	collector.RecordPlay("footstep", metrics.ResultPlayed, 40*time.Microsecond)
//
//	// Record pool activity
//	collector.UpdatePoolVoices(6, 2)
//	collector.RecordPoolOverflow()
//
// # Prometheus Endpoint
//
// All metrics are exposed on the /metrics endpoint in standard Prometheus format:
//
//	# HELP cadence_engine_plays_total Total number of play requests
//	# TYPE cadence_engine_plays_total counter
//	cadence_engine_plays_total{clip="footstep",result="played"} 1234
//
// # Cardinality Management
//
// Clip names are label values. Once 1,000 distinct clips have been seen,
// further clips are aggregated into "other".
package metrics
