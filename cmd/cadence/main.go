// Cadence is a runtime audio playback engine.
//
// It plays named clips from catalog banks through a bounded voice pool,
// gating plays with per-clip conditions and play groups, and exposes an
// optional HTTP control surface:
//   - Bank registration with preload, persistent and on-demand caching
//   - Conditions (cooldown, concurrent limits, probability, distance)
//   - Random, sequential and exclusive play groups
//   - Play history with retention pruning
//   - Prometheus metrics, OpenTelemetry tracing and health checks
//
// Usage:
//
//	# Run the engine with the configured banks
//	cadence run --config cadence.yaml
//
//	# Play one clip and wait for it to finish
//	cadence play footsteps --config cadence.yaml
//
//	# Check configuration and decode every asset
//	cadence validate --assets
//
//	# List registered banks and clips
//	cadence banks --output json
package main

import "os"

func main() {
	os.Exit(Execute())
}
