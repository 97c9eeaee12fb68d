// Package telemetry groups the observability packages used by Cadence.
//
// # Components
//
//   - logging: slog-based structured logging with context fields
//   - metrics: Prometheus collectors for plays, the voice pool and loads
//   - tracing: OpenTelemetry spans around play requests and asset loads
//   - health: liveness and readiness endpoints
//
// Each subpackage is configured from the matching section of
// config.TelemetryConfig and is safe to use through a nil handle, so the
// engine can run with any of them switched off.
//
// # Usage
//
//	logger, _ := logging.New(logging.FromConfig(cfg.Telemetry.Logging, os.Stderr))
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(ctx)
package telemetry
