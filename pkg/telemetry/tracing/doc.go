// Package tracing provides OpenTelemetry tracing for Cadence.
//
// # Overview
//
// The engine opens one span per play request ("engine.play") covering
// entry resolution, play group selection, the condition gate, asset
// loading and voice acquisition. Spans are exported over OTLP gRPC.
//
// When tracing is disabled the Tracer hands out noop spans, and a nil
// *Tracer is valid everywhere a tracer is accepted.
//
// # Sampling Strategies
//
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces
//   - ratio: Sample a fraction of traces by trace id
//   - parent_based: Follow the parent's decision, ratio for roots (default)
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(version))
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "engine.play")
//	tracing.SetPlayAttributes(span, "footsteps", "footstep_03", "sfx")
//	span.End()
//
// # Trace Context Propagation
//
// HTTPMiddleware extracts W3C traceparent headers, so a play posted to the
// HTTP control surface joins the caller's trace.
package tracing
