package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampling strategies determine which traces are recorded and exported.
const (
	// SamplerAlways samples all traces
	SamplerAlways = "always"

	// SamplerNever samples no traces
	SamplerNever = "never"

	// SamplerRatio samples a percentage of traces
	SamplerRatio = "ratio"

	// SamplerParentBased follows the parent span's decision and samples
	// root spans at the configured ratio
	SamplerParentBased = "parent_based"
)

// createSampler creates a sampler based on the strategy and ratio.
//
// Play spans are usually roots, started by the tick goroutine. Spans started
// from an HTTP request inherit the caller's decision when the strategy is
// parent_based:
//
//	telemetry:
//	  tracing:
//	    sampler: parent_based
//	    sample_ratio: 0.1  # Sample 10% of root traces
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	if ratio < 0.0 || ratio > 1.0 {
		return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
	}

	switch strategy {
	case SamplerAlways:
		return sdktrace.AlwaysSample(), nil

	case SamplerNever:
		return sdktrace.NeverSample(), nil

	case SamplerRatio:
		// TraceIDRatioBased samples based on trace ID hash
		return sdktrace.TraceIDRatioBased(ratio), nil

	case SamplerParentBased, "":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)), nil

	default:
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: always, never, ratio, parent_based)", strategy)
	}
}
