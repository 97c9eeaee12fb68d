package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on Cadence spans. Custom keys use the "cadence.*"
// namespace.
const (
	AttrClip      = "cadence.clip"
	AttrRequested = "cadence.requested"
	AttrBank      = "cadence.bank"
	AttrPlayGroup = "cadence.play_group"
	AttrInstance  = "cadence.instance_id"
	AttrSession   = "cadence.session"
	AttrResult    = "cadence.result"
	AttrLoadMode  = "cadence.load.mode"
	AttrAsset     = "cadence.asset"
	AttrRecycled  = "cadence.voice.recycled"
	AttrOverflow  = "cadence.voice.overflow"
)

// SetPlayAttributes records what a play request asked for and what it
// resolved to.
//
// Example:
//
//	SetPlayAttributes(span, "footsteps", "footstep_03", "sfx")
func SetPlayAttributes(span trace.Span, requested, clip, bank string) {
	attrs := []attribute.KeyValue{attribute.String(AttrRequested, requested)}
	if clip != "" {
		attrs = append(attrs, attribute.String(AttrClip, clip))
	}
	if bank != "" {
		attrs = append(attrs, attribute.String(AttrBank, bank))
	}
	span.SetAttributes(attrs...)
}

// SetInstanceAttribute records the id of the instance a play created.
func SetInstanceAttribute(span trace.Span, id uint64) {
	span.SetAttributes(attribute.Int64(AttrInstance, int64(id)))
}

// SetResultAttribute records the outcome of a play.
func SetResultAttribute(span trace.Span, result string) {
	span.SetAttributes(attribute.String(AttrResult, result))
}

// AddEvent adds a named event with optional attributes to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
