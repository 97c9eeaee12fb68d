package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/cadence/pkg/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func enabledConfig() *config.TracingConfig {
	return &config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		SampleRatio: 1,
		Endpoint:    "localhost:4317",
		ServiceName: "cadence-test",
		Insecure:    true,
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *config.TracingConfig
		wantErr bool
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name:   "disabled tracing",
			config: &config.TracingConfig{Enabled: false, ServiceName: "test"},
		},
		{
			name:   "enabled with OTLP exporter",
			config: enabledConfig(),
		},
		{
			name: "unknown sampler",
			config: &config.TracingConfig{
				Enabled:  true,
				Sampler:  "sometimes",
				Endpoint: "localhost:4317",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, WithoutGlobal())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tracer != nil {
				if err := tracer.Shutdown(context.Background()); err != nil {
					t.Errorf("Shutdown() error = %v", err)
				}
			}
		})
	}
}

func TestTracer_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(enabledConfig(), WithExporter(exporter), WithoutGlobal(), WithServiceVersion("1.2.3"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	if !tracer.Enabled() {
		t.Fatal("expected tracer to be enabled")
	}

	ctx, span := tracer.Start(context.Background(), "engine.play")
	SetPlayAttributes(span, "footsteps", "footstep_03", "sfx")
	SetInstanceAttribute(span, 9)
	SetResultAttribute(span, "played")
	AddEvent(span, "voice.acquired", attribute.Bool(AttrRecycled, false))
	SetStatus(span, nil)

	if TraceID(ctx) == "" {
		t.Error("expected a trace id in the span context")
	}
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != "engine.play" {
		t.Errorf("span name = %q, want engine.play", got.Name)
	}
	if got.Status.Code != codes.Ok {
		t.Errorf("span status = %v, want Ok", got.Status.Code)
	}

	want := map[attribute.Key]attribute.Value{
		AttrRequested: attribute.StringValue("footsteps"),
		AttrClip:      attribute.StringValue("footstep_03"),
		AttrBank:      attribute.StringValue("sfx"),
		AttrInstance:  attribute.Int64Value(9),
		AttrResult:    attribute.StringValue("played"),
	}
	for _, kv := range got.Attributes {
		if v, ok := want[kv.Key]; ok {
			if v != kv.Value {
				t.Errorf("attribute %s = %v, want %v", kv.Key, kv.Value.Emit(), v.Emit())
			}
			delete(want, kv.Key)
		}
	}
	if len(want) != 0 {
		t.Errorf("missing attributes: %v", want)
	}
	if len(got.Events) != 1 || got.Events[0].Name != "voice.acquired" {
		t.Errorf("unexpected events %+v", got.Events)
	}
}

func TestTracer_ErrorStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(enabledConfig(), WithExporter(exporter), WithoutGlobal())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, span := tracer.Start(context.Background(), "engine.play")
	SetStatus(span, errors.New("not found"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Status.Code != codes.Error {
		t.Fatalf("expected one errored span, got %+v", spans)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
}

func TestTracer_DisabledAndNil(t *testing.T) {
	disabled, err := New(&config.TracingConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for name, tracer := range map[string]*Tracer{"disabled": disabled, "nil": nil} {
		t.Run(name, func(t *testing.T) {
			if tracer.Enabled() {
				t.Error("expected tracer to be disabled")
			}
			ctx, span := tracer.Start(context.Background(), "engine.play")
			span.End()
			if span.SpanContext().IsValid() {
				t.Error("expected a noop span")
			}
			if TraceID(ctx) != "" {
				t.Error("expected no trace id")
			}
			if err := tracer.Shutdown(context.Background()); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{strategy: SamplerAlways, ratio: 1},
		{strategy: SamplerNever, ratio: 1},
		{strategy: SamplerRatio, ratio: 0.5},
		{strategy: SamplerParentBased, ratio: 0.1},
		{strategy: "", ratio: 1},
		{strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{strategy: "sometimes", ratio: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
			}
			if !tt.wantErr && sampler == nil {
				t.Error("expected a sampler")
			}
		})
	}
}

func TestHTTPMiddleware(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(enabledConfig(), WithExporter(exporter))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	var sawTrace string
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawTrace = TraceID(r.Context())
	}))

	ctx, span := tracer.Start(context.Background(), "client")
	req := httptest.NewRequest(http.MethodPost, "/v1/play", nil)
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))
	span.End()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if sawTrace == "" || sawTrace != TraceID(ctx) {
		t.Errorf("handler saw trace %q, want %q", sawTrace, TraceID(ctx))
	}
	if rec.Header().Get("X-Trace-ID") != sawTrace {
		t.Errorf("X-Trace-ID = %q, want %q", rec.Header().Get("X-Trace-ID"), sawTrace)
	}
}
