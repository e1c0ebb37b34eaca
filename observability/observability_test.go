package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumInt(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	cfg := DefaultMeterConfig("test-service")
	cfg.Readers = []sdkmetric.Reader{reader}
	mp, err := InitMeter(cfg)
	if err != nil {
		t.Fatalf("InitMeter failed: %v", err)
	}
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := NewMetrics(mp.Meter(MeterName))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	return metrics, reader
}

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected Environment 'production', got %q", cfg.Environment)
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if len(cfg.Readers) != 0 {
		t.Errorf("expected no readers, got %d", len(cfg.Readers))
	}
}

func TestNewMetricsNoop(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordEntry(ctx, "I", "DEFAULT", true)
	metrics.RecordFlush(ctx, 1, StatusOK, time.Millisecond)
	metrics.RecordFlushFailure(ctx, "write")
}

func TestMetricsRecordEntryAndFlush(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordEntry(ctx, "I", "API", true)
	metrics.RecordEntry(ctx, "E", "API", true)
	metrics.RecordEntry(ctx, "W", "API", false)

	data := collect(t, reader)
	if got := sumInt(t, data[MetricEntriesTotal]); got != 3 {
		t.Errorf("expected 3 recorded entries, got %d", got)
	}
	if got := sumInt(t, data[MetricEntriesBuffered]); got != 2 {
		t.Errorf("expected 2 buffered entries, got %d", got)
	}

	metrics.RecordFlush(ctx, 2, StatusOK, 5*time.Millisecond)

	data = collect(t, reader)
	if got := sumInt(t, data[MetricEntriesBuffered]); got != 0 {
		t.Errorf("expected buffered gauge drained, got %d", got)
	}
	if got := sumInt(t, data[MetricFlushedTotal]); got != 2 {
		t.Errorf("expected 2 flushed entries, got %d", got)
	}
	hist, ok := data[MetricFlushDuration].(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("expected one flush duration sample, got %+v", data[MetricFlushDuration])
	}
}

func TestMetricsFailedFlushNotCounted(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordEntry(ctx, "I", "API", true)
	metrics.RecordFlushFailure(ctx, "write")
	metrics.RecordFlush(ctx, 1, StatusError, time.Millisecond)

	data := collect(t, reader)
	if got := sumInt(t, data[MetricFlushFailures]); got != 1 {
		t.Errorf("expected 1 flush failure, got %d", got)
	}
	if flushed, ok := data[MetricFlushedTotal]; ok && sumInt(t, flushed) != 0 {
		t.Error("expected no flushed entries for a failed flush")
	}
}

func TestInitTracerSamplingRates(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		sampled    bool
	}{
		{"always sample", 1.0, true},
		{"never sample", 0.0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sr := tracetest.NewSpanRecorder()
			cfg := DefaultTracerConfig("test")
			cfg.SampleRate = tc.sampleRate
			cfg.Processors = []sdktrace.SpanProcessor{sr}

			tp, err := InitTracer(cfg)
			if err != nil {
				t.Fatalf("InitTracer failed: %v", err)
			}
			defer tp.Shutdown(context.Background())

			_, span := tp.Tracer(TracerName).Start(context.Background(), SpanLogFlush)
			span.End()

			if got := len(sr.Ended()) == 1; got != tc.sampled {
				t.Errorf("expected sampled=%v, got %d spans", tc.sampled, len(sr.Ended()))
			}
		})
	}
}

func TestInitTracerRatio(t *testing.T) {
	cfg := DefaultTracerConfig("test")
	cfg.SampleRate = 0.5
	tp, err := InitTracer(cfg)
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}
	defer tp.Shutdown(context.Background())
}

func TestSetSpanError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer(TracerName).Start(context.Background(), SpanLogFlush)
	SetSpanError(span, fmt.Errorf("disk full"))
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", ended[0].Status())
	}
	if len(ended[0].Events()) != 1 {
		t.Errorf("expected one recorded error event, got %d", len(ended[0].Events()))
	}
}

func TestSetSpanErrorNil(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer(TracerName).Start(context.Background(), SpanLogFlush)
	SetSpanError(span, nil)
	span.End()

	if sr.Ended()[0].Status().Code == codes.Error {
		t.Error("expected nil error to leave the status unset")
	}
}

func TestSetSpanAttribute(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer(TracerName).Start(context.Background(), "test-attrs")
	SetSpanAttribute(ctx, "string-key", "value")
	SetSpanAttribute(ctx, "int-key", 42)
	SetSpanAttribute(ctx, "int64-key", int64(100))
	SetSpanAttribute(ctx, "float-key", 3.14)
	SetSpanAttribute(ctx, "bool-key", true)
	SetSpanAttribute(ctx, "string-slice-key", []string{"a", "b"})
	SetSpanAttribute(ctx, "unsupported-key", struct{}{})
	span.End()

	if got := len(sr.Ended()[0].Attributes()); got != 6 {
		t.Errorf("expected 6 attributes, got %d", got)
	}
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "key", "value")
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test-operation")
	defer span.End()

	if SpanFromContext(ctx) == nil {
		t.Error("expected a span in the context")
	}
}

type staticChecker Health

func (c staticChecker) CheckHealth(context.Context) Health { return Health(c) }

func TestNewReport(t *testing.T) {
	r := NewReport("my-service", "1.0.0", "abc")

	if r.Service != "my-service" || r.Version != "1.0.0" || r.Instance != "abc" {
		t.Errorf("unexpected report identity %+v", r)
	}
	if r.Status != HealthStatusUp || !r.Healthy() {
		t.Errorf("expected status up, got %s", r.Status)
	}
	if r.CheckedAt.IsZero() {
		t.Error("expected CheckedAt to be set")
	}
}

func TestReport_WorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		statuses []HealthStatus
		want     HealthStatus
	}{
		{name: "all up", statuses: []HealthStatus{HealthStatusUp, HealthStatusUp}, want: HealthStatusUp},
		{name: "degraded", statuses: []HealthStatus{HealthStatusUp, HealthStatusDegraded}, want: HealthStatusDegraded},
		{name: "down then degraded", statuses: []HealthStatus{HealthStatusDown, HealthStatusDegraded}, want: HealthStatusDown},
		{name: "degraded then up", statuses: []HealthStatus{HealthStatusDegraded, HealthStatusUp}, want: HealthStatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReport("svc", "", "")
			for i, st := range tt.statuses {
				r.Add(Health{Component: fmt.Sprint(i), Status: st})
			}
			if r.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, r.Status)
			}
			if len(r.Components) != len(tt.statuses) {
				t.Errorf("expected %d components, got %d", len(tt.statuses), len(r.Components))
			}
		})
	}
}

func TestReport_Check(t *testing.T) {
	r := NewReport("svc", "1.0.0", "").Check(context.Background(),
		staticChecker{Component: "config", Status: HealthStatusUp, Keys: 4},
		staticChecker{Component: "redlog", Status: HealthStatusDegraded, Buffered: 2, LastFlushErr: "disk full"},
	)

	if r.Status != HealthStatusDegraded || r.Healthy() {
		t.Errorf("expected degraded, got %s", r.Status)
	}
	if len(r.Components) != 2 || r.Components[0].Component != "config" || r.Components[1].Buffered != 2 {
		t.Errorf("unexpected components %+v", r.Components)
	}
}
