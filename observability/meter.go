package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterName is the instrumentation scope used for the logger's instruments.
const MeterName = "github.com/kbukum/redkit/logger"

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (production, staging, ...).
	Environment string
	// Readers collect the recorded metrics. Without one, measurements are
	// aggregated in memory and never exported.
	Readers []sdkmetric.Reader
	// Global installs the provider as the otel global meter provider.
	Global bool
}

// DefaultMeterConfig returns a config for serviceName with no readers.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "0.0.0",
		Environment:    "production",
	}
}

// InitMeter builds a meter provider from config.
// The provider should be shut down on application exit.
func InitMeter(config MeterConfig) (*sdkmetric.MeterProvider, error) {
	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range config.Readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}
	mp := sdkmetric.NewMeterProvider(opts...)

	if config.Global {
		otel.SetMeterProvider(mp)
	}
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the logger.
type Metrics struct {
	entriesTotal    metric.Int64Counter
	entriesBuffered metric.Int64UpDownCounter
	flushedTotal    metric.Int64Counter
	flushFailures   metric.Int64Counter
	flushDuration   metric.Float64Histogram
}

// Instrument names.
const (
	MetricEntriesTotal    = "redlog.entries.total"
	MetricEntriesBuffered = "redlog.entries.buffered"
	MetricFlushedTotal    = "redlog.flush.entries"
	MetricFlushFailures   = "redlog.flush.failures"
	MetricFlushDuration   = "redlog.flush.duration"
)

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	entriesTotal, err := meter.Int64Counter(MetricEntriesTotal,
		metric.WithDescription("Log entries recorded, by level and label"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricEntriesTotal, err)
	}

	entriesBuffered, err := meter.Int64UpDownCounter(MetricEntriesBuffered,
		metric.WithDescription("Log entries waiting for the next flush"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricEntriesBuffered, err)
	}

	flushedTotal, err := meter.Int64Counter(MetricFlushedTotal,
		metric.WithDescription("Log entries written to the log file"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFlushedTotal, err)
	}

	flushFailures, err := meter.Int64Counter(MetricFlushFailures,
		metric.WithDescription("Failed flush steps, by stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFlushFailures, err)
	}

	flushDuration, err := meter.Float64Histogram(MetricFlushDuration,
		metric.WithDescription("Duration of flushes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricFlushDuration, err)
	}

	return &Metrics{
		entriesTotal:    entriesTotal,
		entriesBuffered: entriesBuffered,
		flushedTotal:    flushedTotal,
		flushFailures:   flushFailures,
		flushDuration:   flushDuration,
	}, nil
}

// RecordEntry counts one recorded entry. Buffered entries also raise the
// pending gauge until RecordFlush drains it.
func (m *Metrics) RecordEntry(ctx context.Context, level, label string, buffered bool) {
	m.entriesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("level", level),
		attribute.String("label", label),
	))
	if buffered {
		m.entriesBuffered.Add(ctx, 1)
	}
}

// RecordFlush records a completed flush of n entries.
func (m *Metrics) RecordFlush(ctx context.Context, n int, status string, duration time.Duration) {
	m.entriesBuffered.Add(ctx, -int64(n))
	if status == StatusOK {
		m.flushedTotal.Add(ctx, int64(n))
	}
	m.flushDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrStatus, status),
	))
}

// RecordFlushFailure counts a failed flush step ("dir" or "write").
func (m *Metrics) RecordFlushFailure(ctx context.Context, stage string) {
	m.flushFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

// Flush statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
