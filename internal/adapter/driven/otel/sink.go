// Package otel implements the MetricPipeline port with the OpenTelemetry
// metrics SDK, exporting over OTLP/HTTP or to stdout.
package otel

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MetricPipeline = (*Sink)(nil)

const meterName = "github.com/jaydeluca/java-meta-tracker"

// ExportInterval is how often the periodic reader pushes in long-running mode.
const ExportInterval = 5 * time.Second

// Sink records measurements on lazily created instruments of one MeterProvider.
type Sink struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter

	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
	gauges     map[string]metric.Float64Gauge
}

// New creates a Sink exporting through the named exporter ("otlp" or
// "stdout"). The OTLP endpoint and headers come from the standard
// OTEL_EXPORTER_OTLP_* environment variables.
func New(ctx context.Context, exporter, serviceName string) (*Sink, error) {
	exp, err := buildExporter(ctx, exporter)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(ExportInterval))
	return newWithReader(ctx, reader, serviceName)
}

func newWithReader(ctx context.Context, reader sdkmetric.Reader, serviceName string) (*Sink, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithView(
			bucketView(model.MetricRunDuration),
			bucketView(model.MetricJobDuration),
		),
	)

	return &Sink{
		provider:   provider,
		meter:      provider.Meter(meterName),
		histograms: make(map[string]metric.Float64Histogram),
		gauges:     make(map[string]metric.Float64Gauge),
	}, nil
}

func buildExporter(ctx context.Context, name string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "otlp", "otlphttp", "http":
		exp, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithTemporalitySelector(sdkmetric.DefaultTemporalitySelector),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp metric exporter: %w", err)
		}
		return exp, nil
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unknown otel exporter %q", name)
	}
}

func bucketView(name string) sdkmetric.View {
	return sdkmetric.NewView(
		sdkmetric.Instrument{Name: name},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: model.HistogramBuckets(name)}},
	)
}

// RecordHistogram records value on the histogram called name.
func (s *Sink) RecordHistogram(ctx context.Context, name string, value float64, labels map[string]string) {
	h, err := s.histogram(name)
	if err != nil {
		slog.Warn("creating histogram", "metric", name, "error", err)
		return
	}
	h.Record(ctx, value, metric.WithAttributes(attributes(labels)...))
}

// RecordGauge sets the gauge called name to value.
func (s *Sink) RecordGauge(ctx context.Context, name string, value float64, labels map[string]string) {
	g, err := s.gauge(name)
	if err != nil {
		slog.Warn("creating gauge", "metric", name, "error", err)
		return
	}
	g.Record(ctx, value, metric.WithAttributes(attributes(labels)...))
}

// Flush exports everything recorded so far.
func (s *Sink) Flush(ctx context.Context) error {
	if err := s.provider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("flush metrics: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the provider. The Sink must not be used afterwards.
func (s *Sink) Shutdown(ctx context.Context) error {
	if err := s.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	return nil
}

func (s *Sink) histogram(name string) (metric.Float64Histogram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.histograms[name]; ok {
		return h, nil
	}

	h, err := s.meter.Float64Histogram(name, metric.WithUnit(unitFor(name)), metric.WithDescription(descriptionFor(name)))
	if err != nil {
		return nil, err
	}
	s.histograms[name] = h
	return h, nil
}

func (s *Sink) gauge(name string) (metric.Float64Gauge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.gauges[name]; ok {
		return g, nil
	}

	g, err := s.meter.Float64Gauge(name)
	if err != nil {
		return nil, err
	}
	s.gauges[name] = g
	return g, nil
}

func unitFor(name string) string {
	if strings.HasSuffix(name, ".duration") {
		return "min"
	}
	return ""
}

func descriptionFor(name string) string {
	switch name {
	case model.MetricRunDuration:
		return "Duration of GitHub workflow runs in minutes"
	case model.MetricJobDuration:
		return "Duration of GitHub workflow jobs in minutes"
	}
	return ""
}

// attributes converts labels to attributes in key order.
func attributes(labels map[string]string) []attribute.KeyValue {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, labels[k]))
	}
	return attrs
}
