package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

func newTestSink(t *testing.T) (*Sink, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	sink, err := newWithReader(context.Background(), reader, "test-service")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Shutdown(context.Background()) })
	return sink, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %q not found", name)
	return metricdata.Metrics{}
}

func TestSink_RunDurationHistogramUsesRunBuckets(t *testing.T) {
	sink, reader := newTestSink(t)
	ctx := context.Background()

	labels := map[string]string{
		"repo":          "open-telemetry/opentelemetry-java-instrumentation",
		"workflow":      "build",
		"conclusion":    "success",
		"event":         "push",
		"is_build_test": "false",
	}
	sink.RecordHistogram(ctx, "workflow.run.duration", 10, labels)
	sink.RecordHistogram(ctx, "workflow.run.duration", 22.5, labels)

	rm := collect(t, reader)
	m := findMetric(t, rm, "workflow.run.duration")
	assert.Equal(t, "min", m.Unit)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, metricdata.CumulativeTemporality, hist.Temporality)
	require.Len(t, hist.DataPoints, 1)

	dp := hist.DataPoints[0]
	assert.Equal(t, model.RunDurationBuckets, dp.Bounds)
	assert.Equal(t, uint64(2), dp.Count)
	assert.InDelta(t, 32.5, dp.Sum, 0.0001)

	v, ok := dp.Attributes.Value(attribute.Key("conclusion"))
	require.True(t, ok)
	assert.Equal(t, "success", v.AsString())
}

func TestSink_JobDurationHistogramUsesJobBuckets(t *testing.T) {
	sink, reader := newTestSink(t)

	sink.RecordHistogram(context.Background(), "workflow.job.duration", 3, map[string]string{"job_name": "build"})

	m := findMetric(t, collect(t, reader), "workflow.job.duration")
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, model.JobDurationBuckets, hist.DataPoints[0].Bounds)
}

func TestSink_DistinctLabelsProduceDistinctSeries(t *testing.T) {
	sink, reader := newTestSink(t)
	ctx := context.Background()

	sink.RecordHistogram(ctx, "workflow.run.duration", 10, map[string]string{"conclusion": "success"})
	sink.RecordHistogram(ctx, "workflow.run.duration", 12, map[string]string{"conclusion": "failure"})

	m := findMetric(t, collect(t, reader), "workflow.run.duration")
	hist := m.Data.(metricdata.Histogram[float64])
	assert.Len(t, hist.DataPoints, 2)
}

func TestSink_GaugeKeepsLastValue(t *testing.T) {
	sink, reader := newTestSink(t)
	ctx := context.Background()

	labels := map[string]string{"repo": "opentelemetry-java"}
	sink.RecordGauge(ctx, "repo.issues.open", 10, labels)
	sink.RecordGauge(ctx, "repo.issues.open", 12, labels)

	m := findMetric(t, collect(t, reader), "repo.issues.open")
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 12.0, gauge.DataPoints[0].Value)
}

func TestSink_ResourceCarriesServiceName(t *testing.T) {
	sink, reader := newTestSink(t)
	sink.RecordGauge(context.Background(), "repo.prs.open", 1, nil)

	rm := collect(t, reader)
	v, ok := rm.Resource.Set().Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "test-service", v.AsString())
}

func TestBuildExporter_Unknown(t *testing.T) {
	_, err := buildExporter(context.Background(), "carrier-pigeon")
	require.Error(t, err)
}

func TestBuildExporter_Stdout(t *testing.T) {
	exp, err := buildExporter(context.Background(), "stdout")
	require.NoError(t, err)
	assert.NotNil(t, exp)
}
