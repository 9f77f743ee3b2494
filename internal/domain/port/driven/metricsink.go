package driven

import "context"

// MetricSink defines the driven port for emitting measurements to a metrics
// backend. The caller has no knowledge of wire format or batching.
type MetricSink interface {
	// RecordHistogram records one sample of a distribution, e.g. a run duration.
	RecordHistogram(ctx context.Context, name string, value float64, labels map[string]string)
	// RecordGauge sets the current value of a gauge.
	RecordGauge(ctx context.Context, name string, value float64, labels map[string]string)
}

// MetricPipeline is a MetricSink whose buffered measurements can be pushed to
// the backend explicitly. Short-lived processes must Flush before exiting.
type MetricPipeline interface {
	MetricSink
	Flush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
