// Package prom implements the MetricPipeline port on a Prometheus registry
// that is pushed to a Pushgateway on Flush.
package prom

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MetricPipeline = (*Sink)(nil)

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_:]`)

// Sink lazily registers one vector per metric name on a private registry.
type Sink struct {
	reg    *prometheus.Registry
	pusher *push.Pusher

	mu         sync.Mutex
	histograms map[string]*vec[*prometheus.HistogramVec]
	gauges     map[string]*vec[*prometheus.GaugeVec]
}

type vec[V any] struct {
	v      V
	labels []string
}

// New creates a Sink pushing to the Pushgateway at url under the given job.
func New(url, job string) *Sink {
	reg := prometheus.NewRegistry()
	return &Sink{
		reg:        reg,
		pusher:     push.New(url, job).Gatherer(reg),
		histograms: make(map[string]*vec[*prometheus.HistogramVec]),
		gauges:     make(map[string]*vec[*prometheus.GaugeVec]),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})
}

// RecordHistogram observes value on the histogram called name.
func (s *Sink) RecordHistogram(_ context.Context, name string, value float64, labels map[string]string) {
	s.mu.Lock()
	h, ok := s.histograms[name]
	if !ok {
		keys := labelNames(labels)
		hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricName(name),
			Help:    "Histogram " + name,
			Buckets: bucketsFor(name),
		}, keys)
		if err := s.reg.Register(hv); err != nil {
			s.mu.Unlock()
			slog.Warn("registering histogram", "metric", name, "error", err)
			return
		}
		h = &vec[*prometheus.HistogramVec]{v: hv, labels: keys}
		s.histograms[name] = h
	}
	s.mu.Unlock()

	if !slices.Equal(h.labels, labelNames(labels)) {
		slog.Warn("dropping sample with inconsistent labels", "metric", name, "want", h.labels)
		return
	}

	obs, err := h.v.GetMetricWith(labels)
	if err != nil {
		slog.Warn("recording histogram", "metric", name, "error", err)
		return
	}
	obs.Observe(value)
}

// RecordGauge sets the gauge called name to value.
func (s *Sink) RecordGauge(_ context.Context, name string, value float64, labels map[string]string) {
	s.mu.Lock()
	g, ok := s.gauges[name]
	if !ok {
		keys := labelNames(labels)
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricName(name),
			Help: "Gauge " + name,
		}, keys)
		if err := s.reg.Register(gv); err != nil {
			s.mu.Unlock()
			slog.Warn("registering gauge", "metric", name, "error", err)
			return
		}
		g = &vec[*prometheus.GaugeVec]{v: gv, labels: keys}
		s.gauges[name] = g
	}
	s.mu.Unlock()

	if !slices.Equal(g.labels, labelNames(labels)) {
		slog.Warn("dropping sample with inconsistent labels", "metric", name, "want", g.labels)
		return
	}

	gauge, err := g.v.GetMetricWith(labels)
	if err != nil {
		slog.Warn("recording gauge", "metric", name, "error", err)
		return
	}
	gauge.Set(value)
}

// Flush pushes the whole registry, replacing the job's previous group.
func (s *Sink) Flush(ctx context.Context) error {
	if err := s.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push to pushgateway: %w", err)
	}
	return nil
}

// Shutdown performs a final push.
func (s *Sink) Shutdown(ctx context.Context) error {
	return s.Flush(ctx)
}

// MetricName converts a dotted metric name to a valid Prometheus name, e.g.
// "workflow.run.duration" to "workflow_run_duration".
func MetricName(name string) string {
	return invalidNameChars.ReplaceAllString(name, "_")
}

func labelNames(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func bucketsFor(name string) []float64 {
	if b := model.HistogramBuckets(name); b != nil {
		return b
	}
	return prometheus.DefBuckets
}
