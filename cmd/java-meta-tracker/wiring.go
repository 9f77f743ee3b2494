package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	githubadapter "github.com/jaydeluca/java-meta-tracker/internal/adapter/driven/github"
	"github.com/jaydeluca/java-meta-tracker/internal/adapter/driven/objectstore"
	otelsink "github.com/jaydeluca/java-meta-tracker/internal/adapter/driven/otel"
	promsink "github.com/jaydeluca/java-meta-tracker/internal/adapter/driven/prom"
	sqliteadapter "github.com/jaydeluca/java-meta-tracker/internal/adapter/driven/sqlite"
	"github.com/jaydeluca/java-meta-tracker/internal/adapter/driven/statefile"
	"github.com/jaydeluca/java-meta-tracker/internal/application"
	"github.com/jaydeluca/java-meta-tracker/internal/config"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// shutdownTimeout bounds the final metric flush and server drain.
const shutdownTimeout = 10 * time.Second

// stores bundles the dedup store, the pass history and a release func for
// whatever backs them.
type stores struct {
	processed driven.ProcessedRunStore
	passes    driven.PassStore
	close     func() error
}

// release closes the backing stores, logging a failure since callers are
// already on their way out.
func (s *stores) release() {
	if err := s.close(); err != nil {
		slog.Error("error closing state store", "error", err)
	}
}

// openStores builds the state backend selected by TRACKER_STATE_BACKEND.
// Only SQLite persists pass history; other backends keep it in memory.
func openStores(c *config.Config) (*stores, error) {
	noop := func() error { return nil }

	switch c.StateBackend {
	case config.StateBackendSQLite:
		db, err := sqliteadapter.Open(c.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("state backend ready", "backend", c.StateBackend, "path", db.Path())
		return &stores{
			processed: sqliteadapter.NewProcessedRunRepo(db),
			passes:    sqliteadapter.NewPassRepo(db),
			close:     db.Close,
		}, nil

	case config.StateBackendS3:
		store, err := objectstore.NewStore(objectstore.Options{
			Endpoint:  c.S3.Endpoint,
			Bucket:    c.S3.Bucket,
			Key:       c.S3.Key,
			AccessKey: c.S3.AccessKey,
			SecretKey: c.S3.SecretKey,
			UseSSL:    c.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("state backend ready", "backend", c.StateBackend, "bucket", c.S3.Bucket, "key", c.S3.Key)
		return &stores{
			processed: store,
			passes:    application.NewMemoryPassStore(application.DefaultPassHistory),
			close:     noop,
		}, nil

	case config.StateBackendFile:
		slog.Info("state backend ready", "backend", c.StateBackend, "path", c.StateFile)
		return &stores{
			processed: statefile.NewStore(c.StateFile),
			passes:    application.NewMemoryPassStore(application.DefaultPassHistory),
			close:     noop,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported state backend %q", c.StateBackend)
	}
}

// newPipeline builds the metric pipeline selected by TRACKER_METRICS_EXPORTER.
// The returned handler serves the Prometheus registry and is nil for the
// OpenTelemetry exporters.
func newPipeline(ctx context.Context, c *config.Config) (driven.MetricPipeline, http.Handler, error) {
	switch c.MetricsExporter {
	case config.ExporterPushgateway:
		sink := promsink.New(c.PushgatewayURL, c.ServiceName)
		slog.Info("metrics pipeline ready", "exporter", c.MetricsExporter, "url", c.PushgatewayURL)
		return sink, sink.Handler(), nil
	default:
		sink, err := otelsink.New(ctx, c.MetricsExporter, c.ServiceName)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("metrics pipeline ready", "exporter", c.MetricsExporter, "service", c.ServiceName)
		return sink, nil, nil
	}
}

// shutdownPipeline flushes and stops the pipeline on a fresh context so that
// buffered metrics are exported even after the command context is cancelled.
func shutdownPipeline(p driven.MetricPipeline) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := p.Shutdown(ctx); err != nil {
		slog.Error("shutting down metrics pipeline", "error", err)
	}
}

// collectorConfig maps configuration onto the collection driver's tunables.
func collectorConfig(c *config.Config, lookback time.Duration) application.WorkflowCollectorConfig {
	return application.WorkflowCollectorConfig{
		Repo:     c.WorkflowRepo,
		Lookback: lookback,
		Policy: application.FilterPolicy{
			MainBranch:       c.MainBranch,
			AcceptAllPRs:     c.AcceptAllPRs,
			DesignatedTestPR: c.DesignatedPR,
		},
		Matcher: application.WorkflowMatcher{
			Names: c.WorkflowNames,
			Files: c.WorkflowFiles,
		},
	}
}

func newGitHubClient(c *config.Config) *githubadapter.Client {
	return githubadapter.NewClient(c.GitHubToken)
}

// collectOnce runs a single collector against a fresh pipeline and flushes it.
func collectOnce(ctx context.Context, collect func(ctx context.Context, sink driven.MetricSink) error) error {
	pipeline, _, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownPipeline(pipeline)

	return collect(ctx, pipeline)
}
