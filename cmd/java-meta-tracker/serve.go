package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httphandler "github.com/jaydeluca/java-meta-tracker/internal/adapter/driving/http"
	"github.com/jaydeluca/java-meta-tracker/internal/application"
	"github.com/jaydeluca/java-meta-tracker/internal/config"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// Scheduled job names, also used by POST /api/v1/jobs/{name}/run.
const (
	jobWorkflows            = "workflows"
	jobRepoStats            = "repo-stats"
	jobBenchmarks           = "benchmarks"
	jobPrometheusBenchmarks = "prometheus-benchmarks"
	jobInstrumentation      = "instrumentation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run every collector on a schedule and serve the status API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, c *config.Config) error {
	st, err := openStores(c)
	if err != nil {
		return err
	}
	defer st.release()

	pipeline, metricsHandler, err := newPipeline(ctx, c)
	if err != nil {
		return err
	}
	defer shutdownPipeline(pipeline)

	scheduler := application.NewScheduler(pipeline.Flush)
	for _, job := range scheduledJobs(c, st, pipeline) {
		if err := scheduler.Add(job); err != nil {
			return err
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	h := httphandler.NewHandler(gCtx, st.passes, scheduler, metricsHandler, slog.Default())
	srv := &http.Server{
		Addr:              c.ListenAddr,
		Handler:           httphandler.NewServeMux(h, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g.Go(func() error {
		slog.Info("http server starting", "addr", c.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		scheduler.Start(gCtx)

		// Catch up immediately instead of waiting for the first tick.
		if err := scheduler.RunNow(gCtx, jobWorkflows); err != nil {
			slog.Warn("initial workflow pass failed", "error", err)
		}

		<-gCtx.Done()
		slog.Info("shutting down")
		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
		// Manual runs write to the stores closed on return.
		h.Wait()
		return nil
	})

	slog.Info("java-meta-tracker serving",
		"listen_addr", c.ListenAddr,
		"workflow_schedule", c.WorkflowSchedule,
		"report_schedule", c.ReportSchedule,
	)

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("shutdown complete")
	return nil
}

// scheduledJobs returns the workflow pass on its own schedule and the report
// collectors on the shared report schedule.
func scheduledJobs(c *config.Config, st *stores, sink driven.MetricSink) []application.ScheduledJob {
	gh := newGitHubClient(c)
	collector := application.NewWorkflowCollector(gh, st.processed, sink, st.passes, collectorConfig(c, c.Lookback))

	return []application.ScheduledJob{
		{
			Name: jobWorkflows,
			Spec: c.WorkflowSchedule,
			Run: func(ctx context.Context) error {
				_, err := collector.Collect(ctx)
				return err
			},
		},
		{
			Name: jobRepoStats,
			Spec: c.ReportSchedule,
			Run:  application.NewRepoStatsService(gh, sink, c.StatsRepos).Collect,
		},
		{
			Name: jobBenchmarks,
			Spec: c.ReportSchedule,
			Run:  application.NewBenchmarkService(gh, sink, c.WorkflowRepo).Collect,
		},
		{
			Name: jobPrometheusBenchmarks,
			Spec: c.ReportSchedule,
			Run:  application.NewPrometheusBenchmarkService(gh, sink, prometheusClientRepo).Collect,
		},
		{
			Name: jobInstrumentation,
			Spec: c.ReportSchedule,
			Run:  application.NewInstrumentationService(gh, sink, c.WorkflowRepo).Collect,
		},
	}
}
