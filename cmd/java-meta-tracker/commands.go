package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaydeluca/java-meta-tracker/internal/application"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

var (
	lookbackHours int
	debugHours    int
	debugTop      int
)

func init() {
	workflowsCmd.Flags().IntVar(&lookbackHours, "hours", 0, "lookback window in hours (default WORKFLOW_LOOKBACK_HOURS)")
	debugBuildsCmd.Flags().IntVar(&debugHours, "hours", 0, "lookback window in hours (default DEBUG_LOOKBACK_HOURS)")
	debugBuildsCmd.Flags().IntVar(&debugTop, "top", 20, "number of shortest runs to list")

	rootCmd.AddCommand(workflowsCmd)
	rootCmd.AddCommand(repoStatsCmd)
	rootCmd.AddCommand(benchmarksCmd)
	rootCmd.AddCommand(prometheusBenchmarksCmd)
	rootCmd.AddCommand(instrumentationCmd)
	rootCmd.AddCommand(debugBuildsCmd)
	rootCmd.AddCommand(serveCmd)
}

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "Run one workflow duration collection pass",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lookback := cfg.Lookback
		if lookbackHours > 0 {
			lookback = time.Duration(lookbackHours) * time.Hour
		}

		st, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer st.release()

		return collectOnce(cmd.Context(), func(ctx context.Context, sink driven.MetricSink) error {
			collector := application.NewWorkflowCollector(newGitHubClient(cfg), st.processed, sink, st.passes, collectorConfig(cfg, lookback))
			_, err := collector.Collect(ctx)
			return err
		})
	},
}

var repoStatsCmd = &cobra.Command{
	Use:   "repo-stats",
	Short: "Report open issue and pull request counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return collectOnce(cmd.Context(), func(ctx context.Context, sink driven.MetricSink) error {
			return application.NewRepoStatsService(newGitHubClient(cfg), sink, cfg.StatsRepos).Collect(ctx)
		})
	},
}

var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks",
	Short: "Report the agent overhead benchmark results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return collectOnce(cmd.Context(), func(ctx context.Context, sink driven.MetricSink) error {
			return application.NewBenchmarkService(newGitHubClient(cfg), sink, cfg.WorkflowRepo).Collect(ctx)
		})
	},
}

var prometheusBenchmarksCmd = &cobra.Command{
	Use:   "prometheus-benchmarks",
	Short: "Report the prometheus/client_java JMH benchmark results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return collectOnce(cmd.Context(), func(ctx context.Context, sink driven.MetricSink) error {
			return application.NewPrometheusBenchmarkService(newGitHubClient(cfg), sink, prometheusClientRepo).Collect(ctx)
		})
	},
}

var instrumentationCmd = &cobra.Command{
	Use:   "instrumentation",
	Short: "Report instrumentation library metadata counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return collectOnce(cmd.Context(), func(ctx context.Context, sink driven.MetricSink) error {
			return application.NewInstrumentationService(newGitHubClient(cfg), sink, cfg.WorkflowRepo).Collect(ctx)
		})
	},
}

var debugBuildsCmd = &cobra.Command{
	Use:   "debug-builds",
	Short: "List recent build durations without recording anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lookback := cfg.DebugLookback
		if debugHours > 0 {
			lookback = time.Duration(debugHours) * time.Hour
		}

		analyzer := application.NewBuildAnalyzer(newGitHubClient(cfg), collectorConfig(cfg, lookback))
		rep, err := analyzer.Analyze(cmd.Context())
		if err != nil {
			return err
		}

		renderBuildReport(cmd.OutOrStdout(), rep, debugTop)
		return nil
	},
}

// prometheusClientRepo publishes the JMH results on its benchmarks branch.
const prometheusClientRepo = "prometheus/client_java"
