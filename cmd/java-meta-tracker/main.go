package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/jaydeluca/java-meta-tracker/internal/config"
	"github.com/jaydeluca/java-meta-tracker/internal/logging"
)

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "java-meta-tracker",
	Short: "Collects CI and project health metrics for the OpenTelemetry Java repositories",
	Long: `java-meta-tracker measures build workflow durations of
opentelemetry-java-instrumentation and reports repository, benchmark and
instrumentation metadata as metrics. Each collector runs once as its own
subcommand; "serve" runs them all on cron schedules.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}

		logger, err := logging.New(loaded.LogLevel, loaded.LogFormat)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		cfg = loaded
		slog.Debug("config loaded",
			"workflow_repo", cfg.WorkflowRepo,
			"state_backend", cfg.StateBackend,
			"metrics_exporter", cfg.MetricsExporter,
			"lookback", cfg.Lookback,
		)
		return nil
	},
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
