// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// State backends selectable with TRACKER_STATE_BACKEND.
const (
	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
	StateBackendS3     = "s3"
)

// Metric exporters selectable with TRACKER_METRICS_EXPORTER.
const (
	ExporterOTLP        = "otlp"
	ExporterStdout      = "stdout"
	ExporterPushgateway = "pushgateway"
)

// S3Config locates the state document in an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Key       string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken string

	WorkflowRepo    string
	StatsRepos      []string
	WorkflowNames   []string
	WorkflowFiles   []string
	MainBranch      string
	AcceptAllPRs    bool
	DesignatedPR    *int
	Lookback        time.Duration
	DebugLookback   time.Duration
	StateBackend    string
	StateFile       string
	DBPath          string
	S3              S3Config
	MetricsExporter string
	PushgatewayURL  string
	ServiceName     string

	WorkflowSchedule string
	ReportSchedule   string
	ListenAddr       string

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file from the working directory, then the
// environment. GITHUB_TOKEN is required; every other variable has a default:
// WORKFLOW_LOOKBACK_HOURS (3), DEBUG_LOOKBACK_HOURS (12), TRACKER_STATE_BACKEND
// (file), TRACKER_METRICS_EXPORTER (otlp), TRACKER_LISTEN_ADDR (127.0.0.1:8080).
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("ignoring unreadable .env file", "error", err)
	}

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN: %w", model.ErrMissingToken)
	}

	lookback, err := hours("WORKFLOW_LOOKBACK_HOURS", 3)
	if err != nil {
		return nil, err
	}
	debugLookback, err := hours("DEBUG_LOOKBACK_HOURS", 12)
	if err != nil {
		return nil, err
	}

	acceptAll := true
	if v, ok := os.LookupEnv("TRACKER_ACCEPT_ALL_PRS"); ok {
		acceptAll, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("TRACKER_ACCEPT_ALL_PRS has invalid boolean %q: %w", v, err)
		}
	}

	designated := 15213
	designatedPR := &designated
	if v, ok := os.LookupEnv("TRACKER_DESIGNATED_TEST_PR"); ok {
		if strings.TrimSpace(v) == "" {
			designatedPR = nil
		} else {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("TRACKER_DESIGNATED_TEST_PR has invalid number %q: %w", v, err)
			}
			designatedPR = &n
		}
	}

	useSSL := true
	if v, ok := os.LookupEnv("TRACKER_S3_USE_SSL"); ok {
		useSSL, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("TRACKER_S3_USE_SSL has invalid boolean %q: %w", v, err)
		}
	}

	stateBackend := strings.ToLower(lookup("TRACKER_STATE_BACKEND", StateBackendFile))
	switch stateBackend {
	case StateBackendFile, StateBackendSQLite, StateBackendS3:
	default:
		return nil, fmt.Errorf("TRACKER_STATE_BACKEND has unsupported value %q", stateBackend)
	}

	exporter := strings.ToLower(lookup("TRACKER_METRICS_EXPORTER", ExporterOTLP))
	switch exporter {
	case ExporterOTLP, ExporterStdout, ExporterPushgateway:
	default:
		return nil, fmt.Errorf("TRACKER_METRICS_EXPORTER has unsupported value %q", exporter)
	}

	cfg := &Config{
		GitHubToken:   token,
		WorkflowRepo:  lookup("TRACKER_WORKFLOW_REPO", "open-telemetry/opentelemetry-java-instrumentation"),
		StatsRepos:    list("TRACKER_STATS_REPOS", "open-telemetry/opentelemetry-java-instrumentation,open-telemetry/opentelemetry-java"),
		WorkflowNames: list("TRACKER_BUILD_WORKFLOW_NAMES", "Build,Build pull request"),
		WorkflowFiles: list("TRACKER_BUILD_WORKFLOW_FILES", "build.yml,build-pull-request.yml"),
		MainBranch:    lookup("TRACKER_MAIN_BRANCH", "main"),
		AcceptAllPRs:  acceptAll,
		DesignatedPR:  designatedPR,
		Lookback:      lookback,
		DebugLookback: debugLookback,
		StateBackend:  stateBackend,
		StateFile:     lookup("WORKFLOW_STATE_FILE", "/app/state/processed_workflow_runs.json"),
		DBPath:        lookup("TRACKER_DB_PATH", "/app/state/tracker.db"),
		S3: S3Config{
			Endpoint:  os.Getenv("TRACKER_S3_ENDPOINT"),
			Bucket:    os.Getenv("TRACKER_S3_BUCKET"),
			Key:       lookup("TRACKER_S3_KEY", "processed_workflow_runs.json"),
			AccessKey: os.Getenv("TRACKER_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("TRACKER_S3_SECRET_KEY"),
			UseSSL:    useSSL,
		},
		MetricsExporter:  exporter,
		PushgatewayURL:   lookup("TRACKER_PUSHGATEWAY_URL", "http://localhost:9091"),
		ServiceName:      lookup("TRACKER_SERVICE_NAME", "github-workflow-metrics"),
		WorkflowSchedule: lookup("TRACKER_WORKFLOW_SCHEDULE", "*/30 * * * *"),
		ReportSchedule:   lookup("TRACKER_REPORT_SCHEDULE", "0 */6 * * *"),
		ListenAddr:       lookup("TRACKER_LISTEN_ADDR", "127.0.0.1:8080"),
		LogLevel:         lookup("LOG_LEVEL", "info"),
		LogFormat:        lookup("LOG_FORMAT", "text"),
	}

	if cfg.StateBackend == StateBackendS3 && (cfg.S3.Endpoint == "" || cfg.S3.Bucket == "") {
		return nil, errors.New("TRACKER_S3_ENDPOINT and TRACKER_S3_BUCKET are required for the s3 state backend")
	}

	return cfg, nil
}

// lookup returns the value of key, or def when it is unset or empty.
func lookup(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// list splits a comma-separated variable, dropping blank entries.
func list(key, def string) []string {
	out := []string{}
	for _, item := range strings.Split(lookup(key, def), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func hours(key string, def int) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return time.Duration(def) * time.Hour, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of hours, got %q", key, v)
	}
	return time.Duration(n) * time.Hour, nil
}
