package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
	"github.com/jaydeluca/java-meta-tracker/internal/report"
)

// RepoStatsService reports open issue and pull request counts.
type RepoStatsService struct {
	content driven.ContentSource
	sink    driven.MetricSink
	repos   []string
}

// NewRepoStatsService creates a RepoStatsService for the given owner/repo names.
func NewRepoStatsService(content driven.ContentSource, sink driven.MetricSink, repos []string) *RepoStatsService {
	return &RepoStatsService{content: content, sink: sink, repos: repos}
}

// Collect emits repo.issues.open and repo.prs.open for every repository.
// Failing repositories are logged and skipped; an error is returned only when
// none succeeded.
func (s *RepoStatsService) Collect(ctx context.Context) error {
	var errs []error
	for _, repo := range s.repos {
		counts, err := s.content.FetchRepoCounts(ctx, repo)
		if err != nil {
			slog.Warn("fetching repository counts", "repo", repo, "error", err)
			errs = append(errs, err)
			continue
		}

		labels := map[string]string{"repo": model.ShortName(repo)}
		s.sink.RecordGauge(ctx, model.MetricIssuesOpen, float64(counts.OpenIssues), labels)
		s.sink.RecordGauge(ctx, model.MetricPRsOpen, float64(counts.OpenPRs), labels)

		slog.Info("repository stats", "repo", repo, "open_issues", counts.OpenIssues, "open_prs", counts.OpenPRs)
	}

	if len(s.repos) > 0 && len(errs) == len(s.repos) {
		return fmt.Errorf("collecting repository stats: %w", errors.Join(errs...))
	}
	return nil
}

// DefaultOverheadTestTypes are the published benchmark-overhead result sets.
var DefaultOverheadTestTypes = []string{"release", "snapshot", "snapshot-regression"}

// BenchmarkService reports the agent overhead benchmark published on the
// gh-pages branch.
type BenchmarkService struct {
	content   driven.ContentSource
	sink      driven.MetricSink
	repo      string
	ref       string
	testTypes []string
	now       func() time.Time
}

// NewBenchmarkService creates a BenchmarkService reading from repo's gh-pages branch.
func NewBenchmarkService(content driven.ContentSource, sink driven.MetricSink, repo string) *BenchmarkService {
	return &BenchmarkService{
		content:   content,
		sink:      sink,
		repo:      repo,
		ref:       "gh-pages",
		testTypes: DefaultOverheadTestTypes,
		now:       time.Now,
	}
}

// Collect emits benchmark.<metric> gauges labelled entity and test_type. A
// test type that cannot be fetched or parsed is skipped.
func (s *BenchmarkService) Collect(ctx context.Context) error {
	var errs []error
	for _, testType := range s.testTypes {
		n, err := s.collectTestType(ctx, testType)
		if err != nil {
			slog.Warn("skipping benchmark results", "test_type", testType, "error", err)
			errs = append(errs, err)
			continue
		}
		slog.Info("exported benchmark metrics", "test_type", testType, "metrics", n)
	}

	if len(s.testTypes) > 0 && len(errs) == len(s.testTypes) {
		return fmt.Errorf("collecting benchmark overhead: %w", errors.Join(errs...))
	}
	return nil
}

func (s *BenchmarkService) collectTestType(ctx context.Context, testType string) (int, error) {
	path := fmt.Sprintf("benchmark-overhead/results/%s/summary.txt", testType)
	data, err := s.content.FetchFile(ctx, s.repo, s.ref, path)
	if err != nil {
		return 0, err
	}

	r, err := report.ParseOverheadSummary(string(data), s.now())
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	slog.Debug("parsed benchmark summary", "test_type", testType, "run_at", r.RunAt, "entities", r.Entities)

	for _, entity := range r.Entities {
		for metric, value := range r.Metrics[entity] {
			s.sink.RecordGauge(ctx, "benchmark."+metric, value, map[string]string{
				"entity":    entity,
				"test_type": testType,
			})
		}
	}
	return r.MetricCount(), nil
}

// PrometheusBenchmarkService reports the JMH results of prometheus/client_java.
type PrometheusBenchmarkService struct {
	content driven.ContentSource
	sink    driven.MetricSink
	repo    string
	ref     string
}

// NewPrometheusBenchmarkService creates a PrometheusBenchmarkService reading
// the benchmarks branch of repo.
func NewPrometheusBenchmarkService(content driven.ContentSource, sink driven.MetricSink, repo string) *PrometheusBenchmarkService {
	return &PrometheusBenchmarkService{content: content, sink: sink, repo: repo, ref: "benchmarks"}
}

// Collect emits prometheus_client.benchmark.<class>.score and .score_error
// gauges. Missing hardware information degrades to processor=unknown.
func (s *PrometheusBenchmarkService) Collect(ctx context.Context) error {
	data, err := s.content.FetchFile(ctx, s.repo, s.ref, "results.json")
	if err != nil {
		return fmt.Errorf("fetching jmh results: %w", err)
	}

	processor := report.UnknownProcessor
	if readme, err := s.content.FetchFile(ctx, s.repo, s.ref, "README.md"); err != nil {
		slog.Warn("fetching benchmark README, processor unknown", "repo", s.repo, "error", err)
	} else {
		processor = report.ParseProcessor(string(readme))
	}

	benchmarks, err := report.ParseJMHResults(data)
	if err != nil {
		return err
	}

	for _, b := range benchmarks {
		prefix := "prometheus_client.benchmark." + strings.ToLower(b.ClassName)
		labels := map[string]string{
			"method":    b.MethodName,
			"threads":   strconv.Itoa(b.Threads),
			"forks":     strconv.Itoa(b.Forks),
			"unit":      b.ScoreUnit,
			"processor": processor,
		}
		s.sink.RecordGauge(ctx, prefix+".score", b.Score, labels)
		s.sink.RecordGauge(ctx, prefix+".score_error", b.ScoreError, labels)
	}

	slog.Info("exported prometheus client benchmarks", "benchmarks", len(benchmarks), "metrics", 2*len(benchmarks), "processor", processor)
	return nil
}

// InstrumentationListPath is the instrumentation metadata document.
const InstrumentationListPath = "docs/instrumentation-list.yaml"

// InstrumentationService reports counts from the instrumentation list.
type InstrumentationService struct {
	content driven.ContentSource
	sink    driven.MetricSink
	repo    string
}

// NewInstrumentationService creates an InstrumentationService for repo.
func NewInstrumentationService(content driven.ContentSource, sink driven.MetricSink, repo string) *InstrumentationService {
	return &InstrumentationService{content: content, sink: sink, repo: repo}
}

// Collect emits instrumentation.libraries.* gauges labelled repo.
func (s *InstrumentationService) Collect(ctx context.Context) error {
	data, err := s.content.FetchFile(ctx, s.repo, "", InstrumentationListPath)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", InstrumentationListPath, err)
	}

	summary, err := report.ParseInstrumentationList(data)
	if err != nil {
		return err
	}

	labels := map[string]string{"repo": model.ShortName(s.repo)}
	for name, value := range map[string]int{
		"total":                  summary.TotalLibraries,
		"with_description":       summary.WithDescription,
		"with_javaagent_version": summary.WithJavaagentVersion,
		"with_library_version":   summary.WithLibraryVersion,
		"with_telemetry":         summary.WithTelemetry,
	} {
		s.sink.RecordGauge(ctx, "instrumentation.libraries."+name, float64(value), labels)
	}

	slog.Info("instrumentation metadata",
		"repo", s.repo,
		"total", summary.TotalLibraries,
		"with_description", summary.WithDescription,
		"with_javaagent_version", summary.WithJavaagentVersion,
		"with_library_version", summary.WithLibraryVersion,
		"with_telemetry", summary.WithTelemetry,
	)
	return nil
}
