// Package application contains the collection use cases: the workflow
// duration driver and the periodic report collectors.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// WorkflowLabel is the value of the "workflow" label on duration metrics.
const WorkflowLabel = "build"

// WorkflowCollectorConfig holds the tunables of a WorkflowCollector.
type WorkflowCollectorConfig struct {
	Repo     string
	Lookback time.Duration
	Policy   FilterPolicy
	Matcher  WorkflowMatcher
}

// WorkflowCollector runs collection passes: it fetches recent runs of the
// build workflows, emits run and job durations for runs not seen before, and
// persists the IDs it has accounted for.
type WorkflowCollector struct {
	source driven.WorkflowSource
	store  driven.ProcessedRunStore
	sink   driven.MetricSink
	passes driven.PassStore
	cfg    WorkflowCollectorConfig
	now    func() time.Time
}

// NewWorkflowCollector creates a WorkflowCollector. passes may be nil.
func NewWorkflowCollector(
	source driven.WorkflowSource,
	store driven.ProcessedRunStore,
	sink driven.MetricSink,
	passes driven.PassStore,
	cfg WorkflowCollectorConfig,
) *WorkflowCollector {
	return &WorkflowCollector{
		source: source,
		store:  store,
		sink:   sink,
		passes: passes,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Collect runs one pass. The returned error is non-nil only when the
// repository's workflows could not be resolved; in that case nothing is saved.
func (c *WorkflowCollector) Collect(ctx context.Context) (model.PassSummary, error) {
	summary := model.PassSummary{
		ID:        uuid.NewString(),
		Repo:      c.cfg.Repo,
		StartedAt: c.now(),
	}

	loaded := c.store.Load(ctx)
	seen := loaded.Clone()
	newly := model.NewRunIDSet()

	workflows, err := c.source.ListWorkflows(ctx, c.cfg.Repo)
	if err != nil {
		err = fmt.Errorf("resolving workflows of %s: %w", c.cfg.Repo, err)
		slog.Error("collection pass aborted", "repo", c.cfg.Repo, "error", err)
		summary.Error = err.Error()
		c.finish(ctx, &summary)
		return summary, err
	}

	builds := c.cfg.Matcher.Match(workflows)
	if len(builds) == 0 {
		slog.Warn("no build workflows found", "repo", c.cfg.Repo, "workflows", len(workflows))
		c.finish(ctx, &summary)
		return summary, nil
	}

	since := c.now().Add(-c.cfg.Lookback)
	slog.Info("collecting workflow runs", "repo", c.cfg.Repo, "since", since.UTC().Format(time.RFC3339), "known_runs", loaded.Len())

	for _, wf := range builds {
		slog.Debug("processing workflow", "repo", c.cfg.Repo, "workflow", wf.Name, "path", wf.Path)

		for run, err := range c.source.ListRuns(ctx, c.cfg.Repo, wf.ID, since) {
			if err != nil {
				slog.Warn("listing runs stopped early", "repo", c.cfg.Repo, "workflow", wf.Name, "error", err)
				break
			}

			summary.Total++
			c.processRun(ctx, run, seen, newly, &summary)
		}
	}

	all := loaded.Union(newly)
	summary.StoredIDs = min(all.Len(), model.MaxStoredRunIDs)
	if err := c.store.Save(ctx, all); err != nil {
		slog.Warn("saving processed runs failed, next pass may re-emit", "repo", c.cfg.Repo, "error", err)
	}

	c.finish(ctx, &summary)
	return summary, nil
}

// processRun classifies one run and, if accepted, emits its metrics. Failures
// only skip this run.
func (c *WorkflowCollector) processRun(ctx context.Context, run model.WorkflowRun, seen, newly model.RunIDSet, summary *model.PassSummary) {
	decision := c.cfg.Policy.Classify(run, seen)

	switch decision.Verdict {
	case VerdictSkipDuplicate:
		summary.SkippedDuplicate++
		return
	case VerdictSkipWrongBranchOrEvent:
		summary.SkippedBranch++
		return
	case VerdictSkipIncomplete:
		summary.SkippedIncomplete++
		return
	case VerdictSkipCancelled:
		summary.SkippedCancelled++
		return
	}

	timing, err := c.source.FetchRunTiming(ctx, c.cfg.Repo, run.ID)
	if err != nil {
		slog.Warn("fetching run timing", "repo", c.cfg.Repo, "run_id", run.ID, "error", err)
		summary.SkippedTiming++
		return
	}

	duration, ok := timing.Duration()
	if !ok {
		slog.Warn("run has no timing data", "repo", c.cfg.Repo, "run_id", run.ID, "error", model.ErrNoTiming)
		summary.SkippedTiming++
		return
	}

	labels := map[string]string{
		"repo":     model.ShortName(c.cfg.Repo),
		"workflow": WorkflowLabel,
	}
	for k, v := range decision.Labels {
		labels[k] = v
	}

	c.sink.RecordHistogram(ctx, model.MetricRunDuration, duration.Minutes(), labels)
	summary.JobsRecorded += c.recordJobs(ctx, run.ID, labels)

	newly.Add(run.ID)
	seen.Add(run.ID)
	summary.Processed++

	if summary.Processed <= 5 {
		slog.Debug("recorded run",
			"run_id", run.ID,
			"run_number", run.RunNumber,
			"event", run.Event,
			"conclusion", run.Conclusion,
			"minutes", duration.Minutes(),
		)
	}
}

// recordJobs emits one job duration per completed job and returns how many
// were recorded. A listing failure records nothing.
func (c *WorkflowCollector) recordJobs(ctx context.Context, runID int64, base map[string]string) int {
	jobs, err := c.source.ListJobs(ctx, c.cfg.Repo, runID)
	if err != nil {
		slog.Warn("fetching jobs", "repo", c.cfg.Repo, "run_id", runID, "error", err)
		return 0
	}

	recorded := 0
	for _, job := range jobs {
		d, ok := job.Duration()
		if !ok {
			continue
		}

		labels := make(map[string]string, len(base)+2)
		for k, v := range base {
			labels[k] = v
		}
		labels["job_name"] = job.Name
		labels["job_conclusion"] = string(job.Conclusion.OrUnknown())

		c.sink.RecordHistogram(ctx, model.MetricJobDuration, d.Minutes(), labels)
		recorded++
	}
	return recorded
}

// finish stamps the summary, logs the tallies and records the pass.
func (c *WorkflowCollector) finish(ctx context.Context, summary *model.PassSummary) {
	summary.FinishedAt = c.now()

	slog.Info("collection pass finished",
		"repo", summary.Repo,
		"total", summary.Total,
		"skipped_duplicate", summary.SkippedDuplicate,
		"skipped_branch", summary.SkippedBranch,
		"skipped_incomplete", summary.SkippedIncomplete,
		"skipped_cancelled", summary.SkippedCancelled,
		"skipped_timing", summary.SkippedTiming,
		"processed", summary.Processed,
		"jobs_recorded", summary.JobsRecorded,
		"stored_ids", summary.StoredIDs,
		"duration", summary.Duration().Round(time.Millisecond),
	)

	if c.passes == nil {
		return
	}
	if err := c.passes.Record(ctx, *summary); err != nil {
		slog.Warn("recording pass summary", "pass_id", summary.ID, "error", err)
	}
}
