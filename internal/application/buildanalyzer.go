package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// AnalyzedRun is a completed build run with its reported duration. Minutes is
// zero when GitHub had no timing for the run.
type AnalyzedRun struct {
	Run      model.WorkflowRun
	Workflow string
	Minutes  float64
}

// ConclusionStats summarizes run durations sharing one conclusion.
type ConclusionStats struct {
	Conclusion model.Conclusion
	Count      int
	AvgMinutes float64
	MinMinutes float64
	MaxMinutes float64
}

// BuildReport is the output of BuildAnalyzer.Analyze.
type BuildReport struct {
	Repo      string
	Since     time.Time
	Runs      []AnalyzedRun // Shortest first.
	Stats     []ConclusionStats
	Cancelled int
}

// WouldProcess returns how many runs a collection pass would measure.
func (r BuildReport) WouldProcess() int {
	return len(r.Runs) - r.Cancelled
}

// CancelledAvgMinutes returns the mean duration of cancelled runs.
func (r BuildReport) CancelledAvgMinutes() float64 {
	for _, s := range r.Stats {
		if s.Conclusion == model.ConclusionCancelled {
			return s.AvgMinutes
		}
	}
	return 0
}

// BuildAnalyzer inspects recent build durations without touching dedup state
// or emitting metrics. It is meant for finding runs that would skew the
// duration histograms.
type BuildAnalyzer struct {
	source   driven.WorkflowSource
	repo     string
	lookback time.Duration
	policy   FilterPolicy
	matcher  WorkflowMatcher
	now      func() time.Time
}

// NewBuildAnalyzer creates a BuildAnalyzer using the same workflow matching
// and event filter as the collection driver.
func NewBuildAnalyzer(source driven.WorkflowSource, cfg WorkflowCollectorConfig) *BuildAnalyzer {
	return &BuildAnalyzer{
		source:   source,
		repo:     cfg.Repo,
		lookback: cfg.Lookback,
		policy:   cfg.Policy,
		matcher:  cfg.Matcher,
		now:      time.Now,
	}
}

// Analyze collects every completed, eligible run in the lookback window,
// including cancelled ones.
func (a *BuildAnalyzer) Analyze(ctx context.Context) (BuildReport, error) {
	since := a.now().Add(-a.lookback)
	rep := BuildReport{Repo: a.repo, Since: since}

	workflows, err := a.source.ListWorkflows(ctx, a.repo)
	if err != nil {
		return rep, fmt.Errorf("resolving workflows of %s: %w", a.repo, err)
	}

	for _, wf := range a.matcher.Match(workflows) {
		for run, err := range a.source.ListRuns(ctx, a.repo, wf.ID, since) {
			if err != nil {
				slog.Warn("listing runs stopped early", "repo", a.repo, "workflow", wf.Name, "error", err)
				break
			}

			if eligible, _ := a.policy.eligibleEvent(run); !eligible || run.Status != model.RunStatusCompleted {
				continue
			}

			timing, err := a.source.FetchRunTiming(ctx, a.repo, run.ID)
			if err != nil {
				slog.Warn("fetching run timing", "repo", a.repo, "run_id", run.ID, "error", err)
				continue
			}

			var minutes float64
			if d, ok := timing.Duration(); ok {
				minutes = d.Minutes()
			}

			rep.Runs = append(rep.Runs, AnalyzedRun{Run: run, Workflow: wf.Name, Minutes: minutes})
			if run.Conclusion == model.ConclusionCancelled {
				rep.Cancelled++
			}
		}
	}

	sort.SliceStable(rep.Runs, func(i, j int) bool {
		return rep.Runs[i].Minutes < rep.Runs[j].Minutes
	})
	rep.Stats = conclusionStats(rep.Runs)

	return rep, nil
}

func conclusionStats(runs []AnalyzedRun) []ConclusionStats {
	byConclusion := make(map[model.Conclusion]*ConclusionStats)
	sums := make(map[model.Conclusion]float64)

	for _, r := range runs {
		c := r.Run.Conclusion.OrUnknown()
		s, ok := byConclusion[c]
		if !ok {
			s = &ConclusionStats{Conclusion: c, MinMinutes: r.Minutes, MaxMinutes: r.Minutes}
			byConclusion[c] = s
		}
		s.Count++
		s.MinMinutes = min(s.MinMinutes, r.Minutes)
		s.MaxMinutes = max(s.MaxMinutes, r.Minutes)
		sums[c] += r.Minutes
	}

	out := make([]ConclusionStats, 0, len(byConclusion))
	for c, s := range byConclusion {
		s.AvgMinutes = sums[c] / float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Conclusion < out[j].Conclusion })
	return out
}
