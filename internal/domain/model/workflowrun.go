package model

import "time"

// Workflow is a CI pipeline definition in a repository.
type Workflow struct {
	ID    int64
	Name  string // Display name, e.g. "Build".
	Path  string // Definition file, e.g. ".github/workflows/build.yml".
	State string // active, disabled_manually, ...
}

// WorkflowRun is one execution of a Workflow. It only lives for the duration of
// a collection pass; afterwards just its ID is retained in the dedup state.
type WorkflowRun struct {
	ID           int64 // Stable across fetches of the same run.
	RunNumber    int
	WorkflowID   int64
	WorkflowName string
	Status       RunStatus
	Conclusion   Conclusion
	Event        EventKind
	Branch       string // Head branch; only meaningful for push events.
	PRNumber     *int   // First associated pull request, nil when GitHub reports none.
	URL          string
	CreatedAt    time.Time
	StartedAt    time.Time // Zero until the run starts.
	CompletedAt  time.Time // Zero until the run completes.
}

// HasPR reports whether the run carries an associated pull request.
func (r WorkflowRun) HasPR() bool {
	return r.PRNumber != nil
}

// RunTiming is the upstream-reported timing of a run. DurationMS is nil when
// GitHub returns no timing data (e.g. runs that never started).
type RunTiming struct {
	DurationMS *int64
}

// Duration returns the reported run duration. ok is false when timing is absent
// or negative.
func (t RunTiming) Duration() (d time.Duration, ok bool) {
	if t.DurationMS == nil || *t.DurationMS < 0 {
		return 0, false
	}
	return time.Duration(*t.DurationMS) * time.Millisecond, true
}

// Job is a named sub-unit of a workflow run with its own timing and outcome.
type Job struct {
	ID          int64
	RunID       int64
	Name        string
	Status      RunStatus
	Conclusion  Conclusion
	StartedAt   time.Time // Zero if not yet started.
	CompletedAt time.Time // Zero if not yet completed.
}

// Duration returns the elapsed wall-clock time of a completed job. ok is false
// when either timestamp is missing or the job is not completed.
func (j Job) Duration() (d time.Duration, ok bool) {
	if j.Status != RunStatusCompleted || j.StartedAt.IsZero() || j.CompletedAt.IsZero() {
		return 0, false
	}
	d = j.CompletedAt.Sub(j.StartedAt)
	if d < 0 {
		return 0, false
	}
	return d, true
}
