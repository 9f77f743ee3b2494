package model

// RunStatus is the lifecycle phase of a workflow run or job.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusWaiting    RunStatus = "waiting"
	RunStatusRequested  RunStatus = "requested"
	RunStatusPending    RunStatus = "pending"
)

// Conclusion is the terminal outcome of a completed run or job.
type Conclusion string

const (
	ConclusionSuccess        Conclusion = "success"
	ConclusionFailure        Conclusion = "failure"
	ConclusionCancelled      Conclusion = "cancelled"
	ConclusionSkipped        Conclusion = "skipped"
	ConclusionTimedOut       Conclusion = "timed_out"
	ConclusionNeutral        Conclusion = "neutral"
	ConclusionActionRequired Conclusion = "action_required"
	ConclusionUnknown        Conclusion = "unknown"
)

// OrUnknown returns c, or ConclusionUnknown when GitHub has not reported one.
func (c Conclusion) OrUnknown() Conclusion {
	if c == "" {
		return ConclusionUnknown
	}
	return c
}

// EventKind is the GitHub event that triggered a workflow run.
type EventKind string

const (
	EventPush        EventKind = "push"
	EventPullRequest EventKind = "pull_request"
	EventSchedule    EventKind = "schedule"
	EventDispatch    EventKind = "workflow_dispatch"
)
