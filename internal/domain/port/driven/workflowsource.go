package driven

import (
	"context"
	"iter"
	"time"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// WorkflowSource defines the driven port for reading CI workflow runs from the
// hosting API.
type WorkflowSource interface {
	// ListWorkflows returns every workflow defined in the repository. An error
	// here means the repository itself could not be resolved.
	ListWorkflows(ctx context.Context, repoFullName string) ([]model.Workflow, error)
	// ListRuns lazily yields every run of the workflow created at or after since,
	// in source-defined order. The sequence is single-pass; ranging over it again
	// re-fetches. A non-nil error ends the sequence.
	ListRuns(ctx context.Context, repoFullName string, workflowID int64, since time.Time) iter.Seq2[model.WorkflowRun, error]
	// FetchRunTiming returns the upstream-reported duration of a run.
	FetchRunTiming(ctx context.Context, repoFullName string, runID int64) (model.RunTiming, error)
	// ListJobs returns the jobs of a run.
	ListJobs(ctx context.Context, repoFullName string, runID int64) ([]model.Job, error)
}
