package application_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaydeluca/java-meta-tracker/internal/application"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

func strictPolicy() application.FilterPolicy {
	p := application.DefaultFilterPolicy()
	p.AcceptAllPRs = false
	return p
}

func TestClassify(t *testing.T) {
	noPR := prRun(5, 0, model.RunStatusCompleted, model.ConclusionSuccess)
	noPR.PRNumber = nil

	tests := []struct {
		name          string
		policy        application.FilterPolicy
		run           model.WorkflowRun
		seen          model.RunIDSet
		want          application.Verdict
		wantBuildTest bool
	}{
		{
			name:   "already seen run is a duplicate",
			policy: application.DefaultFilterPolicy(),
			run:    pushRun(1, "main", model.RunStatusCompleted, model.ConclusionSuccess),
			seen:   model.NewRunIDSet(1),
			want:   application.VerdictSkipDuplicate,
		},
		{
			name:   "duplicate wins over cancelled",
			policy: application.DefaultFilterPolicy(),
			run:    pushRun(1, "main", model.RunStatusCompleted, model.ConclusionCancelled),
			seen:   model.NewRunIDSet(1),
			want:   application.VerdictSkipDuplicate,
		},
		{
			name:   "push to main completed success",
			policy: application.DefaultFilterPolicy(),
			run:    pushRun(2, "main", model.RunStatusCompleted, model.ConclusionSuccess),
			want:   application.VerdictAccept,
		},
		{
			name:   "push to release branch",
			policy: application.DefaultFilterPolicy(),
			run:    pushRun(3, "release/1.0", model.RunStatusCompleted, model.ConclusionSuccess),
			want:   application.VerdictSkipWrongBranchOrEvent,
		},
		{
			name:   "scheduled run",
			policy: application.DefaultFilterPolicy(),
			run:    model.WorkflowRun{ID: 4, Event: model.EventSchedule, Branch: "main", Status: model.RunStatusCompleted, Conclusion: model.ConclusionSuccess},
			want:   application.VerdictSkipWrongBranchOrEvent,
		},
		{
			name:   "pull request without associated PR",
			policy: application.DefaultFilterPolicy(),
			run:    noPR,
			want:   application.VerdictSkipWrongBranchOrEvent,
		},
		{
			name:   "any PR accepted when accepting all PRs",
			policy: application.DefaultFilterPolicy(),
			run:    prRun(6, 99, model.RunStatusCompleted, model.ConclusionSuccess),
			want:   application.VerdictAccept,
		},
		{
			name:          "designated PR flagged as build test",
			policy:        application.DefaultFilterPolicy(),
			run:           prRun(7, application.DefaultDesignatedTestPR, model.RunStatusCompleted, model.ConclusionFailure),
			want:          application.VerdictAccept,
			wantBuildTest: true,
		},
		{
			name:   "strict policy skips other PRs",
			policy: strictPolicy(),
			run:    prRun(8, 99, model.RunStatusCompleted, model.ConclusionSuccess),
			want:   application.VerdictSkipWrongBranchOrEvent,
		},
		{
			name:          "strict policy accepts designated PR",
			policy:        strictPolicy(),
			run:           prRun(9, application.DefaultDesignatedTestPR, model.RunStatusCompleted, model.ConclusionSuccess),
			want:          application.VerdictAccept,
			wantBuildTest: true,
		},
		{
			name:   "strict policy without designated PR skips all PRs",
			policy: application.FilterPolicy{MainBranch: "main"},
			run:    prRun(10, application.DefaultDesignatedTestPR, model.RunStatusCompleted, model.ConclusionSuccess),
			want:   application.VerdictSkipWrongBranchOrEvent,
		},
		{
			name:   "in progress run",
			policy: application.DefaultFilterPolicy(),
			run:    pushRun(11, "main", model.RunStatusInProgress, ""),
			want:   application.VerdictSkipIncomplete,
		},
		{
			name:   "wrong branch checked before completion",
			policy: application.DefaultFilterPolicy(),
			run:    pushRun(12, "feature", model.RunStatusQueued, ""),
			want:   application.VerdictSkipWrongBranchOrEvent,
		},
		{
			name:   "cancelled run",
			policy: application.DefaultFilterPolicy(),
			run:    pushRun(13, "main", model.RunStatusCompleted, model.ConclusionCancelled),
			want:   application.VerdictSkipCancelled,
		},
		{
			name:   "failed run is still measured",
			policy: application.DefaultFilterPolicy(),
			run:    pushRun(14, "main", model.RunStatusCompleted, model.ConclusionFailure),
			want:   application.VerdictAccept,
		},
		{
			name:   "custom main branch",
			policy: application.FilterPolicy{MainBranch: "trunk", AcceptAllPRs: true},
			run:    pushRun(15, "trunk", model.RunStatusCompleted, model.ConclusionSuccess),
			want:   application.VerdictAccept,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen := tc.seen
			if seen == nil {
				seen = model.NewRunIDSet()
			}

			got := tc.policy.Classify(tc.run, seen)

			assert.Equal(t, tc.want, got.Verdict)
			assert.Equal(t, tc.wantBuildTest, got.IsBuildTest)
			if tc.want == application.VerdictAccept {
				assert.True(t, got.Accepted())
				assert.Equal(t, string(tc.run.Event), got.Labels["event"])
				assert.Equal(t, string(tc.run.Conclusion), got.Labels["conclusion"])
				assert.Equal(t, strconv.FormatBool(tc.wantBuildTest), got.Labels["is_build_test"])
			} else {
				assert.False(t, got.Accepted())
				assert.Nil(t, got.Labels)
			}
		})
	}
}

func TestClassify_MissingConclusionLabelledUnknown(t *testing.T) {
	run := pushRun(1, "main", model.RunStatusCompleted, "")

	got := application.DefaultFilterPolicy().Classify(run, model.NewRunIDSet())

	assert.Equal(t, application.VerdictAccept, got.Verdict)
	assert.Equal(t, "unknown", got.Labels["conclusion"])
}

func TestClassify_CancelledNeverAccepted(t *testing.T) {
	policies := []application.FilterPolicy{application.DefaultFilterPolicy(), strictPolicy()}
	runs := []model.WorkflowRun{
		pushRun(1, "main", model.RunStatusCompleted, model.ConclusionCancelled),
		prRun(2, 99, model.RunStatusCompleted, model.ConclusionCancelled),
		prRun(3, application.DefaultDesignatedTestPR, model.RunStatusCompleted, model.ConclusionCancelled),
	}
	seenSets := []model.RunIDSet{model.NewRunIDSet(), model.NewRunIDSet(42), model.NewRunIDSet(1, 2, 3)}

	for _, p := range policies {
		for _, r := range runs {
			for _, seen := range seenSets {
				assert.False(t, p.Classify(r, seen).Accepted(), "run %d must not be accepted", r.ID)
			}
		}
	}
}
