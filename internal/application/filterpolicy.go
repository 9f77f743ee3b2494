package application

import (
	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// Verdict is the outcome of classifying one workflow run.
type Verdict string

const (
	VerdictSkipDuplicate          Verdict = "skip_duplicate"
	VerdictSkipWrongBranchOrEvent Verdict = "skip_wrong_branch_or_event"
	VerdictSkipIncomplete         Verdict = "skip_incomplete"
	VerdictSkipCancelled          Verdict = "skip_cancelled"
	VerdictAccept                 Verdict = "accept"
)

// DefaultDesignatedTestPR is the pull request whose builds are labelled
// is_build_test=true.
const DefaultDesignatedTestPR = 15213

// Decision is the result of FilterPolicy.Classify. Labels is only set for
// VerdictAccept.
type Decision struct {
	Verdict     Verdict
	IsBuildTest bool
	Labels      map[string]string
}

// Accepted reports whether the run should be measured.
func (d Decision) Accepted() bool {
	return d.Verdict == VerdictAccept
}

// FilterPolicy decides which workflow runs produce duration metrics.
//
// With AcceptAllPRs every pull_request run that carries a PR number is
// accepted and the designated PR is flagged. Without it only the designated
// PR is accepted; a nil DesignatedTestPR then rejects every pull_request run.
type FilterPolicy struct {
	MainBranch       string
	AcceptAllPRs     bool
	DesignatedTestPR *int
}

// DefaultFilterPolicy accepts pushes to main and all PR builds, flagging
// DefaultDesignatedTestPR.
func DefaultFilterPolicy() FilterPolicy {
	pr := DefaultDesignatedTestPR
	return FilterPolicy{
		MainBranch:       "main",
		AcceptAllPRs:     true,
		DesignatedTestPR: &pr,
	}
}

// Classify applies the policy to run. seen holds the IDs already accounted
// for. Checks run in order and the first match wins: duplicate, event kind and
// branch, completion, cancellation.
func (p FilterPolicy) Classify(run model.WorkflowRun, seen model.RunIDSet) Decision {
	if seen.Has(run.ID) {
		return Decision{Verdict: VerdictSkipDuplicate}
	}

	eligible, isBuildTest := p.eligibleEvent(run)
	if !eligible {
		return Decision{Verdict: VerdictSkipWrongBranchOrEvent}
	}

	if run.Status != model.RunStatusCompleted {
		return Decision{Verdict: VerdictSkipIncomplete}
	}

	if run.Conclusion == model.ConclusionCancelled {
		return Decision{Verdict: VerdictSkipCancelled}
	}

	return Decision{
		Verdict:     VerdictAccept,
		IsBuildTest: isBuildTest,
		Labels: map[string]string{
			"conclusion":    string(run.Conclusion.OrUnknown()),
			"event":         string(run.Event),
			"is_build_test": boolLabel(isBuildTest),
		},
	}
}

// eligibleEvent reports whether the event kind and branch of run qualify, and
// whether it is a build of the designated test PR.
func (p FilterPolicy) eligibleEvent(run model.WorkflowRun) (eligible, isBuildTest bool) {
	switch run.Event {
	case model.EventPullRequest:
		if !run.HasPR() {
			return false, false
		}
		isBuildTest = p.DesignatedTestPR != nil && *run.PRNumber == *p.DesignatedTestPR
		if !p.AcceptAllPRs && !isBuildTest {
			return false, false
		}
		return true, isBuildTest
	case model.EventPush:
		return run.Branch == p.MainBranch, false
	default:
		return false, false
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
