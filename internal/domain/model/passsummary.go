package model

import "time"

// PassSummary tallies one workflow collection pass.
type PassSummary struct {
	ID                string
	Repo              string
	StartedAt         time.Time
	FinishedAt        time.Time
	Total             int // Runs returned by the event source.
	SkippedDuplicate  int
	SkippedBranch     int // Wrong branch or event kind.
	SkippedIncomplete int
	SkippedCancelled  int
	SkippedTiming     int // Accepted runs dropped because timing was missing or unreadable.
	Processed         int
	JobsRecorded      int
	StoredIDs         int    // IDs handed to the dedup store at the end of the pass.
	Error             string // Non-empty when the pass aborted.
}

// Duration returns how long the pass took.
func (s PassSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Succeeded reports whether the pass ran to completion.
func (s PassSummary) Succeeded() bool {
	return s.Error == ""
}
