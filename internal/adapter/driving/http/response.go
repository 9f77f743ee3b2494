package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jaydeluca/java-meta-tracker/internal/application"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string        `json:"status"`
	Time   string        `json:"time"`
	Jobs   []JobResponse `json:"jobs"`
}

// JobResponse is the JSON representation of a scheduled job.
type JobResponse struct {
	Name      string `json:"name"`
	Schedule  string `json:"schedule"`
	Runs      int    `json:"runs"`
	LastRun   string `json:"last_run,omitempty"`
	NextRun   string `json:"next_run,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// JobTriggeredResponse acknowledges a manual job run.
type JobTriggeredResponse struct {
	Job    string `json:"job"`
	Status string `json:"status"`
}

// PassResponse is the JSON representation of one workflow collection pass.
type PassResponse struct {
	ID                string  `json:"id"`
	Repository        string  `json:"repository"`
	StartedAt         string  `json:"started_at"`
	FinishedAt        string  `json:"finished_at,omitempty"`
	DurationSeconds   float64 `json:"duration_seconds"`
	Total             int     `json:"total"`
	SkippedDuplicate  int     `json:"skipped_duplicate"`
	SkippedBranch     int     `json:"skipped_branch"`
	SkippedIncomplete int     `json:"skipped_incomplete"`
	SkippedCancelled  int     `json:"skipped_cancelled"`
	SkippedTiming     int     `json:"skipped_timing"`
	Processed         int     `json:"processed"`
	JobsRecorded      int     `json:"jobs_recorded"`
	StoredIDs         int     `json:"stored_ids"`
	Succeeded         bool    `json:"succeeded"`
	Error             string  `json:"error,omitempty"`
}

// formatTime renders t as RFC 3339 UTC, or "" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toJobResponse converts a scheduler JobStatus to its JSON representation.
func toJobResponse(st application.JobStatus) JobResponse {
	return JobResponse{
		Name:      st.Name,
		Schedule:  st.Spec,
		Runs:      st.Runs,
		LastRun:   formatTime(st.LastRun),
		NextRun:   formatTime(st.Next),
		LastError: st.LastError,
	}
}

// toPassResponse converts a domain PassSummary to its JSON representation.
func toPassResponse(p model.PassSummary) PassResponse {
	return PassResponse{
		ID:                p.ID,
		Repository:        p.Repo,
		StartedAt:         formatTime(p.StartedAt),
		FinishedAt:        formatTime(p.FinishedAt),
		DurationSeconds:   p.Duration().Seconds(),
		Total:             p.Total,
		SkippedDuplicate:  p.SkippedDuplicate,
		SkippedBranch:     p.SkippedBranch,
		SkippedIncomplete: p.SkippedIncomplete,
		SkippedCancelled:  p.SkippedCancelled,
		SkippedTiming:     p.SkippedTiming,
		Processed:         p.Processed,
		JobsRecorded:      p.JobsRecorded,
		StoredIDs:         p.StoredIDs,
		Succeeded:         p.Succeeded(),
		Error:             p.Error,
	}
}
