package application_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// --- Mock implementations ---

type mockSource struct {
	workflows    []model.Workflow
	workflowsErr error
	runs         map[int64][]model.WorkflowRun // workflow ID -> runs
	runsErrAfter map[int64]int                 // workflow ID -> yield an error after this many runs
	timings      map[int64]model.RunTiming
	timingErrs   map[int64]error
	jobs         map[int64][]model.Job
	jobErrs      map[int64]error

	mu            sync.Mutex
	timingCalls   []int64
	sinceRequests []time.Time
}

func (m *mockSource) ListWorkflows(_ context.Context, _ string) ([]model.Workflow, error) {
	return m.workflows, m.workflowsErr
}

func (m *mockSource) ListRuns(_ context.Context, _ string, workflowID int64, since time.Time) iter.Seq2[model.WorkflowRun, error] {
	m.mu.Lock()
	m.sinceRequests = append(m.sinceRequests, since)
	m.mu.Unlock()

	return func(yield func(model.WorkflowRun, error) bool) {
		limit, hasLimit := m.runsErrAfter[workflowID]
		for i, r := range m.runs[workflowID] {
			if hasLimit && i == limit {
				yield(model.WorkflowRun{}, errors.New("page 2: 502 bad gateway"))
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (m *mockSource) FetchRunTiming(_ context.Context, _ string, runID int64) (model.RunTiming, error) {
	m.mu.Lock()
	m.timingCalls = append(m.timingCalls, runID)
	m.mu.Unlock()

	if err := m.timingErrs[runID]; err != nil {
		return model.RunTiming{}, err
	}
	return m.timings[runID], nil
}

func (m *mockSource) ListJobs(_ context.Context, _ string, runID int64) ([]model.Job, error) {
	if err := m.jobErrs[runID]; err != nil {
		return nil, err
	}
	return m.jobs[runID], nil
}

// memoryStore is a ProcessedRunStore that keeps its state between passes the
// way the real stores do, including the cap.
type memoryStore struct {
	state   model.RunIDSet
	saves   int
	saveErr error
}

func newMemoryStore(ids ...int64) *memoryStore {
	return &memoryStore{state: model.NewRunIDSet(ids...)}
}

func (m *memoryStore) Load(_ context.Context) model.RunIDSet {
	return m.state.Clone()
}

func (m *memoryStore) Save(_ context.Context, ids model.RunIDSet) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = model.NewProcessedRunState(ids, time.Now()).IDSet()
	return nil
}

type recordedMetric struct {
	Kind   string
	Name   string
	Value  float64
	Labels map[string]string
}

type recordingSink struct {
	mu      sync.Mutex
	metrics []recordedMetric
}

func (s *recordingSink) RecordHistogram(_ context.Context, name string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, recordedMetric{Kind: "histogram", Name: name, Value: value, Labels: labels})
}

func (s *recordingSink) RecordGauge(_ context.Context, name string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, recordedMetric{Kind: "gauge", Name: name, Value: value, Labels: labels})
}

func (s *recordingSink) named(name string) []recordedMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordedMetric
	for _, m := range s.metrics {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

type mockContent struct {
	files     map[string][]byte // "repo@ref:path" -> contents
	counts    map[string]model.RepoCounts
	countErrs map[string]error
}

func contentKey(repo, ref, path string) string {
	return fmt.Sprintf("%s@%s:%s", repo, ref, path)
}

func (m *mockContent) FetchFile(_ context.Context, repo, ref, path string) ([]byte, error) {
	data, ok := m.files[contentKey(repo, ref, path)]
	if !ok {
		return nil, fmt.Errorf("%s: 404 Not Found", path)
	}
	return data, nil
}

func (m *mockContent) FetchRepoCounts(_ context.Context, repo string) (model.RepoCounts, error) {
	if err := m.countErrs[repo]; err != nil {
		return model.RepoCounts{}, err
	}
	return m.counts[repo], nil
}

// --- Fixtures ---

func ms(d time.Duration) model.RunTiming {
	v := d.Milliseconds()
	return model.RunTiming{DurationMS: &v}
}

func prNumber(n int) *int {
	return &n
}

func pushRun(id int64, branch string, status model.RunStatus, conclusion model.Conclusion) model.WorkflowRun {
	return model.WorkflowRun{
		ID:         id,
		RunNumber:  int(id),
		Event:      model.EventPush,
		Branch:     branch,
		Status:     status,
		Conclusion: conclusion,
	}
}

func prRun(id int64, pr int, status model.RunStatus, conclusion model.Conclusion) model.WorkflowRun {
	return model.WorkflowRun{
		ID:         id,
		RunNumber:  int(id),
		Event:      model.EventPullRequest,
		Branch:     "feature",
		PRNumber:   prNumber(pr),
		Status:     status,
		Conclusion: conclusion,
	}
}

var buildWorkflow = model.Workflow{ID: 100, Name: "Build", Path: ".github/workflows/build.yml", State: "active"}
