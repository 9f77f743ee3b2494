package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduledJob is a collector run on a cron schedule.
type ScheduledJob struct {
	Name string
	Spec string // Standard 5-field cron expression, or 6-field with seconds.
	Run  func(ctx context.Context) error
}

// JobStatus is the last known outcome of a ScheduledJob.
type JobStatus struct {
	Name      string    `json:"name"`
	Spec      string    `json:"schedule"`
	LastRun   time.Time `json:"last_run,omitzero"`
	LastError string    `json:"last_error,omitempty"`
	Next      time.Time `json:"next_run,omitzero"`
	Runs      int       `json:"runs"`
}

// Scheduler runs collectors on cron schedules. A job still running when its
// next tick fires is skipped, so passes against the same state never overlap.
// After every run the metric pipeline is flushed.
type Scheduler struct {
	cron  *cron.Cron
	flush func(ctx context.Context) error

	mu      sync.Mutex
	ctx     context.Context
	jobs    map[string]ScheduledJob
	entries map[string]cron.EntryID
	status  map[string]*JobStatus
	runMu   map[string]*sync.Mutex
}

// NewScheduler creates a Scheduler. flush may be nil.
func NewScheduler(flush func(ctx context.Context) error) *Scheduler {
	logger := slogCronLogger{}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)), cron.WithLogger(logger)),
		flush:   flush,
		ctx:     context.Background(),
		jobs:    make(map[string]ScheduledJob),
		entries: make(map[string]cron.EntryID),
		status:  make(map[string]*JobStatus),
		runMu:   make(map[string]*sync.Mutex),
	}
}

// parseCronExpr tries 6-field (with seconds) then 5-field (standard) parsing.
func parseCronExpr(expr string) (cron.Schedule, error) {
	parser6 := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if sched, err := parser6.Parse(expr); err == nil {
		return sched, nil
	}
	parser5 := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser5.Parse(expr)
}

// Add registers job. Names must be unique.
func (s *Scheduler) Add(job ScheduledJob) error {
	sched, err := parseCronExpr(job.Spec)
	if err != nil {
		return fmt.Errorf("parsing schedule %q for %s: %w", job.Spec, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("job %s already scheduled", job.Name)
	}

	s.jobs[job.Name] = job
	s.status[job.Name] = &JobStatus{Name: job.Name, Spec: job.Spec}
	s.runMu[job.Name] = &sync.Mutex{}
	s.entries[job.Name] = s.cron.Schedule(sched, cron.FuncJob(func() {
		s.run(s.context(), job.Name)
	}))

	slog.Info("scheduler: registered job", "job", job.Name, "cron", job.Spec)
	return nil
}

// Start begins firing jobs. Runs use ctx, so cancelling it aborts in-flight
// collectors.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	slog.Info("scheduler: started", "jobs", len(s.jobs))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler: stopped")
}

// RunNow runs the named job immediately, waiting for any scheduled run of the
// same job to finish first.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}
	return s.run(ctx, name)
}

// Status returns the status of every job, sorted by name.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.status))
	for name, st := range s.status {
		cp := *st
		if id, ok := s.entries[name]; ok {
			cp.Next = s.cron.Entry(id).Next
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) run(ctx context.Context, name string) error {
	s.mu.Lock()
	job := s.jobs[name]
	lock := s.runMu[name]
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	slog.Info("scheduler: job started", "job", name)

	err := job.Run(ctx)
	if err != nil {
		slog.Error("scheduler: job failed", "job", name, "error", err)
	}

	if s.flush != nil {
		if ferr := s.flush(ctx); ferr != nil {
			slog.Warn("scheduler: flushing metrics", "job", name, "error", ferr)
		}
	}

	s.mu.Lock()
	st := s.status[name]
	st.LastRun = start
	st.Runs++
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
	}
	s.mu.Unlock()

	slog.Info("scheduler: job finished", "job", name, "duration", time.Since(start).Round(time.Millisecond))
	return err
}

// slogCronLogger routes cron's internal logging to slog.
type slogCronLogger struct{}

func (slogCronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
