// Package httphandler is the HTTP driving adapter of serve mode: health,
// collection pass history, manual job triggers and the Prometheus scrape
// endpoint.
package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jaydeluca/java-meta-tracker/internal/application"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// Pass listing bounds for GET /api/v1/passes.
const (
	defaultPassLimit = 20
	maxPassLimit     = 200
)

// JobRunner is the subset of the scheduler used by the API.
type JobRunner interface {
	Status() []application.JobStatus
	RunNow(ctx context.Context, name string) error
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	ctx     context.Context
	passes  driven.PassStore
	jobs    JobRunner
	metrics http.Handler
	logger  *slog.Logger

	running sync.WaitGroup
}

// NewHandler creates a Handler. Manually triggered jobs run with ctx, so
// cancelling it aborts them. jobs and metrics may be nil; the routes that
// need them then report the feature as unavailable.
func NewHandler(
	ctx context.Context,
	passes driven.PassStore,
	jobs JobRunner,
	metrics http.Handler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		ctx:     ctx,
		passes:  passes,
		jobs:    jobs,
		metrics: metrics,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/passes", h.ListPasses)
	mux.HandleFunc("POST /api/v1/jobs/{name}/run", h.RunJob)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports liveness and the state of every scheduled job.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
		Jobs:   []JobResponse{},
	}

	if h.jobs != nil {
		for _, st := range h.jobs.Status() {
			resp.Jobs = append(resp.Jobs, toJobResponse(st))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListPasses returns the most recent workflow collection passes, newest first.
func (h *Handler) ListPasses(w http.ResponseWriter, r *http.Request) {
	limit := defaultPassLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxPassLimit)
	}

	passes, err := h.passes.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list passes", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]PassResponse, 0, len(passes))
	for _, p := range passes {
		resp = append(resp, toPassResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// RunJob triggers an immediate run of a scheduled job and returns without
// waiting for it.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}

	name := r.PathValue("name")
	if !h.hasJob(name) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	// The request context ends with the response; the run outlives it.
	h.running.Add(1)
	go func() {
		defer h.running.Done()
		if err := h.jobs.RunNow(h.ctx, name); err != nil {
			h.logger.Error("manual job run failed", "job", name, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, JobTriggeredResponse{Job: name, Status: "started"})
}

// Wait blocks until every manually triggered job has returned.
func (h *Handler) Wait() {
	h.running.Wait()
}

func (h *Handler) hasJob(name string) bool {
	for _, st := range h.jobs.Status() {
		if st.Name == name {
			return true
		}
	}
	return false
}
