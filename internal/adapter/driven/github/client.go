// Package github implements the WorkflowSource and ContentSource ports using
// the go-github library.
package github

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.WorkflowSource = (*Client)(nil)
	_ driven.ContentSource  = (*Client)(nil)
)

// RequestTimeout bounds every GitHub API request so a hung upstream call cannot
// stall a collection pass.
const RequestTimeout = 30 * time.Second

// createdLayout is the timestamp format accepted by the runs "created" filter.
const createdLayout = "2006-01-02T15:04:05Z"

// Client implements the driven.WorkflowSource and driven.ContentSource ports.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching, at most CacheEntries responses)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := newCacheTransport(CacheEntries)
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	rateLimitClient.Timeout = RequestTimeout
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// ListWorkflows retrieves every workflow defined in the repository.
// It handles pagination automatically and maps go-github types to domain model types.
func (c *Client) ListWorkflows(ctx context.Context, repoFullName string) ([]model.Workflow, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListOptions{PerPage: 100}
	var all []model.Workflow

	for {
		wfs, resp, err := c.gh.Actions.ListWorkflows(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing workflows for %s (page %d): %w", repoFullName, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/workflows", opts.Page, len(wfs.Workflows))

		for _, wf := range wfs.Workflows {
			all = append(all, mapWorkflow(wf))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListRuns lazily pages through the runs of one workflow created at or after
// since. Pages are fetched only as the caller ranges over the sequence; breaking
// out of the loop stops further requests.
func (c *Client) ListRuns(ctx context.Context, repoFullName string, workflowID int64, since time.Time) iter.Seq2[model.WorkflowRun, error] {
	return func(yield func(model.WorkflowRun, error) bool) {
		owner, repo, err := splitRepo(repoFullName)
		if err != nil {
			yield(model.WorkflowRun{}, err)
			return
		}

		opts := &gh.ListWorkflowRunsOptions{
			Created:     ">=" + since.UTC().Format(createdLayout),
			ListOptions: gh.ListOptions{PerPage: 100},
		}

		for {
			runs, resp, err := c.gh.Actions.ListWorkflowRunsByID(ctx, owner, repo, workflowID, opts)
			if err != nil {
				yield(model.WorkflowRun{}, fmt.Errorf("listing runs for %s workflow %d (page %d): %w", repoFullName, workflowID, opts.Page, err))
				return
			}

			logRateLimit(resp, repoFullName+"/runs", opts.Page, len(runs.WorkflowRuns))

			for _, r := range runs.WorkflowRuns {
				if !yield(mapWorkflowRun(r), nil) {
					return
				}
			}

			if resp.NextPage == 0 {
				return
			}
			opts.Page = resp.NextPage
		}
	}
}

// FetchRunTiming returns the billable timing summary of a run. A response
// without run_duration_ms maps to a RunTiming with nil DurationMS.
func (c *Client) FetchRunTiming(ctx context.Context, repoFullName string, runID int64) (model.RunTiming, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return model.RunTiming{}, err
	}

	usage, resp, err := c.gh.Actions.GetWorkflowRunUsageByID(ctx, owner, repo, runID)
	if err != nil {
		return model.RunTiming{}, fmt.Errorf("fetching timing for %s run %d: %w", repoFullName, runID, err)
	}

	logRateLimit(resp, repoFullName+"/timing", 0, 1)

	return model.RunTiming{DurationMS: usage.RunDurationMS}, nil
}

// ListJobs retrieves the jobs of the latest attempt of a run.
// It handles pagination automatically and maps go-github types to domain model types.
func (c *Client) ListJobs(ctx context.Context, repoFullName string, runID int64) ([]model.Job, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListWorkflowJobsOptions{
		Filter:      "latest",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var all []model.Job

	for {
		jobs, resp, err := c.gh.Actions.ListWorkflowJobs(ctx, owner, repo, runID, opts)
		if err != nil {
			return nil, fmt.Errorf("listing jobs for %s run %d (page %d): %w", repoFullName, runID, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/jobs", opts.Page, len(jobs.Jobs))

		for _, j := range jobs.Jobs {
			all = append(all, mapJob(j))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// FetchFile downloads a repository file at the given ref. DownloadContents is
// used instead of GetContents so files above the 1 MB contents limit work too.
func (c *Client) FetchFile(ctx context.Context, repoFullName, ref, path string) ([]byte, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	var opts *gh.RepositoryContentGetOptions
	if ref != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: ref}
	}

	rc, resp, err := c.gh.Repositories.DownloadContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("downloading %s@%s:%s: %w", repoFullName, ref, path, err)
	}
	defer rc.Close()

	if resp != nil && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s@%s:%s: unexpected status %d", repoFullName, ref, path, resp.StatusCode)
	}

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s@%s:%s: %w", repoFullName, ref, path, err)
	}

	return data, nil
}

// FetchRepoCounts returns open issue and pull request counts. GitHub's
// open_issues_count includes pull requests, so the open PR total is subtracted.
func (c *Client) FetchRepoCounts(ctx context.Context, repoFullName string) (model.RepoCounts, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return model.RepoCounts{}, err
	}

	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return model.RepoCounts{}, fmt.Errorf("fetching repository %s: %w", repoFullName, err)
	}
	logRateLimit(resp, repoFullName, 0, 1)

	query := fmt.Sprintf("repo:%s/%s is:pr is:open", owner, repo)
	result, resp, err := c.gh.Search.Issues(ctx, query, &gh.SearchOptions{ListOptions: gh.ListOptions{PerPage: 1}})
	if err != nil {
		return model.RepoCounts{}, fmt.Errorf("counting open pull requests for %s: %w", repoFullName, err)
	}
	logRateLimit(resp, repoFullName+"/search", 0, 1)

	openPRs := result.GetTotal()
	openIssues := r.GetOpenIssuesCount() - openPRs
	if openIssues < 0 {
		openIssues = 0
	}

	return model.RepoCounts{
		FullName:   repoFullName,
		OpenIssues: openIssues,
		OpenPRs:    openPRs,
	}, nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// mapWorkflow converts a go-github Workflow to a domain model Workflow.
func mapWorkflow(wf *gh.Workflow) model.Workflow {
	return model.Workflow{
		ID:    wf.GetID(),
		Name:  wf.GetName(),
		Path:  wf.GetPath(),
		State: wf.GetState(),
	}
}

// mapWorkflowRun converts a go-github WorkflowRun to a domain model WorkflowRun.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapWorkflowRun(r *gh.WorkflowRun) model.WorkflowRun {
	var prNumber *int
	if len(r.PullRequests) > 0 && r.PullRequests[0] != nil {
		n := r.PullRequests[0].GetNumber()
		prNumber = &n
	}

	status := model.RunStatus(r.GetStatus())

	// Runs carry no completed_at; GitHub stops updating a run once it completes.
	var completedAt time.Time
	if status == model.RunStatusCompleted {
		completedAt = r.GetUpdatedAt().Time
	}

	return model.WorkflowRun{
		ID:           r.GetID(),
		RunNumber:    r.GetRunNumber(),
		WorkflowID:   r.GetWorkflowID(),
		WorkflowName: r.GetName(),
		Status:       status,
		Conclusion:   model.Conclusion(r.GetConclusion()),
		Event:        model.EventKind(r.GetEvent()),
		Branch:       r.GetHeadBranch(),
		PRNumber:     prNumber,
		URL:          r.GetHTMLURL(),
		CreatedAt:    r.GetCreatedAt().Time,
		StartedAt:    r.GetRunStartedAt().Time,
		CompletedAt:  completedAt,
	}
}

// mapJob converts a go-github WorkflowJob to a domain model Job.
func mapJob(j *gh.WorkflowJob) model.Job {
	return model.Job{
		ID:          j.GetID(),
		RunID:       j.GetRunID(),
		Name:        j.GetName(),
		Status:      model.RunStatus(j.GetStatus()),
		Conclusion:  model.Conclusion(j.GetConclusion()),
		StartedAt:   j.GetStartedAt().Time,
		CompletedAt: j.GetCompletedAt().Time,
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w %q: expected owner/repo", model.ErrInvalidRepo, fullName)
	}
	return parts[0], parts[1], nil
}
